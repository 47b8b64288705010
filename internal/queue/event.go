// Package queue carries movie lifecycle events over RabbitMQ.  The API
// publishes after each successful write; an optional consumer appends them
// to a log file.
package queue

import "time"

// EventType names a movie lifecycle transition.
type EventType string

const (
	MovieCreated EventType = "movie.created"
	MovieUpdated EventType = "movie.updated"
	MovieDeleted EventType = "movie.deleted"
)

// MovieEvent is published after a movie row changes.  It holds enough for a
// consumer to log the change without querying the database.
type MovieEvent struct {
	Type          EventType `json:"type"`
	MovieID       uint64    `json:"movie_id"`
	Name          string    `json:"name,omitempty"`
	Image         string    `json:"image,omitempty"`
	PublishedDate int64     `json:"published_date,omitempty"`
	UserID        uint64    `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
