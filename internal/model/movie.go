package model

import "time"

// Movie is a row in the `movies` table.
//
// Image holds the storage path relative to the public disk root (for
// example "images/1723712345_3f1c....jpg") or nil when no image was
// uploaded.  PublishedDate is an integer on purpose: clients send values
// such as 20100716.
type Movie struct {
	ID            uint64
	Name          string
	Image         *string
	PublishedDate int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasImage reports whether an image path is recorded.
func (m Movie) HasImage() bool { return m.Image != nil && *m.Image != "" }
