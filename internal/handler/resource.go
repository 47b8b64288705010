package handler

import (
	"time"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/storage"
)

// userResource is the public shape of a user.  The password hash never
// leaves the service layer.
type userResource struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginUserResource struct {
	userResource
	Token string `json:"token"`
}

func newUserResource(u model.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// movieResource renders image as an absolute URL, or null when the movie
// has none.
type movieResource struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Image         *string   `json:"image"`
	PublishedDate int64     `json:"published_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newMovieResource(urls storage.URLBuilder, m model.Movie) movieResource {
	r := movieResource{
		ID:            m.ID,
		Name:          m.Name,
		PublishedDate: m.PublishedDate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.HasImage() {
		u := urls.URL(*m.Image)
		r.Image = &u
	}
	return r
}

// envelope wraps every movie response.
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// statusOnly is the delete response, which carries no data key.
type statusOnly struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
