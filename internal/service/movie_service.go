package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/storage"
)

type MovieStore interface {
	ListAll(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
}

// ImageUpload is a file received with a create or update request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MovieInput is the raw form input.  PublishedDate stays a string until
// validated so that "abc" yields a field error instead of a bind error.
// HasPublishedDate distinguishes an absent field from an empty one.
type MovieInput struct {
	Name             string
	PublishedDate    string
	HasPublishedDate bool
	Image            *ImageUpload
}

type movieRules struct {
	Name          string `json:"name" validate:"required,max=255"`
	PublishedDate string `json:"published_date" validate:"required,integer"`
}

type movieNameRules struct {
	Name string `json:"name" validate:"required,max=255"`
}

type MovieService struct {
	movies MovieStore
	disk   storage.Disk
	events queue.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewMovieService(movies MovieStore, disk storage.Disk, events queue.Publisher, log *zap.Logger) *MovieService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &MovieService{
		movies: movies,
		disk:   disk,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MovieService) List(ctx context.Context, actor *Session) ([]model.Movie, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	movies, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

func (s *MovieService) Get(ctx context.Context, actor *Session, id uint64) (*model.Movie, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "get movie")
	}
	return m, nil
}

// Create validates the input, stores the image when one is given and
// inserts the row.  A movie without an image is accepted and keeps a NULL
// image column.
func (s *MovieService) Create(ctx context.Context, actor *Session, in MovieInput) (*model.Movie, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	in.Name = strings.TrimSpace(in.Name)
	in.PublishedDate = strings.TrimSpace(in.PublishedDate)
	if err := check(movieRules{Name: in.Name, PublishedDate: in.PublishedDate}); err != nil {
		return nil, err
	}
	date, _ := strconv.ParseInt(in.PublishedDate, 10, 64)

	m := &model.Movie{Name: in.Name, PublishedDate: date}
	if in.Image != nil {
		key, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		m.Image = &key
	}
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.publish(ctx, queue.MovieCreated, actor, m)
	return m, nil
}

// Update resolves the movie before validating, so an unknown id reports
// not found whatever the input.  The name is always rewritten.
// published_date is kept when the field is absent, and the image is
// replaced only when a new file arrives; the previous file stays on disk.
func (s *MovieService) Update(ctx context.Context, actor *Session, id uint64, in MovieInput) (*model.Movie, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "load movie")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.PublishedDate = strings.TrimSpace(in.PublishedDate)
	if in.HasPublishedDate {
		err = check(movieRules{Name: in.Name, PublishedDate: in.PublishedDate})
	} else {
		err = check(movieNameRules{Name: in.Name})
	}
	if err != nil {
		return nil, err
	}

	m.Name = in.Name
	if in.HasPublishedDate {
		m.PublishedDate, _ = strconv.ParseInt(in.PublishedDate, 10, 64)
	}
	if in.Image != nil {
		key, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		m.Image = &key
	}
	if err := s.movies.Update(ctx, m); err != nil {
		return nil, notFound(err, "update movie")
	}
	s.publish(ctx, queue.MovieUpdated, actor, m)
	return m, nil
}

// Delete removes the row only.  The image file, if any, is left behind.
func (s *MovieService) Delete(ctx context.Context, actor *Session, id uint64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := s.movies.Delete(ctx, id); err != nil {
		return notFound(err, "delete movie")
	}
	s.publish(ctx, queue.MovieDeleted, actor, &model.Movie{ID: id})
	return nil
}

func (s *MovieService) storeImage(ctx context.Context, img *ImageUpload) (string, error) {
	key := storage.NewImageKey(img.Filename, s.now())
	if err := s.disk.Put(ctx, key, img.Body, img.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

func (s *MovieService) publish(ctx context.Context, typ queue.EventType, actor *Session, m *model.Movie) {
	ev := queue.MovieEvent{
		Type:          typ,
		MovieID:       m.ID,
		Name:          m.Name,
		PublishedDate: m.PublishedDate,
		UserID:        actor.User.ID,
		OccurredAt:    s.now(),
	}
	if m.HasImage() {
		ev.Image = *m.Image
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish movie event",
			zap.String("type", string(typ)),
			zap.Uint64("movie_id", m.ID),
			zap.Error(err))
	}
}

func notFound(err error, op string) error {
	if errors.Is(err, repository.ErrMovieNotFound) {
		return ErrMovieNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
