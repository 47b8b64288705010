package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/utils"
)

type memUsers struct {
	byID map[uint64]*model.User
	err  error
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[uint64]*model.User{}}
	for i := range users {
		u := users[i]
		m.byID[u.ID] = &u
	}
	return m
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == repository.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type memTokens struct {
	mu      sync.Mutex
	nextID  uint64
	rows    map[uint64]*model.AccessToken
	touched []uint64
	err     error
}

func newMemTokens() *memTokens { return &memTokens{rows: map[uint64]*model.AccessToken{}} }

func (m *memTokens) Create(_ context.Context, userID uint64, name, hash string) (*model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	t := &model.AccessToken{ID: m.nextID, UserID: userID, Name: name, TokenHash: hash}
	m.rows[t.ID] = t
	return t, nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.rows {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (m *memTokens) TouchLastUsed(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[id]; ok {
		t.LastUsedAt = &at
	}
	m.touched = append(m.touched, id)
	return nil
}

func (m *memTokens) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrTokenNotFound
	}
	delete(m.rows, id)
	return nil
}

type memMovies struct {
	nextID uint64
	rows   map[uint64]model.Movie
	err    error
}

func newMemMovies() *memMovies { return &memMovies{rows: map[uint64]model.Movie{}} }

func (m *memMovies) ListAll(context.Context) ([]model.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.Movie, 0, len(m.rows))
	for id := uint64(1); id <= m.nextID; id++ {
		if mv, ok := m.rows[id]; ok {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	if m.err != nil {
		return nil, m.err
	}
	mv, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &mv, nil
}

func (m *memMovies) Create(_ context.Context, mv *model.Movie) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	mv.ID = m.nextID
	mv.CreatedAt = time.Now().UTC()
	mv.UpdatedAt = mv.CreatedAt
	m.rows[mv.ID] = *mv
	return nil
}

func (m *memMovies) Update(_ context.Context, mv *model.Movie) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[mv.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	mv.UpdatedAt = time.Now().UTC()
	m.rows[mv.ID] = *mv
	return nil
}

func (m *memMovies) Delete(_ context.Context, id uint64) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(m.rows, id)
	return nil
}

type memDisk struct {
	files map[string]string
	err   error
}

func (d *memDisk) Put(_ context.Context, key string, r io.Reader, _ string) error {
	if d.err != nil {
		return d.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if d.files == nil {
		d.files = map[string]string{}
	}
	d.files[key] = string(b)
	return nil
}

type recPublisher struct {
	events []queue.MovieEvent
	err    error
}

func (p *recPublisher) Publish(_ context.Context, ev queue.MovieEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")

func seededUser(id uint64, email, password string) model.User {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		panic(err)
	}
	return model.User{ID: id, Name: "User", Email: email, PasswordHash: hash}
}
