package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movies-api/internal/model"
)

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, name, image, published_date, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*model.Movie, error) {
	var (
		m     model.Movie
		image sql.NullString
	)
	if err := s.Scan(&m.ID, &m.Name, &image, &m.PublishedDate, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		v := image.String
		m.Image = &v
	}
	return &m, nil
}

func nullableImage(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// Create inserts a new movie.  On success ID, CreatedAt and UpdatedAt are
// populated from a follow-up SELECT so callers get the row as stored.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const qInsert = "INSERT INTO movies (name, image, published_date) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, m.Name, nullableImage(m.Image), m.PublishedDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// GetByID returns ErrMovieNotFound if no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	q := "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListAll returns every movie ordered by id.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes name, image and published_date for the given row.  The DSN
// sets clientFoundRows so an update that changes nothing still counts the
// matched row; zero therefore means the movie is gone.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
	           SET name = ?, image = ?, published_date = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, nullableImage(m.Image), m.PublishedDate, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	stored, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// Delete removes the row only; the image blob is left in storage.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
