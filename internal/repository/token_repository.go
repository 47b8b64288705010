package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movies-api/internal/model"
)

// TokenRepo persists personal access tokens (single 'token' hash column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a token hash row for the user and returns the new row.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, name, tokenHash string) (*model.AccessToken, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO personal_access_tokens (user_id, name, token) VALUES (?,?,?)",
		userID, name, tokenHash)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &model.AccessToken{
		ID:        uint64(id),
		UserID:    userID,
		Name:      name,
		TokenHash: tokenHash,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindByHash returns the token row matching the digest.  Revoked tokens no
// longer have a row, so they surface as ErrTokenNotFound.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.AccessToken, error) {
	var (
		t        model.AccessToken
		lastUsed sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,name,token,last_used_at,created_at,updated_at FROM personal_access_tokens WHERE token=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &lastUsed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if lastUsed.Valid {
		ts := lastUsed.Time
		t.LastUsedAt = &ts
	}
	return &t, nil
}

// TouchLastUsed records that the token authenticated a request.
func (r *TokenRepo) TouchLastUsed(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE personal_access_tokens SET last_used_at=? WHERE id=?", at, id)
	return err
}

// Delete revokes a single token.
func (r *TokenRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM personal_access_tokens WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
