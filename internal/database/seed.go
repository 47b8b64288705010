package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/repository"
)

// UserSeeder is the subset of the user repository needed to create the
// initial account.
type UserSeeder interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
}

// SeedUser creates the configured user unless it already exists.  There is
// no registration endpoint, so this is the only way accounts come to be.
// It reports whether a row was inserted.
func SeedUser(ctx context.Context, users UserSeeder, seed config.SeedConfig, cost int, log *zap.Logger) (bool, error) {
	if seed.Email == "" || seed.Password == "" {
		return false, nil
	}
	_, err := users.GetByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		log.Debug("seed user already present", zap.String("email", seed.Email))
		return false, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return false, fmt.Errorf("check seed user: %w", err)
	}

	name := seed.Name
	if name == "" {
		name = "Admin"
	}
	id, err := users.Create(ctx, name, seed.Email, seed.Password, cost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return false, nil
		}
		return false, fmt.Errorf("seed user: %w", err)
	}
	log.Info("seeded user", zap.Uint64("id", id), zap.String("email", seed.Email))
	return true, nil
}
