// Package app builds the server from configuration and runs it until the
// context is cancelled.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/database"
	"github.com/iliyamo/movies-api/internal/handler"
	"github.com/iliyamo/movies-api/internal/middleware"
	"github.com/iliyamo/movies-api/internal/queue"
	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/router"
	"github.com/iliyamo/movies-api/internal/service"
	"github.com/iliyamo/movies-api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg      config.Config
	log      *zap.Logger
	db       *sql.DB
	rdb      *redis.Client
	echo     *echo.Echo
	consumer *queue.Consumer
}

// New opens the database, applies migrations, seeds the bootstrap user and
// wires every handler.  Redis and RabbitMQ are optional: when unreachable
// the login limiter is skipped and events are dropped.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	a := &App{cfg: cfg, log: log, db: db}

	if err := database.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)

	if _, err := database.SeedUser(ctx, users, cfg.Seed, cfg.BcryptCost, log); err != nil {
		log.Warn("seed user failed", zap.Error(err))
	}

	disk, staticRoot, err := newDisk(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("storage init: %w", err)
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.Queue.Enabled {
		events = queue.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Queue)
		if cfg.Queue.StartConsumer {
			a.consumer = queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Queue, cfg.Queue.ConsumerLog, log)
		}
	}

	var loginLimiter echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		rdb, err := config.NewRedisClient(ctx)
		if err != nil {
			log.Warn("redis unavailable, login rate limit disabled", zap.Error(err))
		} else {
			a.rdb = rdb
			loginLimiter = middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
		}
	}

	authSvc := service.NewAuthService(users, tokens, cfg.AppKey, log)
	movieSvc := service.NewMovieService(movies, disk, events, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.BodyLimit("20M"))

	movieHandler := handler.NewMovieHandler(movieSvc, cfg.AppURL, log, cfg.Debug)
	if cfg.Storage.Disk == config.DiskS3 {
		movieHandler.URLs.ObjectBase = cfg.Storage.S3.PublicURL
	}

	router.RegisterRoutes(e, router.Deps{
		Auth:          handler.NewAuthHandler(authSvc, log, cfg.Debug),
		Movies:        movieHandler,
		Authenticator: authSvc,
		LoginLimiter:  loginLimiter,
		DB:            db,
		Prefix:        cfg.APIPrefix,
		StorageRoot:   staticRoot,
		Log:           log,
	})
	a.echo = e
	return a, nil
}

// Run serves HTTP until ctx is done, then shuts down within 10s.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("movie consumer stopped", zap.Error(err))
			}
		}()
	}

	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", addr), zap.String("env", a.cfg.Env), zap.String("prefix", a.cfg.APIPrefix))
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.echo.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// newDisk returns the configured disk and, for the local disk, the
// directory to serve at /storage.
func newDisk(ctx context.Context, sc config.StorageConfig) (storage.Disk, string, error) {
	if sc.Disk == config.DiskS3 {
		d, err := storage.NewS3Disk(ctx, sc.S3)
		return d, "", err
	}
	d, err := storage.NewLocalDisk(sc.Root)
	if err != nil {
		return nil, "", err
	}
	return d, sc.Root, nil
}
