package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness check.  It returns a plain "ok" without touching
// any dependency.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Ready answers "ok" once the database answers a ping and 503 before that.
func Ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.String(http.StatusOK, "ok")
	}
}
