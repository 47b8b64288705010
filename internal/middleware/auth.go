package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/service"
)

const sessionKey = "session"

// Authenticator resolves a raw bearer token.  *service.AuthService
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*service.Session, error)
}

// BearerAuth rejects requests without a valid bearer token with
// 401 {"message":"Unauthenticated."}.  On success the session is stored on
// the echo context for SessionFrom.
func BearerAuth(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := auth.Authenticate(c.Request().Context(), bearerToken(c.Request()))
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
				}
				log.Error("authenticate request", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server Error"})
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// OptionalAuth resolves the session when a token is present and lets the
// request through either way.
func OptionalAuth(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				return next(c)
			}
			sess, err := auth.Authenticate(c.Request().Context(), raw)
			switch {
			case err == nil:
				c.Set(sessionKey, sess)
			case !errors.Is(err, service.ErrUnauthenticated):
				log.Warn("optional authenticate", zap.Error(err))
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session set by BearerAuth or OptionalAuth, or nil.
func SessionFrom(c echo.Context) *service.Session {
	sess, _ := c.Get(sessionKey).(*service.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
