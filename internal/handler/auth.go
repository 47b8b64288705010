package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/middleware"
	"github.com/iliyamo/movies-api/internal/service"
)

type AuthService interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sess *service.Session) error
	CheckAuth(sess *service.Session) service.CheckAuthResult
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth  AuthService
	Log   *zap.Logger
	Debug bool
}

func NewAuthHandler(auth AuthService, log *zap.Logger, debug bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Log: log, Debug: debug}
}

// Login accepts JSON or form encoded {email, password}.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	// an unreadable body is treated as empty so the client gets field errors
	_ = c.Bind(&in)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, in)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"message": verr.Message,
				"errors":  verr.Errors,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": faultMessage(c, h.Log, h.Debug, err)})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": loginUserResource{userResource: newUserResource(res.User), Token: res.Token},
	})
}

// Logout revokes the token used for this request.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.Logout(ctx, middleware.SessionFrom(c))
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": faultMessage(c, h.Log, h.Debug, err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully."})
}

func (h *AuthHandler) CheckAuth(c echo.Context) error {
	res := h.Auth.CheckAuth(middleware.SessionFrom(c))
	if !res.Authenticated || res.User == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"user":          newUserResource(*res.User),
	})
}
