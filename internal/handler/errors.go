package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/service"
)

const serverError = "Server Error"

// faultMessage picks the client-facing text for err.  Client errors carry
// their own message.  Internal faults are logged, and their text is only
// shown when debug is on.
func faultMessage(c echo.Context, log *zap.Logger, debug bool, err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrMovieNotFound):
		return "Movie not found."
	case errors.Is(err, service.ErrUnauthenticated):
		return "Unauthenticated."
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err))
	if debug {
		return err.Error()
	}
	return serverError
}
