// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/handler"
	"github.com/iliyamo/movies-api/internal/middleware"
)

// Deps is everything RegisterRoutes needs.  LoginLimiter and DB may be nil.
type Deps struct {
	Auth          *handler.AuthHandler
	Movies        *handler.MovieHandler
	Authenticator middleware.Authenticator
	LoginLimiter  echo.MiddlewareFunc
	DB            handler.Pinger
	Prefix        string // "" or "/api"
	StorageRoot   string // served at /storage when set
	Log           *zap.Logger
}

// RegisterRoutes mounts the API under d.Prefix.  Health checks and
// /storage always live at the root so APP_URL/storage/... resolves no
// matter the prefix.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// POST with _method=PUT|PATCH|DELETE (or X-HTTP-Method-Override) is
	// routed as that method, so multipart updates work for form clients.
	e.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{Getter: overrideMethod}))

	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}
	if d.StorageRoot != "" {
		e.Static("/storage", d.StorageRoot)
	}

	api := e.Group(d.Prefix)
	requireAuth := middleware.BearerAuth(d.Authenticator, d.Log)

	var loginMW []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		loginMW = append(loginMW, d.LoginLimiter)
	}
	api.POST("/login", d.Auth.Login, loginMW...)
	api.POST("/logout", d.Auth.Logout, requireAuth)
	api.GET("/checkAuth", d.Auth.CheckAuth, middleware.OptionalAuth(d.Authenticator, d.Log))

	movies := api.Group("/movies", requireAuth)
	movies.GET("", d.Movies.Index)
	movies.POST("", d.Movies.Store)
	movies.GET("/:id", d.Movies.Show)
	movies.PUT("/:id", d.Movies.Update)
	movies.PATCH("/:id", d.Movies.Update)
	movies.DELETE("/:id", d.Movies.Destroy)
}

func overrideMethod(c echo.Context) string {
	if m := echomw.MethodFromForm("_method")(c); m != "" {
		return strings.ToUpper(m)
	}
	return echomw.MethodFromHeader(echo.HeaderXHTTPMethodOverride)(c)
}
