package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/middleware"
	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/service"
	"github.com/iliyamo/movies-api/internal/storage"
)

type MovieService interface {
	List(ctx context.Context, actor *service.Session) ([]model.Movie, error)
	Get(ctx context.Context, actor *service.Session, id uint64) (*model.Movie, error)
	Create(ctx context.Context, actor *service.Session, in service.MovieInput) (*model.Movie, error)
	Update(ctx context.Context, actor *service.Session, id uint64, in service.MovieInput) (*model.Movie, error)
	Delete(ctx context.Context, actor *service.Session, id uint64) error
}

// MovieHandler serves /movies.  Every response uses the
// {status, message, data} envelope.
type MovieHandler struct {
	Movies MovieService
	URLs   storage.URLBuilder
	Log    *zap.Logger
	Debug  bool
}

// NewMovieHandler builds image URLs from appURL.  Set URLs.ObjectBase
// afterwards when images are served from a bucket.
func NewMovieHandler(movies MovieService, appURL string, log *zap.Logger, debug bool) *MovieHandler {
	return &MovieHandler{Movies: movies, URLs: storage.URLBuilder{AppURL: appURL}, Log: log, Debug: debug}
}

func (h *MovieHandler) Index(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.List(ctx, middleware.SessionFrom(c))
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	out := make([]movieResource, 0, len(movies))
	for _, m := range movies {
		out = append(out, newMovieResource(h.URLs, m))
	}
	return c.JSON(http.StatusOK, envelope{Status: true, Message: "", Data: out})
}

func (h *MovieHandler) Show(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.Get(ctx, middleware.SessionFrom(c), id)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, envelope{Status: true, Message: "", Data: newMovieResource(h.URLs, *m)})
}

// Store expects multipart/form-data with name, published_date and an
// optional image file, or a JSON body without the image.
func (h *MovieHandler) Store(c echo.Context) error {
	in, closeImage, err := readMovieForm(c)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	defer closeImage()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.Create(ctx, middleware.SessionFrom(c), in)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, envelope{
		Status:  true,
		Message: "Movie has been created",
		Data:    newMovieResource(h.URLs, *m),
	})
}

// Update serves both PUT and PATCH.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	in, closeImage, err := readMovieForm(c)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	defer closeImage()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.Update(ctx, middleware.SessionFrom(c), id, in)
	if err != nil {
		return h.fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, envelope{
		Status:  true,
		Message: "Movie has been updated",
		Data:    newMovieResource(h.URLs, *m),
	})
}

// Destroy answers 200 even when the delete fails; clients must read the
// status field.
func (h *MovieHandler) Destroy(c echo.Context) error {
	id, err := movieID(c)
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		err = h.Movies.Delete(ctx, middleware.SessionFrom(c), id)
	}
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
		}
		return c.JSON(http.StatusOK, statusOnly{Status: false, Message: faultMessage(c, h.Log, h.Debug, err)})
	}
	return c.JSON(http.StatusOK, statusOnly{Status: true, Message: "Movie has been deleted"})
}

func (h *MovieHandler) fail(c echo.Context, status int, err error) error {
	if errors.Is(err, service.ErrUnauthenticated) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
	}
	return c.JSON(status, envelope{
		Status:  false,
		Message: faultMessage(c, h.Log, h.Debug, err),
		Data:    []any{},
	})
}

// movieID parses the :id path parameter.  Anything that is not a positive
// integer cannot name a movie.
func movieID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrMovieNotFound
	}
	return id, nil
}

// movieJSON is the JSON body accepted on create and update.
// published_date may be a number or a string.
type movieJSON struct {
	Name          string          `json:"name"`
	PublishedDate json.RawMessage `json:"published_date"`
}

// readMovieJSON never carries an image.  A body that does not decode
// leaves the fields empty and fails validation downstream, like login.
func readMovieJSON(c echo.Context) service.MovieInput {
	var body movieJSON
	_ = c.Bind(&body)
	in := service.MovieInput{Name: body.Name}
	if len(body.PublishedDate) > 0 {
		in.HasPublishedDate = true
		in.PublishedDate = jsonScalar(body.PublishedDate)
	}
	return in
}

// jsonScalar turns a JSON string into its text and leaves any other
// literal as written, so 1986 and "1986" both read "1986" and null reads "".
func jsonScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// readMovieForm collects the form fields and the optional image.  The
// returned func closes the uploaded file and is always safe to call.
func readMovieForm(c echo.Context) (service.MovieInput, func(), error) {
	noop := func() {}
	var in service.MovieInput

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return readMovieJSON(c), noop, nil
	}

	params, err := c.FormParams()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return in, noop, fmt.Errorf("parse form: %w", err)
	}
	in.Name = params.Get("name")
	if vals, ok := params["published_date"]; ok && len(vals) > 0 {
		in.PublishedDate = vals[0]
		in.HasPublishedDate = true
	}

	fh, err := c.FormFile("image")
	if err != nil {
		// no file part; the image is optional
		return in, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, noop, fmt.Errorf("open upload: %w", err)
	}
	in.Image = &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: contentType(fh),
		Body:        f,
	}
	return in, func() { _ = f.Close() }, nil
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(echo.HeaderContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
