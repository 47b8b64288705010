package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/queue"
)

var actor = &Session{User: model.User{ID: 7, Email: "a@b.com"}, TokenID: 1}

func newMovies(t *testing.T) (*MovieService, *memMovies, *memDisk, *recPublisher) {
	t.Helper()
	store := newMemMovies()
	disk := &memDisk{}
	pub := &recPublisher{}
	svc := NewMovieService(store, disk, pub, zap.NewNop())
	svc.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return svc, store, disk, pub
}

func upload(name, body string) *ImageUpload {
	return &ImageUpload{Filename: name, ContentType: "image/jpeg", Body: strings.NewReader(body)}
}

func TestCreate_WithoutImage(t *testing.T) {
	svc, store, _, pub := newMovies(t)

	m, err := svc.Create(context.Background(), actor, MovieInput{Name: "Inception", PublishedDate: "20100716", HasPublishedDate: true})
	require.NoError(t, err)
	assert.Equal(t, "Inception", m.Name)
	assert.Equal(t, int64(20100716), m.PublishedDate)
	assert.Nil(t, m.Image)
	assert.Len(t, store.rows, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.MovieCreated, pub.events[0].Type)
	assert.Equal(t, uint64(7), pub.events[0].UserID)
}

func TestCreate_StoresImage(t *testing.T) {
	svc, _, disk, _ := newMovies(t)

	m, err := svc.Create(context.Background(), actor, MovieInput{
		Name: "Alien", PublishedDate: "1979", HasPublishedDate: true, Image: upload("poster.JPG", "bytes"),
	})
	require.NoError(t, err)
	require.NotNil(t, m.Image)
	assert.Regexp(t, regexp.MustCompile(`^images/1700000000_[0-9a-f-]{36}\.jpg$`), *m.Image)
	assert.Equal(t, "bytes", disk.files[*m.Image])
}

func TestCreate_UniqueNamesSameSecond(t *testing.T) {
	svc, _, disk, _ := newMovies(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), actor, MovieInput{
			Name: "x", PublishedDate: "1", HasPublishedDate: true, Image: upload("a.png", "p"),
		})
		require.NoError(t, err)
	}
	assert.Len(t, disk.files, 3)
}

func TestCreate_Validation(t *testing.T) {
	svc, store, disk, pub := newMovies(t)
	ctx := context.Background()

	cases := []struct {
		in      MovieInput
		field   string
		message string
	}{
		{MovieInput{PublishedDate: "2010"}, "name", "The name field is required."},
		{MovieInput{Name: "   ", PublishedDate: "2010"}, "name", "The name field is required."},
		{MovieInput{Name: strings.Repeat("a", 256), PublishedDate: "2010"}, "name", "The name field must not be greater than 255 characters."},
		{MovieInput{Name: "x"}, "published_date", "The published date field is required."},
		{MovieInput{Name: "x", PublishedDate: "2010-07-16"}, "published_date", "The published date field must be an integer."},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, actor, tc.in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tc.message)
		assert.Equal(t, []string{tc.message}, verr.Errors[tc.field])
	}

	// 255 multi-byte characters are fine
	_, err := svc.Create(ctx, actor, MovieInput{Name: strings.Repeat("é", 255), PublishedDate: "1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, MovieInput{Image: upload("a.jpg", "x")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The name field is required. (and 1 more error)", verr.Error())
	assert.Len(t, store.rows, 1)
	assert.Empty(t, disk.files, "nothing is stored for invalid input")
	assert.Len(t, pub.events, 1)
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc, _, _, _ := newMovies(t)
	_, err := svc.Create(context.Background(), nil, MovieInput{Name: "x", PublishedDate: "1"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreate_PublishFailureIgnored(t *testing.T) {
	svc, store, _, pub := newMovies(t)
	pub.err = errBoom

	_, err := svc.Create(context.Background(), actor, MovieInput{Name: "x", PublishedDate: "1"})
	require.NoError(t, err)
	assert.Len(t, store.rows, 1)
}

func TestCreate_StorageFailure(t *testing.T) {
	svc, store, disk, _ := newMovies(t)
	disk.err = errBoom

	_, err := svc.Create(context.Background(), actor, MovieInput{Name: "x", PublishedDate: "1", Image: upload("a.jpg", "x")})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, store.rows)
}

func TestListAndGet(t *testing.T) {
	svc, _, _, _ := newMovies(t)
	ctx := context.Background()

	list, err := svc.List(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := svc.Create(ctx, actor, MovieInput{Name: "Heat", PublishedDate: "1995"})
	require.NoError(t, err)

	list, err = svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Heat", list[0].Name)
	assert.Equal(t, int64(1995), list[0].PublishedDate)

	got, err := svc.Get(ctx, actor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, actor, 999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestList_StoreFailure(t *testing.T) {
	svc, store, _, _ := newMovies(t)
	store.err = errBoom
	_, err := svc.List(context.Background(), actor)
	assert.ErrorIs(t, err, errBoom)
}

func TestUpdate_PreservesImageAndDate(t *testing.T) {
	svc, _, _, pub := newMovies(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, actor, MovieInput{Name: "Alien", PublishedDate: "1979", Image: upload("a.jpg", "x")})
	require.NoError(t, err)
	oldImage := *created.Image

	updated, err := svc.Update(ctx, actor, created.ID, MovieInput{Name: "Aliens"})
	require.NoError(t, err)
	assert.Equal(t, "Aliens", updated.Name)
	assert.Equal(t, int64(1979), updated.PublishedDate)
	require.NotNil(t, updated.Image)
	assert.Equal(t, oldImage, *updated.Image)

	assert.Equal(t, queue.MovieUpdated, pub.events[len(pub.events)-1].Type)
}

func TestUpdate_ReplacesImageAndDate(t *testing.T) {
	svc, _, disk, _ := newMovies(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, actor, MovieInput{Name: "Alien", PublishedDate: "1979", Image: upload("a.jpg", "old")})
	require.NoError(t, err)
	oldImage := *created.Image

	updated, err := svc.Update(ctx, actor, created.ID, MovieInput{
		Name: "Alien", PublishedDate: "1986", HasPublishedDate: true, Image: upload("b.png", "new"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1986), updated.PublishedDate)
	assert.NotEqual(t, oldImage, *updated.Image)
	assert.Equal(t, "old", disk.files[oldImage], "replaced file is kept")
	assert.Equal(t, "new", disk.files[*updated.Image])
}

func TestUpdate_Validation(t *testing.T) {
	svc, _, _, _ := newMovies(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, actor, MovieInput{Name: "Alien", PublishedDate: "1979"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, actor, created.ID, MovieInput{PublishedDate: "1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "name")
	assert.NotContains(t, verr.Errors, "published_date")

	_, err = svc.Update(ctx, actor, created.ID, MovieInput{Name: "x", PublishedDate: "", HasPublishedDate: true})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The published date field is required."}, verr.Errors["published_date"])

	_, err = svc.Update(ctx, actor, created.ID, MovieInput{Name: "x", PublishedDate: "soon", HasPublishedDate: true})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The published date field must be an integer."}, verr.Errors["published_date"])
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, disk, _ := newMovies(t)
	_, err := svc.Update(context.Background(), actor, 42, MovieInput{Name: "x", Image: upload("a.jpg", "x")})
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Empty(t, disk.files)
}

func TestUpdate_NotFoundBeforeValidation(t *testing.T) {
	svc, store, _, _ := newMovies(t)
	_, err := svc.Update(context.Background(), actor, 42, MovieInput{PublishedDate: "soon", HasPublishedDate: true})
	assert.ErrorIs(t, err, ErrMovieNotFound)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Empty(t, store.rows)
}

func TestDelete(t *testing.T) {
	svc, store, disk, pub := newMovies(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, actor, MovieInput{Name: "x", PublishedDate: "1", Image: upload("a.jpg", "x")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, actor, created.ID))
	assert.Empty(t, store.rows)
	assert.Len(t, disk.files, 1, "image stays on disk")
	assert.Equal(t, queue.MovieDeleted, pub.events[len(pub.events)-1].Type)

	assert.ErrorIs(t, svc.Delete(ctx, actor, created.ID), ErrMovieNotFound)

	store.err = errBoom
	err = svc.Delete(ctx, actor, 1)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrMovieNotFound)
}
