package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movies-api/internal/service"
)

func TestLogin_JSON(t *testing.T) {
	auth := &stubAuth{}
	e := newTestServer(auth, &stubMovies{}, false)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.com","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(e, req, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "plain-token", user["token"])
	assert.Equal(t, "a@b.com", user["email"])
	assert.EqualValues(t, 1, user["id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.Equal(t, "secret", auth.lastLogin.Password)
}

func TestLogin_Form(t *testing.T) {
	auth := &stubAuth{}
	e := newTestServer(auth, &stubMovies{}, false)

	form := url.Values{"email": {"a@b.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := do(e, req, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", auth.lastLogin.Email)
}

func TestLogin_ValidationError(t *testing.T) {
	auth := &stubAuth{loginErr: &service.ValidationError{
		Message: "The provided credentials are incorrect.",
		Errors:  map[string][]string{"email": {"The provided credentials are incorrect."}},
	}}
	e := newTestServer(auth, &stubMovies{}, false)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(e, req, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"message":"The provided credentials are incorrect.","errors":{"email":["The provided credentials are incorrect."]}}`, rec.Body.String())
}

func TestLogin_MalformedBodyReachesValidation(t *testing.T) {
	auth := &stubAuth{}
	e := newTestServer(auth, &stubMovies{}, false)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	do(e, req, "")
	assert.Empty(t, auth.lastLogin.Email)
}

func TestLogin_InternalError(t *testing.T) {
	auth := &stubAuth{loginErr: errors.New("dial tcp: refused")}

	rec := do(newTestServer(auth, &stubMovies{}, false), jsonLogin(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, rec.Body.String())

	rec = do(newTestServer(auth, &stubMovies{}, true), jsonLogin(), "")
	assert.JSONEq(t, `{"message":"dial tcp: refused"}`, rec.Body.String())
}

func jsonLogin() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.com","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestLogout(t *testing.T) {
	auth := &stubAuth{}
	e := newTestServer(auth, &stubMovies{}, false)

	rec := do(e, httptest.NewRequest(http.MethodPost, "/logout", nil), goodToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully."}`, rec.Body.String())
	require.Len(t, auth.loggedOut, 1)
	assert.Equal(t, uint64(3), auth.loggedOut[0].TokenID)

	rec = do(e, httptest.NewRequest(http.MethodPost, "/logout", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, rec.Body.String())
}

func TestCheckAuth(t *testing.T) {
	e := newTestServer(&stubAuth{}, &stubMovies{}, false)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/checkAuth", nil), goodToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "Jane", body["user"].(map[string]any)["name"])

	for _, tok := range []string{"", "revoked"} {
		rec = do(e, httptest.NewRequest(http.MethodGet, "/checkAuth", nil), tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	}
}
