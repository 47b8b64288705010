package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/utils"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) (*AuthService, *memUsers, *memTokens) {
	t.Helper()
	users := newMemUsers(seededUser(1, "a@b.com", "secret"))
	tokens := newMemTokens()
	return NewAuthService(users, tokens, testSecret, zap.NewNop()), users, tokens
}

func TestLogin_Success(t *testing.T) {
	svc, _, tokens := newAuth(t)

	res, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, uint64(1), res.User.ID)
	require.Len(t, tokens.rows, 1)
	for _, row := range tokens.rows {
		assert.Equal(t, TokenName, row.Name)
		assert.Equal(t, utils.HashToken(res.Token), row.TokenHash)
	}

	sess, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	got := svc.CheckAuth(sess)
	assert.True(t, got.Authenticated)
	assert.Equal(t, "a@b.com", got.User.Email)
}

func TestLogin_ValidationBeforeCredentials(t *testing.T) {
	svc, _, tokens := newAuth(t)

	_, err := svc.Login(context.Background(), LoginInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The email field is required."}, verr.Errors["email"])
	assert.Equal(t, []string{"The password field is required."}, verr.Errors["password"])
	assert.Equal(t, "The email field is required. (and 1 more error)", verr.Error())

	_, err = svc.Login(context.Background(), LoginInput{Email: "not-an-email", Password: "x"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The email field must be a valid email address.", verr.Message)
	assert.Empty(t, tokens.rows)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, tokens := newAuth(t)

	for _, in := range []LoginInput{
		{Email: "a@b.com", Password: "wrong"},
		{Email: "nobody@b.com", Password: "secret"},
	} {
		_, err := svc.Login(context.Background(), in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "The provided credentials are incorrect.", verr.Message)
		assert.Equal(t, []string{"The provided credentials are incorrect."}, verr.Errors["email"])
	}
	assert.Empty(t, tokens.rows)
}

func TestLogin_StoreFailure(t *testing.T) {
	svc, users, _ := newAuth(t)
	users.err = errBoom

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "secret"})
	assert.ErrorIs(t, err, errBoom)
	var verr *ValidationError
	assert.NotErrorAs(t, err, &verr)
}

func TestLogout_RevokesOnlyPresentedToken(t *testing.T) {
	svc, _, tokens := newAuth(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)

	sess, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sess))
	assert.Len(t, tokens.rows, 1)

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	// revoking twice is harmless
	assert.NoError(t, svc.Logout(ctx, sess))
	assert.ErrorIs(t, svc.Logout(ctx, nil), ErrUnauthenticated)
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	forged, err := utils.NewPersonalAccessToken("other-secret", 1, TokenName)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// validly signed but never stored
	unknown, err := utils.NewPersonalAccessToken(testSecret, 1, TokenName)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, unknown.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_TouchesLastUsed(t *testing.T) {
	svc, _, tokens := newAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	sess, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, []uint64{sess.TokenID}, tokens.touched)
	assert.NotNil(t, tokens.rows[sess.TokenID].LastUsedAt)
}

func TestCheckAuth_NoSession(t *testing.T) {
	svc, _, _ := newAuth(t)
	got := svc.CheckAuth(nil)
	assert.False(t, got.Authenticated)
	assert.Nil(t, got.User)
}
