package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movies-api/internal/model"
	"github.com/iliyamo/movies-api/internal/repository"
	"github.com/iliyamo/movies-api/internal/utils"
)

// TokenName is stored on every token issued by Login.
const TokenName = "Personal Access Token"

// Session is the authenticated caller, resolved once per request by the
// bearer middleware.
type Session struct {
	User    model.User
	TokenID uint64
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, userID uint64, name, tokenHash string) (*model.AccessToken, error)
	FindByHash(ctx context.Context, tokenHash string) (*model.AccessToken, error)
	TouchLastUsed(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResult pairs the user with the plaintext token.  The token is only
// ever available here; the store keeps its hash.
type LoginResult struct {
	User  model.User
	Token string
}

type CheckAuthResult struct {
	Authenticated bool
	User          *model.User
}

type AuthService struct {
	users  UserStore
	tokens TokenStore
	secret string
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, secret string, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		secret: secret,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the fields first, then the credentials.  Both failure kinds
// come back as *ValidationError.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, credentialsError()
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, credentialsError()
	}

	tok, err := utils.NewPersonalAccessToken(s.secret, u.ID, TokenName)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if _, err := s.tokens.Create(ctx, u.ID, TokenName, tok.Hash); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	s.log.Info("user logged in", zap.Uint64("user_id", u.ID))
	return &LoginResult{User: *u, Token: tok.Token}, nil
}

// Logout revokes the token that authenticated the session.  A token that
// vanished in the meantime counts as revoked.
func (s *AuthService) Logout(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if err := s.tokens.Delete(ctx, sess.TokenID); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) CheckAuth(sess *Session) CheckAuthResult {
	if sess == nil {
		return CheckAuthResult{}
	}
	u := sess.User
	return CheckAuthResult{Authenticated: true, User: &u}
}

// Authenticate resolves a raw bearer token to a session.  Forged tokens are
// rejected on signature alone; otherwise the token row decides.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	uid, err := utils.ParsePersonalAccessToken(s.secret, raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	tok, err := s.tokens.FindByHash(ctx, utils.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	if tok.UserID != uid {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load token owner: %w", err)
	}

	if err := s.tokens.TouchLastUsed(ctx, tok.ID, s.now()); err != nil {
		s.log.Warn("touch token last_used_at", zap.Uint64("token_id", tok.ID), zap.Error(err))
	}
	return &Session{User: *u, TokenID: tok.ID}, nil
}
