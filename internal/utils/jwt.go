package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformedToken is returned for tokens that fail signature or claim
// checks.  Callers treat it the same as a revoked token.
var ErrMalformedToken = errors.New("malformed access token")

// PersonalAccessClaims are carried by every personal access token.  There is
// no exp claim: a token lives until its database row is deleted.
type PersonalAccessClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// PlainTextToken is a freshly issued token.  Token is shown to the client
// exactly once; only Hash is persisted.
type PlainTextToken struct {
	Token string
	Hash  string
}

// NewPersonalAccessToken signs an HS256 JWT for the user.  The random jti
// makes every token unique even when two are issued in the same second.
func NewPersonalAccessToken(secret string, userID uint64, name string) (PlainTextToken, error) {
	claims := PersonalAccessClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(userID, 10),
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return PlainTextToken{}, err
	}
	return PlainTextToken{Token: signed, Hash: HashToken(signed)}, nil
}

// ParsePersonalAccessToken verifies the signature and returns the user ID
// from the sub claim.  It does not consult the database, so a valid result
// only means the token was issued by this server at some point.
func ParsePersonalAccessToken(secret, raw string) (uint64, error) {
	var claims PersonalAccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return 0, ErrMalformedToken
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return 0, ErrMalformedToken
	}
	return uid, nil
}

// HashToken returns the SHA-256 hex digest stored in personal_access_tokens.token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
