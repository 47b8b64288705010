package model

import "time"

// User represents an application user record as stored in the `users`
// table.  The json tags are omitted because these structs are used by the
// repository and service layers; handlers define response types that never
// carry the password hash.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password (bcrypt)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// AccessToken models a row in `personal_access_tokens`.  Only the SHA-256
// hex digest of the plaintext token is persisted.  A token is valid for as
// long as its row exists; logging out deletes the row.
type AccessToken struct {
	ID         uint64     // personal_access_tokens.id
	UserID     uint64     // personal_access_tokens.user_id
	Name       string     // personal_access_tokens.name
	TokenHash  string     // personal_access_tokens.token
	LastUsedAt *time.Time // personal_access_tokens.last_used_at (nullable)
	CreatedAt  time.Time  // personal_access_tokens.created_at
	UpdatedAt  time.Time  // personal_access_tokens.updated_at
}
