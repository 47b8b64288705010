// Package service implements the auth and movie use cases.  Operations take
// the caller's *Session explicitly and return typed errors; the HTTP layer
// decides which status each error maps to.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the bearer token is missing, malformed,
	// unknown or revoked.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMovieNotFound is returned by Get, Update and Delete for unknown ids.
	ErrMovieNotFound = errors.New("movie not found")
)

// ValidationError carries field keyed messages.  Errors uses the request
// field names ("name", "published_date") as keys.
type ValidationError struct {
	Message string
	Errors  map[string][]string
}

func (e *ValidationError) Error() string { return e.Message }

// newValidationError summarizes errs as the first message in field order
// followed by "(and N more error[s])" when there are others.
func newValidationError(fields []string, errs map[string][]string) *ValidationError {
	var first string
	total := 0
	for _, f := range fields {
		msgs := errs[f]
		if len(msgs) == 0 {
			continue
		}
		if first == "" {
			first = msgs[0]
		}
		total += len(msgs)
	}
	msg := first
	switch rest := total - 1; {
	case rest == 1:
		msg = fmt.Sprintf("%s (and 1 more error)", first)
	case rest > 1:
		msg = fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
	return &ValidationError{Message: msg, Errors: errs}
}

// credentialsError is what Login returns for an unknown email or a wrong
// password.  Both cases look identical to the client.
func credentialsError() *ValidationError {
	return newValidationError([]string{"email"}, map[string][]string{
		"email": {"The provided credentials are incorrect."},
	})
}
