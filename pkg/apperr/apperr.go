// Package apperr defines the error kinds shared by the stores, services and
// handlers, and their mapping onto HTTP statuses and envelope codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBadRequest         = errors.New("malformed request")
	ErrConflict           = errors.New("already exists")
	ErrTooManyRequests    = errors.New("too many requests")

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
)

// Unavailable marks a backend failure. The original error stays in the chain.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

type kind struct {
	err    error
	status int
	code   string
}

// more specific kinds come first
var kinds = []kind{
	{ErrStoreUnavailable, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrPostNotFound, http.StatusNotFound, "POST_NOT_FOUND"},
	{ErrCommentNotFound, http.StatusNotFound, "COMMENT_NOT_FOUND"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrInvalidInput, http.StatusUnprocessableEntity, "INVALID_INPUT"},
	{ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{ErrConflict, http.StatusConflict, "ALREADY_EXISTS"},
	{ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUEST"},
}

func lookup(err error) kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k
		}
	}
	return kind{err: err, status: http.StatusInternalServerError, code: "INTERNAL_SERVER_ERROR"}
}

// Status returns the HTTP status for err. Unknown errors are 500.
func Status(err error) int {
	return lookup(err).status
}

// Code returns the envelope code for err.
func Code(err error) string {
	return lookup(err).code
}
