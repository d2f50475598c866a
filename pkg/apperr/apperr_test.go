package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"communityboard/pkg/apperr"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad credentials", apperr.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"forbidden", fmt.Errorf("delete post: %w", apperr.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"post missing", apperr.ErrPostNotFound, http.StatusNotFound, "POST_NOT_FOUND"},
		{"comment missing", fmt.Errorf("x: %w", apperr.ErrCommentNotFound), http.StatusNotFound, "COMMENT_NOT_FOUND"},
		{"generic missing", apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"store down", apperr.Unavailable(errors.New("dial tcp: refused")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"conflict", apperr.ErrConflict, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid", apperr.ErrInvalidInput, http.StatusUnprocessableEntity, "INVALID_INPUT"},
		{"malformed", fmt.Errorf("decode: %w", apperr.ErrBadRequest), http.StatusBadRequest, "BAD_REQUEST"},
		{"throttled", apperr.ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, apperr.Status(tt.err))
			assert.Equal(t, tt.code, apperr.Code(tt.err))
		})
	}
}

func TestNotFoundVariantsUnwrap(t *testing.T) {
	assert.ErrorIs(t, apperr.ErrPostNotFound, apperr.ErrNotFound)
	assert.ErrorIs(t, apperr.ErrUserNotFound, apperr.ErrNotFound)

	wrapped := apperr.Unavailable(errors.New("conn reset"))
	assert.ErrorIs(t, wrapped, apperr.ErrStoreUnavailable)
	assert.Contains(t, wrapped.Error(), "conn reset")
}
