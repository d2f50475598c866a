package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Values is the identity payload of a session. The zero value means
// "no session" and is never persisted.
type Values struct {
	UserID          string `json:"userId"`
	Email           string `json:"email,omitempty"`
	Nickname        string `json:"nickname,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

func (v Values) IsZero() bool {
	return v == Values{}
}

// Store persists session values under an opaque token.
//
// Get returns ErrNotFound for unknown and expired tokens alike. Any other
// error means the backend could not answer and must not be read as a logout.
type Store interface {
	Get(ctx context.Context, token string) (Values, error)
	Put(ctx context.Context, token string, values Values, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// UserDeleter is implemented by stores that can find every session of a user.
// DeleteByUser removes them all except exceptToken and reports how many went.
type UserDeleter interface {
	DeleteByUser(ctx context.Context, userID, exceptToken string) (int64, error)
}

// Session is the request-scoped view handed to handlers. It is not safe for
// concurrent use; it lives for a single request.
type Session struct {
	token    string
	snapshot Values
	values   Values
	stale    bool
}

// New returns a session holding values that is not backed by a token.
func New(values Values) *Session {
	return &Session{snapshot: values, values: values}
}

func (s *Session) Values() Values {
	return s.values
}

// Set replaces the values wholesale.
func (s *Session) Set(values Values) {
	s.values = values
}

// Clear drops every value; the stored record is deleted at the end of the request.
func (s *Session) Clear() {
	s.values = Values{}
}

func (s *Session) Changed() bool {
	return s.values != s.snapshot
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns nil when the session middleware did not run.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
