// Package auth turns the session loaded for a request into the acting user.
package auth

import (
	"context"
	"errors"

	"communityboard/pkg/apperr"
	"communityboard/pkg/session"
	"communityboard/pkg/user"
)

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

type Resolver struct {
	Users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{Users: users}
}

// Resolve returns the user behind the request session. A session pointing
// at a deleted user is cleared so the cookie goes away with this response.
func (r *Resolver) Resolve(ctx context.Context) (*user.User, error) {
	sess := session.FromContext(ctx)
	if sess == nil {
		return nil, apperr.ErrUnauthenticated
	}
	userID := sess.Values().UserID
	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}

	u, err := r.Users.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		sess.Clear()
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveOptional is Resolve for routes that also serve anonymous visitors.
// Backend failures are still reported.
func (r *Resolver) ResolveOptional(ctx context.Context) (*user.User, error) {
	u, err := r.Resolve(ctx)
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return nil, nil
	}
	return u, err
}
