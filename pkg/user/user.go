package user

import (
	"context"
	"time"
)

type User struct {
	ID              string     `json:"userId"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	Nickname        string     `json:"nickname"`
	ProfileImageURL string     `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	UpdateProfile(ctx context.Context, id, nickname, profileImageURL string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
