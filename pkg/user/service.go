package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"communityboard/pkg/apperr"
)

type ServiceInterface interface {
	Register(ctx context.Context, email, password, nickname, profileImageURL string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Get(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, current *User, nickname, profileImageURL string) (*User, error)
	ChangePassword(ctx context.Context, current *User, newPassword string) error
	Withdraw(ctx context.Context, userID string) error
}

type Service struct {
	Repo        Repository
	Credentials CredentialChecker
}

func NewService(repo Repository, credentials CredentialChecker) *Service {
	return &Service{Repo: repo, Credentials: credentials}
}

func (s *Service) Register(ctx context.Context, email, password, nickname, profileImageURL string) (*User, error) {
	_, err := s.Repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("email: %w", apperr.ErrConflict)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	taken, err := s.Repo.NicknameExists(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("nickname: %w", apperr.ErrConflict)
	}

	hashedPassword, err := s.Credentials.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	user := &User{
		ID:              uuid.NewString(),
		Email:           email,
		Password:        hashedPassword,
		Nickname:        nickname,
		ProfileImageURL: profileImageURL,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.Repo.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.Credentials.Compare(user.Password, password); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, current *User, nickname, profileImageURL string) (*User, error) {
	if nickname != current.Nickname {
		taken, err := s.Repo.NicknameExists(ctx, nickname)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("nickname: %w", apperr.ErrConflict)
		}
	}
	return s.Repo.UpdateProfile(ctx, current.ID, nickname, profileImageURL)
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.Repo.FindByID(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, current *User, newPassword string) error {
	hashedPassword, err := s.Credentials.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password error: %w", err)
	}
	return s.Repo.UpdatePassword(ctx, current.ID, hashedPassword)
}

func (s *Service) Withdraw(ctx context.Context, userID string) error {
	return s.Repo.Delete(ctx, userID)
}
