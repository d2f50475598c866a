package post_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"communityboard/pkg/apperr"
	"communityboard/pkg/post"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *post.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*post.Post, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*post.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, offset, limit int) ([]*post.Post, int, error) {
	args := m.Called(ctx, offset, limit)
	if p := args.Get(0); p != nil {
		return p.([]*post.Post), args.Int(1), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *mockRepo) Update(ctx context.Context, id, title, content, fileURL string) error {
	return m.Called(ctx, id, title, content, fileURL).Error(0)
}

func (m *mockRepo) IncrementHits(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) LikedBy(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	args := m.Called(ctx, userID, postIDs)
	if l := args.Get(0); l != nil {
		return l.(map[string]bool), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	author := post.Author{UserID: "u1", Nickname: "alice"}

	t.Run("success", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("Create", ctx, mock.AnythingOfType("*post.Post")).Return(nil)

		p, err := post.NewService(repo).Create(ctx, author, "  title ", "content\n", "")

		require.NoError(t, err)
		assert.Equal(t, "title", p.Title)
		assert.Equal(t, "content", p.Content)
		assert.Equal(t, author, p.Author)
		assert.Len(t, p.ID, 36)
	})

	t.Run("blank title", func(t *testing.T) {
		repo := new(mockRepo)

		_, err := post.NewService(repo).Create(ctx, author, "   ", "content", "")

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("counts the view and marks liked", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("IncrementHits", ctx, "p1").Return(nil)
		repo.On("GetByID", ctx, "p1").Return(&post.Post{ID: "p1", Hits: 1}, nil)
		repo.On("LikedBy", ctx, "u2", []string{"p1"}).Return(map[string]bool{"p1": true}, nil)

		p, err := post.NewService(repo).Get(ctx, "p1", "u2", true)

		require.NoError(t, err)
		assert.True(t, p.Liked)
		repo.AssertExpectations(t)
	})

	t.Run("anonymous viewer", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetByID", ctx, "p1").Return(&post.Post{ID: "p1"}, nil)

		p, err := post.NewService(repo).Get(ctx, "p1", "", false)

		require.NoError(t, err)
		assert.False(t, p.Liked)
		repo.AssertNotCalled(t, "IncrementHits", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "LikedBy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing post", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("IncrementHits", ctx, "gone").Return(apperr.ErrPostNotFound)

		_, err := post.NewService(repo).Get(ctx, "gone", "", true)

		assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		offset, limit int
		wantOffset    int
		wantLimit     int
	}{
		{"defaults", 0, 0, 0, post.DefaultLimit},
		{"negative offset", -5, 20, 0, 20},
		{"limit capped", 10, 1000, 10, post.MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			repo.On("List", ctx, tt.wantOffset, tt.wantLimit).Return([]*post.Post{}, 0, nil)

			page, err := post.NewService(repo).List(ctx, "", tt.offset, tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, tt.wantLimit, page.Limit)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("List", ctx, 0, post.DefaultLimit).Return(nil, 0, apperr.Unavailable(errors.New("db down")))

		_, err := post.NewService(repo).List(ctx, "", 0, 0)

		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	existing := &post.Post{ID: "p1", Author: post.Author{UserID: "u1"}}

	t.Run("author", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetByID", ctx, "p1").Return(existing, nil)
		repo.On("Update", ctx, "p1", "t", "c", "").Return(nil)
		repo.On("LikedBy", ctx, "u1", []string{"p1"}).Return(map[string]bool{}, nil)

		_, err := post.NewService(repo).Update(ctx, "p1", "u1", "t", "c", "")

		assert.NoError(t, err)
		repo.AssertCalled(t, "Update", ctx, "p1", "t", "c", "")
	})

	t.Run("someone else", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetByID", ctx, "p1").Return(existing, nil)

		_, err := post.NewService(repo).Update(ctx, "p1", "u2", "t", "c", "")

		assert.ErrorIs(t, err, apperr.ErrForbidden)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
