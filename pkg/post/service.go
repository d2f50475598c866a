package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"communityboard/pkg/apperr"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type ServicePost interface {
	Create(ctx context.Context, author Author, title, content, fileURL string) (*Post, error)
	Get(ctx context.Context, id, viewerID string, incHits bool) (*Post, error)
	List(ctx context.Context, viewerID string, offset, limit int) (*Page, error)
	Update(ctx context.Context, id, actorID, title, content, fileURL string) (*Post, error)
}

type PostService struct {
	Repo Repository
}

func NewService(repo Repository) *PostService {
	return &PostService{Repo: repo}
}

func (s *PostService) Create(ctx context.Context, author Author, title, content, fileURL string) (*Post, error) {
	title, content, err := cleanText(title, content)
	if err != nil {
		return nil, err
	}
	post := &Post{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		FileURL: fileURL,
		Author:  author,
	}
	if err := s.Repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns a live post. With incHits the view is counted before the read
// so the returned hits include it.
func (s *PostService) Get(ctx context.Context, id, viewerID string, incHits bool) (*Post, error) {
	if incHits {
		if err := s.Repo.IncrementHits(ctx, id); err != nil {
			return nil, err
		}
	}
	post, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.markLiked(ctx, viewerID, []*Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, viewerID string, offset, limit int) (*Page, error) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	posts, total, err := s.Repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if err := s.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &Page{Posts: posts, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *PostService) Update(ctx context.Context, id, actorID, title, content, fileURL string) (*Post, error) {
	title, content, err := cleanText(title, content)
	if err != nil {
		return nil, err
	}

	post, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Author.UserID != actorID {
		return nil, fmt.Errorf("only the author can edit a post: %w", apperr.ErrForbidden)
	}

	if err := s.Repo.Update(ctx, id, title, content, fileURL); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, actorID, false)
}

func (s *PostService) markLiked(ctx context.Context, viewerID string, posts []*Post) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.Repo.LikedBy(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Liked = liked[p.ID]
	}
	return nil
}

func cleanText(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", "", fmt.Errorf("title and content must not be blank: %w", apperr.ErrInvalidInput)
	}
	return title, content, nil
}
