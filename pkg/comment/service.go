package comment

import (
	"context"
	"fmt"
	"strings"

	"communityboard/pkg/apperr"
	"communityboard/pkg/post"
)

type PostGetter interface {
	GetByID(ctx context.Context, id string) (*post.Post, error)
}

type ServiceComment interface {
	List(ctx context.Context, postID string) ([]*Comment, error)
	Update(ctx context.Context, postID, commentID, actorID, content string) (*Comment, error)
}

type CommentService struct {
	Repo  Repository
	Posts PostGetter
}

func NewService(repo Repository, posts PostGetter) *CommentService {
	return &CommentService{Repo: repo, Posts: posts}
}

func (s *CommentService) List(ctx context.Context, postID string) ([]*Comment, error) {
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.Repo.ListByPost(ctx, postID)
}

func (s *CommentService) Update(ctx context.Context, postID, commentID, actorID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment must not be blank: %w", apperr.ErrInvalidInput)
	}

	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	c, err := s.Repo.GetByID(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if c.Author.UserID != actorID {
		return nil, fmt.Errorf("only the author can edit a comment: %w", apperr.ErrForbidden)
	}

	if err := s.Repo.UpdateContent(ctx, commentID, content); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, postID, commentID)
}
