package comment

import (
	"context"
	"time"
)

type Author struct {
	UserID          string `json:"userId"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type Comment struct {
	ID        string     `json:"commentId"`
	PostID    string     `json:"postId"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Repository reads and edits comments. Creating and deleting them moves the
// post's comment_count and lives in the engagement package.
type Repository interface {
	GetByID(ctx context.Context, postID, commentID string) (*Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
	UpdateContent(ctx context.Context, commentID, content string) error
}
