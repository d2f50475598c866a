package post

import (
	"context"
	"time"
)

type Author struct {
	UserID          string `json:"userId"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Post is a board entry. LikeCount and CommentCount are cached aggregates
// owned by the engagement package; this package only reads them.
type Post struct {
	ID           string     `json:"postId"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	FileURL      string     `json:"fileUrl,omitempty"`
	Hits         int64      `json:"hits"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	Liked        bool       `json:"liked"`
	Author       Author     `json:"author"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type Page struct {
	Posts  []*Post `json:"posts"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

type Repository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, offset, limit int) ([]*Post, int, error)
	Update(ctx context.Context, id, title, content, fileURL string) error
	IncrementHits(ctx context.Context, id string) error
	LikedBy(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}
