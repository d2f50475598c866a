// Package engagement owns every write that moves a cached post counter.
//
// like_count is recomputed with COUNT(*) from post_likes on each toggle.
// comment_count moves by a delta in the same transaction as the comment row
// it accounts for. Both run with the post row locked, so a missing or
// deleted post fails the whole operation without partial writes.
package engagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
	"communityboard/pkg/comment"
)

type Like struct {
	PostID    string `json:"postId"`
	LikeCount int64  `json:"likeCount"`
	Liked     bool   `json:"isLiked"`
}

type ServiceEngagement interface {
	ToggleLike(ctx context.Context, postID, userID string) (*Like, error)
	CreateComment(ctx context.Context, postID string, author comment.Author, content string) (*comment.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID, actorID string) error
	DeletePost(ctx context.Context, postID, actorID string) error
}

type Service struct {
	DB      *sql.DB
	Dialect sqldb.Dialect
	Now     func() time.Time
	NewID   func() string
}

func NewService(db *sql.DB, dialect sqldb.Dialect) *Service {
	return &Service{DB: db, Dialect: dialect, Now: time.Now, NewID: uuid.NewString}
}

// ToggleLike flips the user's like on the post and returns the recounted total.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*Like, error) {
	like := &Like{PostID: postID}
	err := sqldb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.lockPost(ctx, tx, postID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID)
		if err != nil {
			return apperr.Unavailable(err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return apperr.Unavailable(err)
		}
		if removed == 0 {
			_, err := tx.ExecContext(ctx, "INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)",
				postID, userID, sqldb.Millis(s.Now()))
			if err != nil && !sqldb.IsDuplicate(err) {
				return apperr.Unavailable(err)
			}
			like.Liked = true
		}

		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM post_likes WHERE post_id = ?", postID).Scan(&like.LikeCount); err != nil {
			return apperr.Unavailable(err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE posts SET like_count = ? WHERE post_id = ?", like.LikeCount, postID); err != nil {
			return apperr.Unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (s *Service) CreateComment(ctx context.Context, postID string, author comment.Author, content string) (*comment.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment must not be blank: %w", apperr.ErrInvalidInput)
	}

	c := &comment.Comment{
		ID:        s.NewID(),
		PostID:    postID,
		Content:   content,
		Author:    author,
		CreatedAt: sqldb.FromMillis(sqldb.Millis(s.Now())),
	}
	err := sqldb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.lockPost(ctx, tx, postID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO comments (comment_id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.PostID, c.Author.UserID, c.Content, sqldb.Millis(c.CreatedAt))
		if err != nil {
			return apperr.Unavailable(err)
		}
		_, err = applyCommentDelta(ctx, tx, postID, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment soft-deletes a comment of postID written by actorID.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID, actorID string) error {
	return sqldb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.lockPost(ctx, tx, postID); err != nil {
			return err
		}

		var authorID string
		err := tx.QueryRowContext(ctx,
			"SELECT user_id FROM comments WHERE comment_id = ? AND post_id = ? AND deleted_at IS NULL"+s.Dialect.ForUpdate(),
			commentID, postID).Scan(&authorID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrCommentNotFound
		}
		if err != nil {
			return apperr.Unavailable(err)
		}
		if authorID != actorID {
			return fmt.Errorf("only the author can delete a comment: %w", apperr.ErrForbidden)
		}

		res, err := tx.ExecContext(ctx, "UPDATE comments SET deleted_at = ? WHERE comment_id = ? AND deleted_at IS NULL",
			sqldb.Millis(s.Now()), commentID)
		if err != nil {
			return apperr.Unavailable(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Unavailable(err)
		}
		if n == 0 {
			return apperr.ErrCommentNotFound
		}
		_, err = applyCommentDelta(ctx, tx, postID, -1)
		return err
	})
}

// DeletePost soft-deletes the post and every live comment under it.
func (s *Service) DeletePost(ctx context.Context, postID, actorID string) error {
	return sqldb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		authorID, err := s.lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if authorID != actorID {
			return fmt.Errorf("only the author can delete a post: %w", apperr.ErrForbidden)
		}

		now := sqldb.Millis(s.Now())
		res, err := tx.ExecContext(ctx, "UPDATE comments SET deleted_at = ? WHERE post_id = ? AND deleted_at IS NULL", now, postID)
		if err != nil {
			return apperr.Unavailable(err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return apperr.Unavailable(err)
		}
		if removed > 0 {
			if _, err := applyCommentDelta(ctx, tx, postID, -removed); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE posts SET deleted_at = ? WHERE post_id = ?", now, postID); err != nil {
			return apperr.Unavailable(err)
		}
		return nil
	})
}

// Reconcile rewrites the counters of every post whose cached values differ
// from the fact tables and returns how many posts were corrected.
func (s *Service) Reconcile(ctx context.Context) (int64, error) {
	const (
		likes    = "(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = posts.post_id)"
		comments = "(SELECT COUNT(*) FROM comments c WHERE c.post_id = posts.post_id AND c.deleted_at IS NULL)"
	)
	res, err := s.DB.ExecContext(ctx,
		"UPDATE posts SET like_count = "+likes+", comment_count = "+comments+
			" WHERE like_count <> "+likes+" OR comment_count <> "+comments)
	if err != nil {
		return 0, apperr.Unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Unavailable(err)
	}
	return n, nil
}

// lockPost locks a live post row for the rest of tx and returns its author.
func (s *Service) lockPost(ctx context.Context, tx *sql.Tx, postID string) (string, error) {
	var authorID string
	err := tx.QueryRowContext(ctx,
		"SELECT user_id FROM posts WHERE post_id = ? AND deleted_at IS NULL"+s.Dialect.ForUpdate(), postID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrPostNotFound
	}
	if err != nil {
		return "", apperr.Unavailable(err)
	}
	return authorID, nil
}

// applyCommentDelta moves comment_count by delta, flooring at zero, and
// returns the new value.
func applyCommentDelta(ctx context.Context, tx *sql.Tx, postID string, delta int64) (int64, error) {
	_, err := tx.ExecContext(ctx,
		"UPDATE posts SET comment_count = CASE WHEN comment_count + ? < 0 THEN 0 ELSE comment_count + ? END WHERE post_id = ?",
		delta, delta, postID)
	if err != nil {
		return 0, apperr.Unavailable(err)
	}
	var count int64
	if err := tx.QueryRowContext(ctx, "SELECT comment_count FROM posts WHERE post_id = ?", postID).Scan(&count); err != nil {
		return 0, apperr.Unavailable(err)
	}
	return count, nil
}
