package comment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
)

const selectComment = `SELECT c.comment_id, c.post_id, c.content, c.created_at, c.updated_at,
	c.user_id, COALESCE(u.nickname, ''), u.profile_image_url
FROM comments c LEFT JOIN users u ON u.user_id = c.user_id`

type MySQLRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db, Now: time.Now}
}

// GetByID finds a live comment under postID. A comment of another post is
// reported as not found.
func (r *MySQLRepo) GetByID(ctx context.Context, postID, commentID string) (*Comment, error) {
	row := r.DB.QueryRowContext(ctx,
		selectComment+" WHERE c.comment_id = ? AND c.post_id = ? AND c.deleted_at IS NULL", commentID, postID)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrCommentNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return c, nil
}

// ListByPost returns the live comments of a post, newest first.
func (r *MySQLRepo) ListByPost(ctx context.Context, postID string) ([]*Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		selectComment+" WHERE c.post_id = ? AND c.deleted_at IS NULL ORDER BY c.created_at DESC, c.comment_id DESC", postID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, apperr.Unavailable(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable(err)
	}
	return comments, nil
}

func (r *MySQLRepo) UpdateContent(ctx context.Context, commentID, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content = ?, updated_at = ? WHERE comment_id = ? AND deleted_at IS NULL",
		content, sqldb.Millis(r.Now()), commentID,
	)
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
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanComment reads one row shaped like selectComment.
func scanComment(s scanner) (*Comment, error) {
	var (
		c         Comment
		avatar    sql.NullString
		createdAt int64
		updatedAt sql.NullInt64
	)
	err := s.Scan(&c.ID, &c.PostID, &c.Content, &createdAt, &updatedAt,
		&c.Author.UserID, &c.Author.Nickname, &avatar)
	if err != nil {
		return nil, err
	}
	c.Author.ProfileImageURL = avatar.String
	c.CreatedAt = sqldb.FromMillis(createdAt)
	c.UpdatedAt = sqldb.FromNullMillis(updatedAt)
	return &c, nil
}
