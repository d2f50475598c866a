package post

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
)

const selectPost = `SELECT p.post_id, p.title, p.content, p.post_image_url, p.hits, p.like_count, p.comment_count,
	p.created_at, p.updated_at, p.user_id, COALESCE(u.nickname, ''), u.profile_image_url
FROM posts p LEFT JOIN users u ON u.user_id = p.user_id`

type MySQLRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db, Now: time.Now}
}

func (r *MySQLRepo) Create(ctx context.Context, post *Post) error {
	post.CreatedAt = sqldb.FromMillis(sqldb.Millis(r.Now()))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO posts (post_id, user_id, title, content, post_image_url, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		post.ID, post.Author.UserID, post.Title, post.Content, nullString(post.FileURL), sqldb.Millis(post.CreatedAt),
	)
	if err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// GetByID returns ErrPostNotFound for soft-deleted posts as well.
func (r *MySQLRepo) GetByID(ctx context.Context, id string) (*Post, error) {
	row := r.DB.QueryRowContext(ctx, selectPost+" WHERE p.post_id = ? AND p.deleted_at IS NULL", id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrPostNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return post, nil
}

// List returns one page of live posts, newest first, and the number of live posts.
func (r *MySQLRepo) List(ctx context.Context, offset, limit int) ([]*Post, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE deleted_at IS NULL").Scan(&total); err != nil {
		return nil, 0, apperr.Unavailable(err)
	}

	rows, err := r.DB.QueryContext(ctx,
		selectPost+" WHERE p.deleted_at IS NULL ORDER BY p.created_at DESC, p.post_id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, 0, apperr.Unavailable(err)
	}
	defer rows.Close()

	posts := make([]*Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, apperr.Unavailable(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Unavailable(err)
	}
	return posts, total, nil
}

func (r *MySQLRepo) Update(ctx context.Context, id, title, content, fileURL string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, post_image_url = ?, updated_at = ? WHERE post_id = ? AND deleted_at IS NULL",
		title, content, nullString(fileURL), sqldb.Millis(r.Now()), id,
	)
	if err != nil {
		return apperr.Unavailable(err)
	}
	return notFoundIfNone(res)
}

func (r *MySQLRepo) IncrementHits(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE posts SET hits = hits + 1 WHERE post_id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return apperr.Unavailable(err)
	}
	return notFoundIfNone(res)
}

// LikedBy reports which of postIDs the user currently likes.
func (r *MySQLRepo) LikedBy(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}

	args := make([]any, 0, len(postIDs)+1)
	args = append(args, userID)
	for _, id := range postIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(postIDs)), ", ")

	rows, err := r.DB.QueryContext(ctx,
		"SELECT post_id FROM post_likes WHERE user_id = ? AND post_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Unavailable(err)
		}
		liked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable(err)
	}
	return liked, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*Post, error) {
	var (
		p         Post
		fileURL   sql.NullString
		avatar    sql.NullString
		createdAt int64
		updatedAt sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.Title, &p.Content, &fileURL, &p.Hits, &p.LikeCount, &p.CommentCount,
		&createdAt, &updatedAt, &p.Author.UserID, &p.Author.Nickname, &avatar)
	if err != nil {
		return nil, err
	}
	p.FileURL = fileURL.String
	p.Author.ProfileImageURL = avatar.String
	p.CreatedAt = sqldb.FromMillis(createdAt)
	p.UpdatedAt = sqldb.FromNullMillis(updatedAt)
	return &p, nil
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Unavailable(err)
	}
	if n == 0 {
		return apperr.ErrPostNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
