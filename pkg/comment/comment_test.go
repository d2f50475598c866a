package comment_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityboard/internal/sqldb/sqldbtest"
	"communityboard/pkg/apperr"
	"communityboard/pkg/comment"
	"communityboard/pkg/post"
	"communityboard/pkg/user"
)

func setup(t *testing.T) (*sql.DB, *comment.CommentService) {
	db := sqldbtest.Open(t)
	ctx := context.Background()

	users := user.NewMySQLRepo(db)
	require.NoError(t, users.Create(ctx, &user.User{ID: "u1", Email: "a@example.com", Password: "x", Nickname: "alice"}))
	require.NoError(t, users.Create(ctx, &user.User{ID: "u2", Email: "b@example.com", Password: "x", Nickname: "bob"}))

	posts := post.NewMySQLRepo(db)
	require.NoError(t, posts.Create(ctx, &post.Post{ID: "p1", Title: "t", Content: "c", Author: post.Author{UserID: "u1"}}))
	require.NoError(t, posts.Create(ctx, &post.Post{ID: "p2", Title: "t", Content: "c", Author: post.Author{UserID: "u1"}}))

	for i, c := range []struct{ id, postID, userID string }{
		{"c1", "p1", "u1"},
		{"c2", "p1", "u2"},
		{"c3", "p2", "u2"},
	} {
		_, err := db.Exec("INSERT INTO comments (comment_id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
			c.id, c.postID, c.userID, "hello "+c.id, i+1)
		require.NoError(t, err)
	}

	repo := comment.NewMySQLRepo(db)
	repo.Now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return db, comment.NewService(repo, posts)
}

func TestCommentService_List(t *testing.T) {
	db, svc := setup(t)
	ctx := context.Background()

	comments, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, "bob", comments[0].Author.Nickname)
	assert.Equal(t, "c1", comments[1].ID)

	_, err = db.Exec("UPDATE comments SET deleted_at = 10 WHERE comment_id = 'c2'")
	require.NoError(t, err)
	comments, err = svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 1)

	_, err = svc.List(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestCommentService_Update(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	t.Run("author edits", func(t *testing.T) {
		c, err := svc.Update(ctx, "p1", "c1", "u1", "  edited  ")
		require.NoError(t, err)
		assert.Equal(t, "edited", c.Content)
		assert.NotNil(t, c.UpdatedAt)
	})

	t.Run("not the author", func(t *testing.T) {
		_, err := svc.Update(ctx, "p1", "c2", "u1", "edited")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("comment of another post", func(t *testing.T) {
		_, err := svc.Update(ctx, "p1", "c3", "u2", "edited")
		assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", "c1", "u1", "edited")
		assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	})

	t.Run("blank", func(t *testing.T) {
		_, err := svc.Update(ctx, "p1", "c1", "u1", " \n ")
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}
