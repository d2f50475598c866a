package post_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityboard/internal/sqldb/sqldbtest"
	"communityboard/pkg/apperr"
	"communityboard/pkg/post"
	"communityboard/pkg/user"
)

// tickingClock advances one second per call so creation order is observable.
func tickingClock() func() time.Time {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func setup(t *testing.T) (*sql.DB, *post.MySQLRepo) {
	db := sqldbtest.Open(t)
	users := user.NewMySQLRepo(db)
	require.NoError(t, users.Create(context.Background(), &user.User{
		ID: "u1", Email: "alice@example.com", Password: "x", Nickname: "alice", ProfileImageURL: "/a.png",
	}))
	repo := post.NewMySQLRepo(db)
	repo.Now = tickingClock()
	return db, repo
}

func createPost(t *testing.T, repo *post.MySQLRepo, id string) {
	require.NoError(t, repo.Create(context.Background(), &post.Post{
		ID: id, Title: "title " + id, Content: "content", Author: post.Author{UserID: "u1"},
	}))
}

func TestMySQLRepo_CreateAndGet(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &post.Post{
		ID: "p1", Title: "hello", Content: "world", FileURL: "/f.png", Author: post.Author{UserID: "u1"},
	}))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, "/f.png", got.FileURL)
	assert.Equal(t, post.Author{UserID: "u1", Nickname: "alice", ProfileImageURL: "/a.png"}, got.Author)
	assert.Zero(t, got.LikeCount)
	assert.Zero(t, got.CommentCount)
	assert.Nil(t, got.UpdatedAt)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestMySQLRepo_SoftDeletedIsNotFound(t *testing.T) {
	db, repo := setup(t)
	ctx := context.Background()
	createPost(t, repo, "p1")

	_, err := db.Exec("UPDATE posts SET deleted_at = 1 WHERE post_id = 'p1'")
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	assert.ErrorIs(t, repo.IncrementHits(ctx, "p1"), apperr.ErrPostNotFound)
	assert.ErrorIs(t, repo.Update(ctx, "p1", "t", "c", ""), apperr.ErrPostNotFound)

	posts, total, err := repo.List(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, total)
}

func TestMySQLRepo_List(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		createPost(t, repo, id)
	}

	posts, total, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "p3", posts[0].ID)
	assert.Equal(t, "p2", posts[1].ID)

	posts, _, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestMySQLRepo_UpdateAndHits(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()
	createPost(t, repo, "p1")

	require.NoError(t, repo.Update(ctx, "p1", "new title", "new content", ""))
	require.NoError(t, repo.IncrementHits(ctx, "p1"))
	require.NoError(t, repo.IncrementHits(ctx, "p1"))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, int64(2), got.Hits)
	assert.NotNil(t, got.UpdatedAt)
}

func TestMySQLRepo_LikedBy(t *testing.T) {
	db, repo := setup(t)
	ctx := context.Background()
	createPost(t, repo, "p1")
	createPost(t, repo, "p2")

	_, err := db.Exec("INSERT INTO post_likes (post_id, user_id, created_at) VALUES ('p2', 'u1', 1)")
	require.NoError(t, err)

	liked, err := repo.LikedBy(ctx, "u1", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"p2": true}, liked)

	liked, err = repo.LikedBy(ctx, "", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Empty(t, liked)
}
