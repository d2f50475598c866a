// Package sqldbtest opens throwaway SQLite databases carrying the production schema.
package sqldbtest

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"communityboard/internal/sqldb"
)

// Open returns a migrated in-memory database closed at test cleanup.
// The pool is pinned to one connection: every new connection to ":memory:"
// would otherwise see an empty database.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqldb.Migrate(context.Background(), db, sqldb.SQLite))
	return db
}
