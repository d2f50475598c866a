// Package sqldb holds the pieces shared by every SQL-backed repository: the
// dialect switch between MySQL (production) and SQLite (tests), the schema,
// and the transaction helper the counter updates rely on.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"communityboard/pkg/apperr"
)

type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite3"
)

// ForUpdate returns the row locking suffix for SELECTs inside a transaction.
// SQLite serializes writers on its own and has no such clause.
func (d Dialect) ForUpdate() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	file := "schema/mysql.sql"
	if d == SQLite {
		file = "schema/sqlite.sql"
	}
	query, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	for _, stmt := range strings.Split(string(query), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file, err)
		}
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. Errors returned by fn are passed through untouched.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("begin tx: %w", err))
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, apperr.Unavailable(fmt.Errorf("rollback: %w", rbErr)))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Unavailable(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// IsDuplicate reports a unique key violation. SQLite is matched by message so
// the production binary does not link the cgo driver.
func IsDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Millis is the storage representation of timestamps.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func FromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := FromMillis(ms.Int64)
	return &t
}
