package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
)

var upsertQueries = map[sqldb.Dialect]string{
	sqldb.MySQL: `
		INSERT INTO sessions (session_key, user_id, data, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			user_id = VALUES(user_id),
			data = VALUES(data),
			expires_at = VALUES(expires_at),
			updated_at = VALUES(updated_at)
	`,
	sqldb.SQLite: `
		INSERT INTO sessions (session_key, user_id, data, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE SET
			user_id = excluded.user_id,
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`,
}

// MySQLStore keeps sessions in the sessions table of the main database, so
// they survive restarts. Expired rows stay invisible until DeleteExpired runs.
type MySQLStore struct {
	DB      *sql.DB
	Dialect sqldb.Dialect
	Now     func() time.Time
}

func NewMySQLStore(db *sql.DB, dialect sqldb.Dialect) *MySQLStore {
	return &MySQLStore{DB: db, Dialect: dialect, Now: time.Now}
}

func (s *MySQLStore) Get(ctx context.Context, token string) (Values, error) {
	var data string
	err := s.DB.QueryRowContext(ctx, `
		SELECT data FROM sessions
		WHERE session_key = ? AND expires_at > ?
	`, token, sqldb.Millis(s.Now())).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Values{}, ErrNotFound
	}
	if err != nil {
		return Values{}, apperr.Unavailable(fmt.Errorf("load session: %w", err))
	}

	var v Values
	if err := json.Unmarshal([]byte(data), &v); err != nil || v.IsZero() {
		return Values{}, ErrNotFound
	}
	return v, nil
}

func (s *MySQLStore) Put(ctx context.Context, token string, values Values, ttl time.Duration) error {
	if values.IsZero() {
		return s.Delete(ctx, token)
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	now := s.Now()
	userID := sql.NullString{String: values.UserID, Valid: values.UserID != ""}
	_, err = s.DB.ExecContext(ctx, upsertQueries[s.Dialect],
		token, userID, string(data), sqldb.Millis(now.Add(ttl)), sqldb.Millis(now), sqldb.Millis(now))
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("save session: %w", err))
	}
	return nil
}

func (s *MySQLStore) Delete(ctx context.Context, token string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, token); err != nil {
		return apperr.Unavailable(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// DeleteExpired removes rows whose expiry has passed and reports how many went.
func (s *MySQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, sqldb.Millis(s.Now()))
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("sweep sessions: %w", err))
	}
	return res.RowsAffected()
}

func (s *MySQLStore) DeleteByUser(ctx context.Context, userID, exceptToken string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND session_key <> ?`, userID, exceptToken)
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("revoke sessions: %w", err))
	}
	return res.RowsAffected()
}
