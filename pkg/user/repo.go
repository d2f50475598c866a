package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
)

const selectUser = `SELECT user_id, email, password, nickname, profile_image_url, created_at, updated_at FROM users`

type MySQLRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db, Now: time.Now}
}

func (r *MySQLRepo) Create(ctx context.Context, user *User) error {
	user.CreatedAt = sqldb.FromMillis(sqldb.Millis(r.Now()))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_id, email, password, nickname, profile_image_url, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.Password, user.Nickname, nullString(user.ProfileImageURL), sqldb.Millis(user.CreatedAt),
	)
	if sqldb.IsDuplicate(err) {
		return fmt.Errorf("user: %w", apperr.ErrConflict)
	}
	if err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

func (r *MySQLRepo) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, selectUser+" WHERE user_id = ?", id)
}

func (r *MySQLRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, selectUser+" WHERE email = ?", email)
}

func (r *MySQLRepo) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE nickname = ?", nickname).Scan(&n); err != nil {
		return false, apperr.Unavailable(err)
	}
	return n > 0, nil
}

func (r *MySQLRepo) UpdateProfile(ctx context.Context, id, nickname, profileImageURL string) (*User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET nickname = ?, profile_image_url = ?, updated_at = ? WHERE user_id = ?",
		nickname, nullString(profileImageURL), sqldb.Millis(r.Now()), id,
	)
	if sqldb.IsDuplicate(err) {
		return nil, fmt.Errorf("nickname: %w", apperr.ErrConflict)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MySQLRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password = ?, updated_at = ? WHERE user_id = ?",
		passwordHash, sqldb.Millis(r.Now()), id,
	)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *MySQLRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", id)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *MySQLRepo) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u         User
		image     sql.NullString
		createdAt int64
		updatedAt sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Password, &u.Nickname, &image, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	u.ProfileImageURL = image.String
	u.CreatedAt = sqldb.FromMillis(createdAt)
	u.UpdatedAt = sqldb.FromNullMillis(updatedAt)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
