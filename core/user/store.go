package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
		INSERT INTO users
			(user_id, username, password_hash, first_name, last_name, email, phone, role, active, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := db.ExecContext(ctx, q,
		u.ID, u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.Email, u.Phone, u.Role, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user[%s]: %w", u.Username, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("fetching user[%s]: %w", id, err)
	}

	return u, nil
}

func FetchByUsername(ctx context.Context, db sqlx.ExtContext, username string) (User, error) {
	const q = `SELECT * FROM users WHERE username = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("fetching user[%s]: %w", username, err)
	}

	return u, nil
}

func UsernameExists(ctx context.Context, db sqlx.ExtContext, username string) (bool, error) {
	return exists(ctx, db, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

// EmailExists reports whether another user already holds the email.
func EmailExists(ctx context.Context, db sqlx.ExtContext, email string, excludeID string) (bool, error) {
	return exists(ctx, db, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND email <> '' AND user_id <> $2)`, email, excludeID)
}

// PhoneExists reports whether another user already holds the phone number.
func PhoneExists(ctx context.Context, db sqlx.ExtContext, phone string, excludeID string) (bool, error) {
	return exists(ctx, db, `SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1 AND phone <> '' AND user_id <> $2)`, phone, excludeID)
}

func exists(ctx context.Context, db sqlx.ExtContext, q string, args ...interface{}) (bool, error) {
	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, args...); err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return ok, nil
}

func UpdateProfile(ctx context.Context, db sqlx.ExtContext, id string, firstName, lastName, email, phone string, now time.Time) error {
	const q = `
		UPDATE users SET first_name = $2, last_name = $3, email = $4, phone = $5, updated_at = $6
		WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, firstName, lastName, email, phone, now); err != nil {
		return fmt.Errorf("updating profile[%s]: %w", id, err)
	}

	return nil
}

func UpdatePassword(ctx context.Context, db sqlx.ExtContext, id string, hash string, now time.Time) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, hash, now); err != nil {
		return fmt.Errorf("updating password[%s]: %w", id, err)
	}

	return nil
}
