package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"daily-goals-backend/internal/db"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotGuest           = errors.New("account is not a guest")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLen = 6

type User struct {
	ID        int       `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return errors.New("email & password required")
	}
	if !strings.Contains(email, "@") {
		return errors.New("invalid email")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password should be at least %d characters", minPasswordLen)
	}
	return nil
}

// CreateUser stores a new e-mail account with a bcrypt hash of password.
// The UNIQUE constraint on email decides who wins concurrent sign-ups.
func CreateUser(ctx context.Context, dbx *sql.DB, email, password string) (int, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var id int
	err = dbx.QueryRowContext(ctx, `
		INSERT INTO users (email, password, is_guest, created_at)
		VALUES ($1, $2, FALSE, $3)
		RETURNING id
	`, email, string(hash), time.Now().UTC()).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// CreateGuest stores an anonymous account without credentials.
func CreateGuest(ctx context.Context, dbx *sql.DB) (int, error) {
	var id int
	err := dbx.QueryRowContext(ctx, `
		INSERT INTO users (is_guest, created_at)
		VALUES (TRUE, $1)
		RETURNING id
	`, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert guest: %w", err)
	}
	return id, nil
}

// Authenticate returns the id of the account matching email and password.
func Authenticate(ctx context.Context, dbx *sql.DB, email, password string) (int, error) {
	var (
		id   int
		hash sql.NullString
	)
	err := dbx.QueryRowContext(ctx, `
		SELECT id, password FROM users WHERE email=$1
	`, normalizeEmail(email)).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}

	if !hash.Valid || bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(password)) != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}

// LinkGuest turns a guest into an e-mail account. The user id, and with it
// every goal and progress row, stays the same.
func LinkGuest(ctx context.Context, dbx *sql.DB, userID int, email, password string) error {
	email = normalizeEmail(email)

	u, err := GetUser(ctx, dbx, userID)
	if err != nil {
		return err
	}
	if !u.IsGuest {
		return ErrNotGuest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	res, err := dbx.ExecContext(ctx, `
		UPDATE users
		SET email=$1, password=$2, is_guest=FALSE
		WHERE id=$3 AND is_guest=TRUE
	`, email, string(hash), userID)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("link guest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotGuest
	}
	return nil
}

func GetUser(ctx context.Context, dbx *sql.DB, userID int) (User, error) {
	var (
		u     User
		email sql.NullString
	)
	err := dbx.QueryRowContext(ctx, `
		SELECT id, email, is_guest, created_at FROM users WHERE id=$1
	`, userID).Scan(&u.ID, &email, &u.IsGuest, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Email = email.String
	return u, nil
}

// DeleteUser removes the account and everything it owns in one transaction.
func DeleteUser(ctx context.Context, dbx *sql.DB, userID int) error {
	tx, err := dbx.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		name  string
		query string
	}{
		{"analytics_events", `DELETE FROM analytics_events WHERE user_id = $1`},
		{"daily_progress", `DELETE FROM daily_progress WHERE user_id = $1`},
		{"goals", `DELETE FROM goals WHERE user_id = $1`},
		{"users", `DELETE FROM users WHERE id = $1`},
	}
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, s.query, userID); err != nil {
			return fmt.Errorf("delete %s: %w", s.name, err)
		}
	}

	return tx.Commit()
}
