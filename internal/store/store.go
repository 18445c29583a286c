// Package store persists users, session tokens, RICEFW tickets and JIRA configurations in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already exists")
)

// User is a registered account.
type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    string
	JiraToken       string
	AtlassianDomain string
	SessionToken    string
	TokenExpiry     time.Time // zero without a session
	LastLogin       time.Time // zero before the first login
	Active          bool
	CreatedAt       time.Time
}

// Store is a SQLite backed user repository. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies pending migrations.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close() // nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, username, email, password_hash, jira_token, atlassian_domain,
	session_token, token_expiry, last_login, active, created_at`

// CreateUser inserts u and sets its ID.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, jira_token, atlassian_domain, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.JiraToken, u.AtlassianDomain, u.Active, u.CreatedAt.Unix(),
	)
	if err != nil {
		return conflictError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read user id: %w", err)
	}
	u.ID = id
	return nil
}

// ExistsByUsername reports whether username is registered.
func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username", username)
}

// ExistsByEmail reports whether email is registered.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email", email)
}

func (s *Store) exists(ctx context.Context, column, value string) (bool, error) {
	var n int
	// column is one of two constants above.
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE "+column+" = ?", value).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return n > 0, nil
}

// FindActiveByUsername returns an active user by username.
func (s *Store) FindActiveByUsername(ctx context.Context, username string) (User, error) {
	return s.findOne(ctx, "WHERE username = ? AND active = 1", username)
}

// FindByValidToken returns the active user holding token if it has not expired at now.
func (s *Store) FindByValidToken(ctx context.Context, token string, now time.Time) (User, error) {
	if token == "" {
		return User{}, ErrNotFound
	}
	return s.findOne(ctx, "WHERE session_token = ? AND token_expiry > ? AND active = 1", token, now.Unix())
}

// StartSession stores a new session token and records the login time.
func (s *Store) StartSession(ctx context.Context, userID int64, token string, expiry, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET session_token = ?, token_expiry = ?, last_login = ? WHERE id = ?",
		token, expiry.Unix(), now.Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return requireRow(res)
}

// EndSession clears token. It returns ErrNotFound when no user holds it.
func (s *Store) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET session_token = NULL, token_expiry = NULL WHERE session_token = ?", token)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(res)
}

// UpdateAtlassianDomain remembers the last searched Atlassian site of a user.
func (s *Store) UpdateAtlassianDomain(ctx context.Context, userID int64, domain string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET atlassian_domain = ? WHERE id = ?", domain, userID)
	if err != nil {
		return fmt.Errorf("update atlassian domain: %w", err)
	}
	return requireRow(res)
}

// PurgeExpiredSessions clears tokens that expired at or before now and returns how many.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET session_token = NULL, token_expiry = NULL WHERE session_token IS NOT NULL AND token_expiry <= ?",
		now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

func (s *Store) findOne(ctx context.Context, where string, args ...any) (User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users "+where, args...)

	var (
		u                 User
		token             sql.NullString
		expiry, lastLogin sql.NullInt64
		createdAt         int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.JiraToken, &u.AtlassianDomain,
		&token, &expiry, &lastLogin, &u.Active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}

	u.SessionToken = token.String
	u.TokenExpiry = unixOrZero(expiry)
	u.LastLogin = unixOrZero(lastLogin)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

func unixOrZero(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0).UTC()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// conflictError maps unique constraint violations to sentinel errors.
func conflictError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrUsernameTaken
	case strings.Contains(msg, "users.email"):
		return ErrEmailTaken
	default:
		return fmt.Errorf("create user: %w", err)
	}
}
