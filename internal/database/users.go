package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser stores a new account. The password is hashed with bcrypt.
func (s *sqlxStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES (?, ?)", username, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %q", ErrConflict, username)
		}
		s.logger.ErrorContext(ctx, "Error creating user", "username", username, "error", err)
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted user id: %w", err)
	}

	s.logger.InfoContext(ctx, "User created", "user_id", id, "username", username)
	return &User{ID: id, Username: username, PasswordHash: string(hash)}, nil
}

// GetUserByUsername looks an account up by name.
func (s *sqlxStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT id, username, password_hash FROM users WHERE username = ?", username)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &u, nil
}

// Authenticate returns the account when password matches, and
// ErrInvalidCredentials for an unknown user or a wrong password alike.
func (s *sqlxStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword replaces the stored hash of an existing account.
func (s *sqlxStore) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE username = ?", string(hash), strings.TrimSpace(username))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating password", "username", username, "error", err)
		return fmt.Errorf("failed to update password of %q: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	s.logger.InfoContext(ctx, "Password updated", "username", username)
	return nil
}

// FirstUserID returns the id of the oldest account.
func (s *sqlxStore) FirstUserID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM users ORDER BY id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: no users", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get first user: %w", err)
	}
	return id, nil
}

// CreateSession opens a session with a random token.
func (s *sqlxStore) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: session ttl must be positive", ErrValidation)
	}
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.clock().Add(ttl),
	}
	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, expires_at) VALUES (:session_id, :user_id, :expires_at)", sess)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating session", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// SessionUser returns the user of a session that has not expired yet.
func (s *sqlxStore) SessionUser(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: session", ErrNotFound)
	}
	var userID int64
	err := s.db.GetContext(ctx, &userID,
		"SELECT user_id FROM sessions WHERE session_id = ? AND expires_at > ?", token, s.clock())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: session", ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error resolving session", "error", err)
		return 0, fmt.Errorf("failed to resolve session: %w", err)
	}
	return userID, nil
}

// DeleteSession removes a session token.
func (s *sqlxStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every expired session and returns how many.
func (s *sqlxStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.clock())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error purging expired sessions", "error", err)
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	s.logger.DebugContext(ctx, "Expired sessions purged", "count", n)
	return n, nil
}
