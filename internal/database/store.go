package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Bookmark operations are scoped to an owning user id.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateBookmark inserts a manually added bookmark. It fails with ErrConflict
	// when the owner already saved the URL.
	CreateBookmark(ctx context.Context, ownerID int64, in NewBookmark) (*Bookmark, error)

	// GetBookmark returns one bookmark or ErrNotFound.
	GetBookmark(ctx context.Context, ownerID, id int64) (*Bookmark, error)

	// ListBookmarks returns one page of bookmarks matching opts.
	ListBookmarks(ctx context.Context, ownerID int64, opts ListOptions) ([]Bookmark, error)

	// CountBookmarks counts bookmarks matching opts, ignoring pagination.
	CountBookmarks(ctx context.Context, ownerID int64, opts ListOptions) (int, error)

	// UpdateBookmark applies patch and returns the updated bookmark.
	UpdateBookmark(ctx context.Context, ownerID, id int64, patch BookmarkPatch) (*Bookmark, error)

	// DeleteBookmark removes a bookmark. Deleting a missing bookmark is not an error.
	DeleteBookmark(ctx context.Context, ownerID, id int64) error

	// SetRead updates the read flag and returns the stored state.
	SetRead(ctx context.Context, ownerID, id int64, read bool) (bool, error)

	// UpsertBookmark inserts b or, when its owner already saved the URL,
	// refreshes the stored metadata. b.UserID must be set. On return b holds
	// the persisted row.
	UpsertBookmark(ctx context.Context, b *Bookmark) error

	// AssignOrphanBookmarks moves bookmarks without an owner to ownerID.
	AssignOrphanBookmarks(ctx context.Context, ownerID int64) (int64, error)

	// CreateUser adds a web account with a bcrypt hashed password.
	CreateUser(ctx context.Context, username, password string) (*User, error)

	// GetUserByUsername returns the account or ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Authenticate checks a username and password pair.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// SetPassword replaces the password of an existing account.
	SetPassword(ctx context.Context, username, password string) error

	// FirstUserID returns the lowest user id or ErrNotFound when no user exists.
	FirstUserID(ctx context.Context) (int64, error)

	// CreateSession opens a login session for userID valid for ttl.
	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (*Session, error)

	// SessionUser resolves a live session token to its user id.
	SessionUser(ctx context.Context, token string) (int64, error)

	// DeleteSession ends a session. Unknown tokens are ignored.
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions purges sessions past their expiry.
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// StoreOption configures the store.
type StoreOption func(*sqlxStore)

// WithClock replaces the time source used for saved_at and session expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *sqlxStore) { s.now = now }
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger, opts ...StoreOption) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) clock() time.Time {
	return s.now().UTC()
}

// inTx runs fn inside a transaction. fn's error is returned unchanged so
// sentinel errors survive; the transaction is rolled back unless fn succeeds
// and the commit goes through.
func (s *sqlxStore) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "op", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "op", op, "error", rollbackErr)
				}
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "op", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
