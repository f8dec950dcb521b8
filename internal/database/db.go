// Package database provides database setup, models, and the data access layer (Store)
// for bookmarks, web users and login sessions.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/bookmarkbot/migrations"
)

// connPragmas are applied by the driver to every new connection.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// legacyColumns were added to the bookmarks table after its first release.
// Databases created by older versions get them before migrations run.
var legacyColumns = []struct {
	name string
	decl string
}{
	{"user_id", "INTEGER REFERENCES users (id) ON DELETE CASCADE"},
	{"telegram_user_id", "INTEGER"},
	{"telegram_message_id", "INTEGER"},
	{"comments_url", "TEXT"},
	{"is_read", "INTEGER DEFAULT 0"},
}

// bookmarkTableColumns lists every bookmarks column in table order.
const bookmarkTableColumns = "id, user_id, url, title, description, image_url, domain, saved_at, " +
	"telegram_user_id, telegram_message_id, comments_url, is_read"

// rebuildBookmarksDDL recreates the bookmarks table with per-owner URL
// uniqueness. Keep it in step with migrations/000001_init_schema.up.sql.
var rebuildBookmarksDDL = []string{
	`CREATE TABLE bookmarks_rebuild (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		url TEXT NOT NULL,
		title TEXT,
		description TEXT,
		image_url TEXT,
		domain TEXT,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		telegram_user_id INTEGER,
		telegram_message_id INTEGER,
		comments_url TEXT,
		is_read INTEGER DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (user_id, url)
	)`,
	`INSERT INTO bookmarks_rebuild (` + bookmarkTableColumns + `) SELECT ` + bookmarkTableColumns + ` FROM bookmarks`,
	`DROP TABLE bookmarks`,
	`ALTER TABLE bookmarks_rebuild RENAME TO bookmarks`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookmarks_user_url ON bookmarks (user_id, url)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_saved_at ON bookmarks (user_id, saved_at)`,
}

// NewDB opens the SQLite database at dbPath, brings its schema up to date and
// returns the connection pool. It is safe to call against an existing or
// legacy database any number of times.
func NewDB(dbPath string) (*sqlx.DB, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path is empty")
	}

	db, err := sqlx.Connect("sqlite", buildDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support concurrent writes, so max open conns = 1
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if !isMemory(dbPath) {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx := context.Background()
	if err := reconcileLegacyColumns(ctx, db); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to upgrade legacy schema: %w", err)
	}
	if err := dropLegacyURLUnique(ctx, db); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to upgrade legacy schema: %w", err)
	}

	if err := ApplyMigrations(db.DB); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database connected and migrations applied successfully", "path", dbPath)
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	} else {
		slog.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded schema migrations.
func ApplyMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite database driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	migrateErr := migrator.Up()
	if migrateErr != nil {
		if errors.Is(migrateErr, migrate.ErrNoChange) {
			slog.Debug("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", migrateErr)
	}

	slog.Info("Database migrations applied successfully.")
	return nil
}

// reconcileLegacyColumns adds columns missing from a bookmarks table created
// by an older release. A fresh database has no bookmarks table yet and is left
// to the migrations.
func reconcileLegacyColumns(ctx context.Context, db *sqlx.DB) error {
	var columns []struct {
		Name string `db:"name"`
	}
	if err := db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info('bookmarks')`); err != nil {
		return fmt.Errorf("failed to inspect bookmarks table: %w", err)
	}
	if len(columns) == 0 {
		return nil
	}

	existing := make(map[string]bool, len(columns))
	for _, c := range columns {
		existing[strings.ToLower(c.Name)] = true
	}

	for _, col := range legacyColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE bookmarks ADD COLUMN %s %s", col.name, col.decl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
		slog.Info("Added missing column to legacy bookmarks table", "column", col.name)
	}
	return nil
}

// dropLegacyURLUnique rebuilds a bookmarks table whose url column is unique on
// its own, as created by the first releases. The same URL may belong to
// several owners, so only (user_id, url) stays unique.
func dropLegacyURLUnique(ctx context.Context, db *sqlx.DB) error {
	found, err := hasURLOnlyUnique(ctx, db)
	if err != nil || !found {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bookmarks rebuild: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("Failed to rollback bookmarks rebuild", "error", rbErr)
			}
		}
	}()

	for _, stmt := range rebuildBookmarksDDL {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rebuild bookmarks table: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmarks rebuild: %w", err)
	}

	slog.Info("Rebuilt legacy bookmarks table without url-only unique constraint")
	return nil
}

func hasURLOnlyUnique(ctx context.Context, db *sqlx.DB) (bool, error) {
	var indexes []string
	if err := db.SelectContext(ctx, &indexes,
		`SELECT name FROM pragma_index_list('bookmarks') WHERE "unique" = 1`); err != nil {
		return false, fmt.Errorf("failed to list bookmarks indexes: %w", err)
	}

	for _, idx := range indexes {
		var cols []string
		if err := db.SelectContext(ctx, &cols, `SELECT name FROM pragma_index_info(?)`, idx); err != nil {
			return false, fmt.Errorf("failed to inspect index %s: %w", idx, err)
		}
		if len(cols) == 1 && strings.EqualFold(cols[0], "url") {
			return true, nil
		}
	}
	return false, nil
}

func buildDSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + connPragmas
}

func isMemory(dbPath string) bool {
	return strings.Contains(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

func closeQuietly(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		slog.Error("Error closing database after setup failure", "error", err)
	}
}
