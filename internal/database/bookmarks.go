package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/bookmarkbot/internal/links"
)

const bookmarkColumns = `id, user_id, url, title, description, image_url, domain, saved_at,
	telegram_user_id, telegram_message_id, comments_url, COALESCE(is_read, 0) AS is_read`

const insertBookmarkQuery = `
	INSERT INTO bookmarks (user_id, url, title, description, image_url, domain, saved_at,
		telegram_user_id, telegram_message_id, comments_url, is_read)
	VALUES (:user_id, :url, :title, :description, :image_url, :domain, :saved_at,
		:telegram_user_id, :telegram_message_id, :comments_url, :is_read)`

// The upsert keeps id, saved_at and is_read of an existing row. A missing
// comments link never erases one recorded earlier.
const upsertBookmarkQuery = insertBookmarkQuery + `
	ON CONFLICT (user_id, url) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		image_url = excluded.image_url,
		domain = excluded.domain,
		telegram_user_id = excluded.telegram_user_id,
		telegram_message_id = excluded.telegram_message_id,
		comments_url = COALESCE(excluded.comments_url, bookmarks.comments_url)`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateBookmark inserts a manually added bookmark with the current time and
// an unread state, and returns the persisted row.
func (s *sqlxStore) CreateBookmark(ctx context.Context, ownerID int64, in NewBookmark) (*Bookmark, error) {
	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	b := &Bookmark{
		UserID:            sql.NullInt64{Int64: ownerID, Valid: true},
		URL:               rawURL,
		Title:             nullString(strings.TrimSpace(in.Title)),
		Description:       nullString(strings.TrimSpace(in.Description)),
		ImageURL:          nullString(strings.TrimSpace(in.ImageURL)),
		Domain:            nullString(links.NormalizeDomain(rawURL)),
		SavedAt:           s.clock(),
		TelegramUserID:    in.TelegramUserID,
		TelegramMessageID: in.TelegramMessageID,
		CommentsURL:       nullString(strings.TrimSpace(in.CommentsURL)),
	}

	err := s.inTx(ctx, "create_bookmark", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, insertBookmarkQuery, b)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: url %q is already saved", ErrConflict, rawURL)
			}
			return fmt.Errorf("failed to insert bookmark: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted bookmark id: %w", err)
		}
		return getBookmark(ctx, tx, b, ownerID, id)
	})
	if err != nil {
		s.logWriteError(ctx, "Failed to create bookmark", err, "user_id", ownerID, "url", rawURL)
		return nil, err
	}

	s.logger.DebugContext(ctx, "Bookmark created", "user_id", ownerID, "bookmark_id", b.ID)
	return b, nil
}

// GetBookmark returns the owner's bookmark with the given id.
func (s *sqlxStore) GetBookmark(ctx context.Context, ownerID, id int64) (*Bookmark, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var b Bookmark
	err := getBookmark(ctx, s.db, &b, ownerID, id)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "Bookmark not found", "user_id", ownerID, "bookmark_id", id)
		return nil, err
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching bookmark",
			"bookmark_id", id, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting bookmark", "user_id", ownerID, "bookmark_id", id, "error", err)
		return nil, err
	}
	return &b, nil
}

// ListBookmarks returns a page of the owner's bookmarks ordered by saved_at.
func (s *sqlxStore) ListBookmarks(ctx context.Context, ownerID int64, opts ListOptions) ([]Bookmark, error) {
	where, args, err := s.listPredicate(ownerID, opts)
	if err != nil {
		return nil, err
	}
	if opts.Limit < NoLimit {
		return nil, fmt.Errorf("%w: invalid limit %d", ErrValidation, opts.Limit)
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("%w: invalid offset %d", ErrValidation, opts.Offset)
	}

	direction := "DESC"
	if opts.Sort == SortAsc {
		direction = "ASC"
	}

	// LIMIT -1 is SQLite's "no limit", which is what NoLimit maps to.
	query := "SELECT " + bookmarkColumns + " FROM bookmarks WHERE " + where +
		" ORDER BY saved_at " + direction + ", id " + direction + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	bookmarks := make([]Bookmark, 0)
	if err := s.db.SelectContext(ctx, &bookmarks, query, args...); err != nil {
		if isContextErr(err) {
			s.logger.WarnContext(ctx, "Context timeout or cancellation while listing bookmarks", "error", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error listing bookmarks", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list bookmarks for user %d: %w", ownerID, err)
	}

	s.logger.DebugContext(ctx, "Listed bookmarks", "user_id", ownerID, "count", len(bookmarks))
	return bookmarks, nil
}

// CountBookmarks counts the owner's bookmarks matching the filter, read state
// and search of opts.
func (s *sqlxStore) CountBookmarks(ctx context.Context, ownerID int64, opts ListOptions) (int, error) {
	where, args, err := s.listPredicate(ownerID, opts)
	if err != nil {
		return 0, err
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bookmarks WHERE "+where, args...); err != nil {
		if isContextErr(err) {
			return 0, err
		}
		s.logger.ErrorContext(ctx, "Error counting bookmarks", "user_id", ownerID, "error", err)
		return 0, fmt.Errorf("failed to count bookmarks for user %d: %w", ownerID, err)
	}
	return total, nil
}

// UpdateBookmark applies the patch to the owner's bookmark.
func (s *sqlxStore) UpdateBookmark(ctx context.Context, ownerID, id int64, patch BookmarkPatch) (*Bookmark, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	sets, args, err := patch.assignments()
	if err != nil {
		return nil, err
	}
	query := "UPDATE bookmarks SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, ownerID)

	var b Bookmark
	err = s.inTx(ctx, "update_bookmark", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: url %q is already saved", ErrConflict, *patch.URL)
			}
			return fmt.Errorf("failed to update bookmark %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: bookmark %d", ErrNotFound, id)
		}
		return getBookmark(ctx, tx, &b, ownerID, id)
	})
	if err != nil {
		s.logWriteError(ctx, "Failed to update bookmark", err, "user_id", ownerID, "bookmark_id", id)
		return nil, err
	}

	s.logger.DebugContext(ctx, "Bookmark updated", "user_id", ownerID, "bookmark_id", id, "fields", len(sets))
	return &b, nil
}

// DeleteBookmark removes the owner's bookmark if it exists.
func (s *sqlxStore) DeleteBookmark(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting bookmark", "user_id", ownerID, "bookmark_id", id, "error", err)
		return fmt.Errorf("failed to delete bookmark %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		s.logger.DebugContext(ctx, "Bookmark delete executed", "bookmark_id", id, "deleted", n)
	}
	return nil
}

// SetRead stores the read flag of the owner's bookmark.
func (s *sqlxStore) SetRead(ctx context.Context, ownerID, id int64, read bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE bookmarks SET is_read = ? WHERE id = ? AND user_id = ?", read, id, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating read state", "bookmark_id", id, "error", err)
		return false, fmt.Errorf("failed to update read state of bookmark %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("%w: bookmark %d", ErrNotFound, id)
	}
	return read, nil
}

// UpsertBookmark inserts or refreshes a bookmark produced by ingestion.
func (s *sqlxStore) UpsertBookmark(ctx context.Context, b *Bookmark) error {
	if b == nil {
		return fmt.Errorf("%w: cannot save nil bookmark", ErrValidation)
	}
	b.URL = strings.TrimSpace(b.URL)
	if b.URL == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !b.UserID.Valid || b.UserID.Int64 <= 0 {
		return fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if !b.Domain.Valid {
		b.Domain = nullString(links.NormalizeDomain(b.URL))
	}
	if b.SavedAt.IsZero() {
		b.SavedAt = s.clock()
	}

	ownerID := b.UserID.Int64
	err := s.inTx(ctx, "upsert_bookmark", func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, upsertBookmarkQuery, b); err != nil {
			return fmt.Errorf("failed to upsert bookmark: %w", err)
		}
		query := "SELECT " + bookmarkColumns + " FROM bookmarks WHERE user_id = ? AND url = ?"
		if err := tx.GetContext(ctx, b, query, ownerID, b.URL); err != nil {
			return fmt.Errorf("failed to reload upserted bookmark: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving bookmark", "user_id", ownerID, "url", b.URL, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Bookmark saved", "user_id", ownerID, "bookmark_id", b.ID)
	return nil
}

// AssignOrphanBookmarks gives bookmarks saved before accounts existed to ownerID.
func (s *sqlxStore) AssignOrphanBookmarks(ctx context.Context, ownerID int64) (int64, error) {
	if ownerID <= 0 {
		return 0, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE bookmarks SET user_id = ? WHERE user_id IS NULL", ownerID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: user %d already saved some of the orphaned urls", ErrConflict, ownerID)
		}
		return 0, fmt.Errorf("failed to assign orphaned bookmarks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check updated rows: %w", err)
	}
	s.logger.InfoContext(ctx, "Assigned orphaned bookmarks", "user_id", ownerID, "count", n)
	return n, nil
}

// listPredicate builds the WHERE clause shared by list and count. Every
// fragment is a constant; user input only travels as bound arguments.
func (s *sqlxStore) listPredicate(ownerID int64, opts ListOptions) (string, []any, error) {
	clauses := []string{"user_id = ?"}
	args := []any{ownerID}

	switch opts.Filter {
	case FilterAll:
	case FilterRecent:
		clauses = append(clauses, "saved_at >= ?")
		args = append(args, s.clock().Add(-RecentWindow))
	case FilterTelegram:
		clauses = append(clauses, "telegram_user_id IS NOT NULL")
	case FilterHN:
		clauses = append(clauses, "comments_url IS NOT NULL AND comments_url != ''")
	default:
		return "", nil, fmt.Errorf("%w: unknown filter %q", ErrValidation, opts.Filter)
	}

	switch opts.Sort {
	case "", SortAsc, SortDesc:
	default:
		return "", nil, fmt.Errorf("%w: unknown sort order %q", ErrValidation, opts.Sort)
	}

	if opts.HideRead {
		clauses = append(clauses, "COALESCE(is_read, 0) = 0")
	}

	if q := strings.TrimSpace(opts.Search); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`+
			` OR url LIKE ? ESCAPE '\' OR domain LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// assignments translates the patch into SET fragments over a fixed set of
// columns.
func (p BookmarkPatch) assignments() ([]string, []any, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.URL != nil {
		u := strings.TrimSpace(*p.URL)
		if u == "" {
			return nil, nil, fmt.Errorf("%w: url cannot be empty", ErrValidation)
		}
		set("url", u)
		set("domain", nullString(links.NormalizeDomain(u)))
	}
	if p.Title != nil {
		set("title", nullString(strings.TrimSpace(*p.Title)))
	}
	if p.Description != nil {
		set("description", nullString(strings.TrimSpace(*p.Description)))
	}
	if p.ImageURL != nil {
		set("image_url", nullString(strings.TrimSpace(*p.ImageURL)))
	}
	if p.CommentsURL != nil {
		set("comments_url", nullString(strings.TrimSpace(*p.CommentsURL)))
	}
	if p.TelegramUserID != nil {
		set("telegram_user_id", *p.TelegramUserID)
	}
	if p.TelegramMessageID != nil {
		set("telegram_message_id", *p.TelegramMessageID)
	}
	if p.IsRead != nil {
		set("is_read", *p.IsRead)
	}
	return sets, args, nil
}

func getBookmark(ctx context.Context, q sqlx.QueryerContext, dest *Bookmark, ownerID, id int64) error {
	query := "SELECT " + bookmarkColumns + " FROM bookmarks WHERE id = ? AND user_id = ?"
	err := sqlx.GetContext(ctx, q, dest, query, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: bookmark %d", ErrNotFound, id)
	}
	return err
}

// logWriteError logs client errors quietly and everything else as a fault.
func (s *sqlxStore) logWriteError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		s.logger.DebugContext(ctx, msg, attrs...)
		return
	}
	s.logger.ErrorContext(ctx, msg, attrs...)
}
