package database

import (
	"database/sql"
	"time"
)

// Bookmark is a saved link. Nullable columns use sql.Null* types so legacy
// rows with missing values scan cleanly.
type Bookmark struct {
	ID     int64         `db:"id"`
	UserID sql.NullInt64 `db:"user_id"` // NULL only for rows predating multi-user support

	URL         string         `db:"url"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	ImageURL    sql.NullString `db:"image_url"`
	Domain      sql.NullString `db:"domain"`
	SavedAt     time.Time      `db:"saved_at"`

	TelegramUserID    sql.NullInt64  `db:"telegram_user_id"`
	TelegramMessageID sql.NullInt64  `db:"telegram_message_id"`
	CommentsURL       sql.NullString `db:"comments_url"`
	IsRead            bool           `db:"is_read"`
}

// NewBookmark holds the caller supplied fields of a manually created
// bookmark. Empty strings are stored as NULL.
type NewBookmark struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
	CommentsURL string

	TelegramUserID    sql.NullInt64
	TelegramMessageID sql.NullInt64
}

// BookmarkPatch is a partial update. A nil field is left untouched. Setting a
// string field to "" clears the column, except URL which must stay non-empty.
type BookmarkPatch struct {
	URL               *string
	Title             *string
	Description       *string
	ImageURL          *string
	CommentsURL       *string
	TelegramUserID    *sql.NullInt64
	TelegramMessageID *sql.NullInt64
	IsRead            *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p.URL == nil && p.Title == nil && p.Description == nil && p.ImageURL == nil &&
		p.CommentsURL == nil && p.TelegramUserID == nil && p.TelegramMessageID == nil && p.IsRead == nil
}

// Filter narrows a bookmark listing to a named subset.
type Filter string

const (
	FilterAll      Filter = ""
	FilterRecent   Filter = "recent"   // saved within RecentWindow
	FilterTelegram Filter = "telegram" // ingested from a chat message
	FilterHN       Filter = "hn"       // has a discussion link
)

// RecentWindow is the age limit of FilterRecent.
const RecentWindow = 7 * 24 * time.Hour

// SortOrder orders listings by saved_at.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// NoLimit disables pagination in ListOptions.
const NoLimit = -1

// ListOptions selects and paginates bookmarks. The zero value lists every
// bookmark newest first with no rows (Limit 0); callers set Limit explicitly.
type ListOptions struct {
	Filter   Filter
	HideRead bool
	Search   string
	Sort     SortOrder
	Limit    int
	Offset   int
}

// User is a web account. Bookmarks are owned by users.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// Session maps an opaque cookie token to a user until it expires.
type Session struct {
	ID        string    `db:"session_id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
