package database_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/links"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (database.Store, *fakeClock) {
	t.Helper()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return database.NewStore(db, nil, database.WithClock(clock.Now)), clock
}

func newUser(t *testing.T, store database.Store, name string) int64 {
	t.Helper()
	u, err := store.CreateUser(context.Background(), name, "secret")
	require.NoError(t, err)
	return u.ID
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestCreateThenGetDerivesDomain(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	urls := []string{
		"https://www.Example.com/a/b?x=1",
		"http://blog.golang.org/",
		"https://localhost:8080/x",
		"example.org",
	}
	for _, u := range urls {
		created, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: u, Title: "  T  "})
		require.NoError(t, err, u)

		got, err := store.GetBookmark(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got.URL)
		assert.Equal(t, links.NormalizeDomain(u), got.Domain.String)
		assert.Equal(t, "T", got.Title.String)
		assert.False(t, got.IsRead)
		assert.True(t, got.SavedAt.Equal(clock.Now()), "saved_at %v", got.SavedAt)
		assert.Equal(t, owner, got.UserID.Int64)
	}
}

func TestCreateRejectsEmptyURL(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	owner := newUser(t, store, "alice")

	_, err := store.CreateBookmark(context.Background(), owner, database.NewBookmark{URL: "   "})
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestCreateDuplicateConflictsPerOwner(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	_, err := store.CreateBookmark(ctx, alice, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)

	_, err = store.CreateBookmark(ctx, alice, database.NewBookmark{URL: "https://x.com"})
	assert.ErrorIs(t, err, database.ErrConflict)

	_, err = store.CreateBookmark(ctx, bob, database.NewBookmark{URL: "https://x.com"})
	assert.NoError(t, err)

	total, err := store.CountBookmarks(ctx, alice, database.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestGetIsScopedToOwner(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	b, err := store.CreateBookmark(ctx, alice, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)

	_, err = store.GetBookmark(ctx, bob, b.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetBookmark(ctx, alice, b.ID+100)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpdateBookmark(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	first, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: "https://x.com", Title: "X"})
	require.NoError(t, err)
	second, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: "https://y.com"})
	require.NoError(t, err)

	t.Run("url change recomputes domain", func(t *testing.T) {
		updated, err := store.UpdateBookmark(ctx, owner, first.ID, database.BookmarkPatch{
			URL: strPtr("https://www.News.Example.net/story"),
		})
		require.NoError(t, err)
		assert.Equal(t, "https://www.News.Example.net/story", updated.URL)
		assert.Equal(t, links.NormalizeDomain(updated.URL), updated.Domain.String)
		assert.Equal(t, "X", updated.Title.String, "untouched fields survive")
	})

	t.Run("read flag", func(t *testing.T) {
		_, err := store.UpdateBookmark(ctx, owner, first.ID, database.BookmarkPatch{IsRead: boolPtr(true)})
		require.NoError(t, err)
		got, err := store.GetBookmark(ctx, owner, first.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRead)
	})

	t.Run("clearing a field stores null", func(t *testing.T) {
		updated, err := store.UpdateBookmark(ctx, owner, first.ID, database.BookmarkPatch{Title: strPtr("")})
		require.NoError(t, err)
		assert.False(t, updated.Title.Valid)
	})

	t.Run("telegram ids", func(t *testing.T) {
		updated, err := store.UpdateBookmark(ctx, owner, second.ID, database.BookmarkPatch{
			TelegramUserID:    &sql.NullInt64{Int64: 7, Valid: true},
			TelegramMessageID: &sql.NullInt64{Int64: 99, Valid: true},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), updated.TelegramUserID.Int64)
		assert.Equal(t, int64(99), updated.TelegramMessageID.Int64)
	})

	t.Run("collision conflicts", func(t *testing.T) {
		_, err := store.UpdateBookmark(ctx, owner, second.ID, database.BookmarkPatch{
			URL: strPtr("https://www.News.Example.net/story"),
		})
		assert.ErrorIs(t, err, database.ErrConflict)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.UpdateBookmark(ctx, owner, 9999, database.BookmarkPatch{Title: strPtr("nope")})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := store.UpdateBookmark(ctx, owner, first.ID, database.BookmarkPatch{})
		assert.ErrorIs(t, err, database.ErrValidation)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := store.UpdateBookmark(ctx, owner, first.ID, database.BookmarkPatch{URL: strPtr(" ")})
		assert.ErrorIs(t, err, database.ErrValidation)
	})
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	b, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteBookmark(ctx, owner, b.ID))
	require.NoError(t, store.DeleteBookmark(ctx, owner, b.ID))

	_, err = store.GetBookmark(ctx, owner, b.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSetRead(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	b, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)

	state, err := store.SetRead(ctx, owner, b.ID, true)
	require.NoError(t, err)
	assert.True(t, state)

	got, err := store.GetBookmark(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	state, err = store.SetRead(ctx, owner, b.ID, false)
	require.NoError(t, err)
	assert.False(t, state)

	_, err = store.SetRead(ctx, owner, 4242, true)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func seedListing(t *testing.T, store database.Store, clock *fakeClock, owner int64) {
	t.Helper()
	ctx := context.Background()

	rows := []database.NewBookmark{
		{URL: "https://golang.org/doc", Title: "Go Documentation", Description: "Effective Go"},
		{URL: "https://example.com/100%-pure", Title: "Discount", Description: "100% off"},
		{URL: "https://rust-lang.org", Title: "Rust", Description: "A language empowering everyone"},
		{URL: "https://news.example.org/a", Title: "Article", CommentsURL: "https://news.ycombinator.com/item?id=1"},
		{
			URL:            "https://chat.example.net/post",
			Title:          "From chat",
			TelegramUserID: sql.NullInt64{Int64: 5, Valid: true},
		},
	}
	for _, r := range rows {
		_, err := store.CreateBookmark(ctx, owner, r)
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}
}

func TestListHideReadAndSearch(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")
	seedListing(t, store, clock, owner)

	all, err := store.ListBookmarks(ctx, owner, database.ListOptions{Limit: database.NoLimit})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, b := range all[:2] {
		_, err := store.SetRead(ctx, owner, b.ID, true)
		require.NoError(t, err)
	}

	unread, err := store.ListBookmarks(ctx, owner, database.ListOptions{HideRead: true, Limit: database.NoLimit})
	require.NoError(t, err)
	assert.Len(t, unread, 3)
	for _, b := range unread {
		assert.False(t, b.IsRead)
	}

	for _, q := range []string{"GO", "effective", "golang.org", "EXAMPLE"} {
		found, err := store.ListBookmarks(ctx, owner, database.ListOptions{Search: q, Limit: database.NoLimit})
		require.NoError(t, err)
		require.NotEmpty(t, found, q)
		for _, b := range found {
			hay := strings.ToLower(strings.Join([]string{b.Title.String, b.Description.String, b.URL, b.Domain.String}, " "))
			assert.Contains(t, hay, strings.ToLower(q))
		}
	}

	literal, err := store.ListBookmarks(ctx, owner, database.ListOptions{Search: "100%", Limit: database.NoLimit})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Discount", literal[0].Title.String)

	none, err := store.ListBookmarks(ctx, owner, database.ListOptions{Search: "_", Limit: database.NoLimit})
	require.NoError(t, err)
	assert.Empty(t, none, "underscore is matched literally")
}

func TestListFiltersSortAndPagination(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")
	seedListing(t, store, clock, owner)

	// Rows are saved one day apart starting at day 0; move the clock to day 9
	// so the seven day window starts exactly at the third row.
	clock.Advance(4 * 24 * time.Hour)

	recent, err := store.ListBookmarks(ctx, owner, database.ListOptions{Filter: database.FilterRecent, Limit: database.NoLimit})
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	tg, err := store.ListBookmarks(ctx, owner, database.ListOptions{Filter: database.FilterTelegram, Limit: database.NoLimit})
	require.NoError(t, err)
	require.Len(t, tg, 1)
	assert.Equal(t, "From chat", tg[0].Title.String)

	hn, err := store.ListBookmarks(ctx, owner, database.ListOptions{Filter: database.FilterHN, Limit: database.NoLimit})
	require.NoError(t, err)
	require.Len(t, hn, 1)
	assert.Equal(t, "Article", hn[0].Title.String)

	desc, err := store.ListBookmarks(ctx, owner, database.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "From chat", desc[0].Title.String)
	assert.Equal(t, "Article", desc[1].Title.String)

	asc, err := store.ListBookmarks(ctx, owner, database.ListOptions{Sort: database.SortAsc, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "Discount", asc[0].Title.String)
	assert.Equal(t, "Rust", asc[1].Title.String)

	count, err := store.CountBookmarks(ctx, owner, database.ListOptions{Filter: database.FilterRecent, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = store.ListBookmarks(ctx, owner, database.ListOptions{Filter: "bogus"})
	assert.ErrorIs(t, err, database.ErrValidation)
	_, err = store.ListBookmarks(ctx, owner, database.ListOptions{Sort: "sideways"})
	assert.ErrorIs(t, err, database.ErrValidation)
	_, err = store.ListBookmarks(ctx, owner, database.ListOptions{Limit: 10, Offset: -1})
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestUpsertBookmarkRefreshesMetadata(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	b := &database.Bookmark{
		UserID:         sql.NullInt64{Int64: owner, Valid: true},
		URL:            "https://www.example.com/post",
		Title:          sql.NullString{String: "Old", Valid: true},
		CommentsURL:    sql.NullString{String: "https://news.ycombinator.com/item?id=3", Valid: true},
		TelegramUserID: sql.NullInt64{Int64: 1, Valid: true},
	}
	require.NoError(t, store.UpsertBookmark(ctx, b))
	require.NotZero(t, b.ID)
	assert.Equal(t, "example.com", b.Domain.String)
	firstID, firstSaved := b.ID, b.SavedAt

	_, err := store.SetRead(ctx, owner, firstID, true)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	again := &database.Bookmark{
		UserID:            sql.NullInt64{Int64: owner, Valid: true},
		URL:               "https://www.example.com/post",
		Title:             sql.NullString{String: "New", Valid: true},
		TelegramUserID:    sql.NullInt64{Int64: 1, Valid: true},
		TelegramMessageID: sql.NullInt64{Int64: 77, Valid: true},
	}
	require.NoError(t, store.UpsertBookmark(ctx, again))

	assert.Equal(t, firstID, again.ID)
	assert.Equal(t, "New", again.Title.String)
	assert.Equal(t, int64(77), again.TelegramMessageID.Int64)
	assert.True(t, again.IsRead, "read state survives refresh")
	assert.True(t, again.SavedAt.Equal(firstSaved), "saved_at survives refresh")
	assert.Equal(t, "https://news.ycombinator.com/item?id=3", again.CommentsURL.String)

	total, err := store.CountBookmarks(ctx, owner, database.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	assert.ErrorIs(t, store.UpsertBookmark(ctx, &database.Bookmark{URL: "https://x.com"}), database.ErrValidation)
	assert.ErrorIs(t, store.UpsertBookmark(ctx, nil), database.ErrValidation)
}

func TestUsers(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.FirstUserID(ctx)
	assert.ErrorIs(t, err, database.ErrNotFound)

	alice, err := store.CreateUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", alice.PasswordHash)
	_, err = store.CreateUser(ctx, "bob", "pw2")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, database.ErrConflict)
	_, err = store.CreateUser(ctx, " ", "pw")
	assert.ErrorIs(t, err, database.ErrValidation)

	first, err := store.FirstUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, first)

	u, err := store.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = store.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)
	_, err = store.Authenticate(ctx, "carol", "pw1")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)

	require.NoError(t, store.SetPassword(ctx, "alice", "rotated"))
	_, err = store.Authenticate(ctx, "alice", "rotated")
	assert.NoError(t, err)
	assert.ErrorIs(t, store.SetPassword(ctx, "carol", "x"), database.ErrNotFound)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(t)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	sess, err := store.CreateSession(ctx, owner, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	uid, err := store.SessionUser(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, uid)

	_, err = store.SessionUser(ctx, "unknown")
	assert.ErrorIs(t, err, database.ErrNotFound)

	short, err := store.CreateSession(ctx, owner, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = store.SessionUser(ctx, short.ID)
	assert.ErrorIs(t, err, database.ErrNotFound, "expired sessions are not an identity")

	purged, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.DeleteSession(ctx, sess.ID))
	_, err = store.SessionUser(ctx, sess.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func newFileDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewDB(t.TempDir() + "/bookmarks.db")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return db
}

func TestNewDBUpgradesLegacySchema(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/legacy.db"

	legacy, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT,
		description TEXT,
		image_url TEXT,
		domain TEXT,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		telegram_message_id INTEGER
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO bookmarks (url, title, domain, telegram_message_id)
		VALUES ('https://old.example.com', 'Old', 'old.example.com', 9),
		       ('https://shared.example.com', 'Shared', 'shared.example.com', 10)`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	for i := 0; i < 2; i++ {
		db, err := database.NewDB(path)
		require.NoError(t, err, "run %d", i)
		database.CloseDB(db)
	}

	db, err := database.NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	var columns []string
	require.NoError(t, db.Select(&columns, `SELECT name FROM pragma_table_info('bookmarks')`))
	for _, c := range []string{"user_id", "telegram_user_id", "telegram_message_id", "comments_url", "is_read"} {
		assert.Contains(t, columns, c)
	}

	var legacyRows int
	require.NoError(t, db.Get(&legacyRows, `SELECT count(*) FROM bookmarks WHERE user_id IS NULL`))
	assert.Equal(t, 2, legacyRows, "rows survive the table rebuild")

	store := database.NewStore(db, nil)
	ctx := context.Background()
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	// An orphan holding the URL no longer blocks owned copies.
	_, err = store.CreateBookmark(ctx, bob, database.NewBookmark{URL: "https://shared.example.com"})
	require.NoError(t, err)
	refreshed := &database.Bookmark{
		UserID: sql.NullInt64{Int64: bob, Valid: true},
		URL:    "https://old.example.com",
		Title:  sql.NullString{String: "Refreshed", Valid: true},
	}
	require.NoError(t, store.UpsertBookmark(ctx, refreshed))

	// Two owners may save the same URL.
	_, err = store.CreateBookmark(ctx, alice, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)
	_, err = store.CreateBookmark(ctx, bob, database.NewBookmark{URL: "https://x.com"})
	require.NoError(t, err)
	_, err = store.CreateBookmark(ctx, bob, database.NewBookmark{URL: "https://x.com"})
	assert.ErrorIs(t, err, database.ErrConflict)

	moved, err := store.AssignOrphanBookmarks(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	rows, err := store.ListBookmarks(ctx, alice, database.ListOptions{Limit: database.NoLimit})
	require.NoError(t, err)
	titles := make([]string, 0, len(rows))
	for _, r := range rows {
		titles = append(titles, r.Title.String)
		assert.False(t, r.IsRead)
	}
	assert.ElementsMatch(t, []string{"Old", "Shared", ""}, titles)
}

func TestCreateConcurrentDuplicateConflicts(t *testing.T) {
	t.Parallel()
	store := database.NewStore(newFileDB(t), nil)
	ctx := context.Background()
	owner := newUser(t, store, "alice")

	const writers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		others    []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateBookmark(ctx, owner, database.NewBookmark{URL: "https://race.example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, database.ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, conflicts)

	n, err := store.CountBookmarks(ctx, owner, database.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeletingUserCascadesBookmarks(t *testing.T) {
	t.Parallel()
	db := newFileDB(t)
	store := database.NewStore(db, nil)
	ctx := context.Background()
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	for _, u := range []string{"https://a.example.com", "https://b.example.com"} {
		_, err := store.CreateBookmark(ctx, alice, database.NewBookmark{URL: u})
		require.NoError(t, err)
	}
	_, err := store.CreateBookmark(ctx, bob, database.NewBookmark{URL: "https://a.example.com"})
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, alice, time.Hour)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, alice)
	require.NoError(t, err)

	var left, sessions int
	require.NoError(t, db.GetContext(ctx, &left, `SELECT count(*) FROM bookmarks WHERE user_id = ?`, alice))
	require.NoError(t, db.GetContext(ctx, &sessions, `SELECT count(*) FROM sessions WHERE user_id = ?`, alice))
	assert.Zero(t, left)
	assert.Zero(t, sessions)

	n, err := store.CountBookmarks(ctx, bob, database.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.RunSQLMaintenance(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, store.RunSQLMaintenance(cancelled))
}
