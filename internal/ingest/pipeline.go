// Package ingest turns chat messages into bookmarks: it collects the links of a
// message, pairs an article with its discussion thread, fetches metadata and
// saves the result for the ingestion owner.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/links"
	"github.com/edgard/bookmarkbot/internal/metadata"
)

// Extractor fetches page metadata. It never fails; see metadata.Result.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) metadata.Result
}

// BookmarkSaver persists ingested bookmarks.
type BookmarkSaver interface {
	UpsertBookmark(ctx context.Context, b *database.Bookmark) error
}

// Outcome summarizes the processing of one message.
type Outcome struct {
	Saved      []database.Bookmark
	Paired     bool
	Candidates int
	Failed     int
}

// Pipeline processes inbound messages.
type Pipeline struct {
	extractor Extractor
	store     BookmarkSaver
	owner     OwnerResolver
	forumHost string
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithForumHost sets the discussion site used by the pairing rule.
func WithForumHost(host string) Option {
	return func(p *Pipeline) {
		if host != "" {
			p.forumHost = host
		}
	}
}

// New creates a Pipeline.
func New(extractor Extractor, store BookmarkSaver, owner OwnerResolver, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Pipeline{
		extractor: extractor,
		store:     store,
		owner:     owner,
		forumHost: links.DefaultForumHost,
		logger:    logger.With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process saves the links of msg. Per-link failures are logged and counted in
// Outcome.Failed; only a cancelled context is returned as an error.
func (p *Pipeline) Process(ctx context.Context, msg Message) (Outcome, error) {
	candidates := Candidates(msg)
	out := Outcome{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return out, nil
	}

	log := p.logger.With("sender_id", msg.SenderID, "message_id", msg.MessageID)
	log.DebugContext(ctx, "Processing message links", "candidates", len(candidates))

	if article, forum, ok := p.pair(candidates); ok {
		b, err := p.savePair(ctx, msg, article, forum)
		if err == nil {
			out.Saved = append(out.Saved, *b)
			out.Paired = true
			log.InfoContext(ctx, "Saved article with discussion link", "url", article, "comments_url", forum)
			return out, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		log.WarnContext(ctx, "Failed to save paired link, saving links individually", "error", err)
	}

	for _, u := range candidates {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		b, err := p.saveOne(ctx, msg, u)
		if err != nil {
			out.Failed++
			log.ErrorContext(ctx, "Failed to save link", "url", u, "error", err)
			continue
		}
		out.Saved = append(out.Saved, *b)
	}

	log.InfoContext(ctx, "Message links processed", "saved", len(out.Saved), "failed", out.Failed)
	return out, nil
}

// pair returns the article and discussion URLs when the candidates are
// exactly one forum link and exactly one other link.
func (p *Pipeline) pair(candidates []string) (article, forum string, ok bool) {
	if len(candidates) != 2 {
		return "", "", false
	}
	a, b := candidates[0], candidates[1]
	aForum, bForum := links.IsForum(a, p.forumHost), links.IsForum(b, p.forumHost)
	switch {
	case aForum && !bForum:
		return b, a, true
	case bForum && !aForum:
		return a, b, true
	}
	return "", "", false
}

func (p *Pipeline) savePair(ctx context.Context, msg Message, article, forum string) (*database.Bookmark, error) {
	page := p.extractor.Extract(ctx, article)
	discussion := p.extractor.Extract(ctx, forum)

	meta := page.Metadata
	if d := strings.TrimSpace(discussion.Description); d != "" && discussion.Err == nil {
		meta.Description = d
	}
	return p.save(ctx, msg, article, meta, forum)
}

func (p *Pipeline) saveOne(ctx context.Context, msg Message, rawURL string) (*database.Bookmark, error) {
	res := p.extractor.Extract(ctx, rawURL)
	return p.save(ctx, msg, rawURL, res.Metadata, links.CommentsURL(rawURL, p.forumHost))
}

func (p *Pipeline) save(ctx context.Context, msg Message, rawURL string, meta metadata.Metadata, commentsURL string) (*database.Bookmark, error) {
	ownerID, err := p.owner.ResolveOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bookmark owner: %w", err)
	}

	b := &database.Bookmark{
		UserID:            sql.NullInt64{Int64: ownerID, Valid: true},
		URL:               rawURL,
		Title:             nullString(meta.Title),
		Description:       nullString(meta.Description),
		ImageURL:          nullString(meta.ImageURL),
		Domain:            nullString(meta.Domain),
		TelegramUserID:    nullInt(msg.SenderID),
		TelegramMessageID: nullInt(msg.MessageID),
		CommentsURL:       nullString(commentsURL),
	}
	if !b.Domain.Valid {
		b.Domain = nullString(links.NormalizeDomain(rawURL))
	}
	if err := p.store.UpsertBookmark(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
