package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/ingest"
)

// LinkProcessor turns a chat message into saved bookmarks.
type LinkProcessor interface {
	Process(ctx context.Context, msg ingest.Message) (ingest.Outcome, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Owner    ingest.OwnerResolver
	Pipeline LinkProcessor
}
