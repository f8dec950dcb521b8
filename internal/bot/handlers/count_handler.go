package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/bookmarkbot/internal/database"
)

// NewCountHandler returns a handler for the /count command, which reports how
// many bookmarks the ingestion owner has.
func NewCountHandler(deps HandlerDeps) bot.HandlerFunc {
	return countHandler{deps}.Handle
}

type countHandler struct {
	deps HandlerDeps
}

func (h countHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "count")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Count handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	n, err := h.count(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count bookmarks", "error", err)
		reply(ctx, b, log, update.Message, h.deps.Config.Telegram.Messages.GeneralError)
		return
	}
	reply(ctx, b, log, update.Message, fmt.Sprintf(h.deps.Config.Telegram.Messages.Count, n))
}

func (h countHandler) count(ctx context.Context) (int, error) {
	ownerID, err := h.deps.Owner.ResolveOwner(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve bookmark owner: %w", err)
	}
	return h.deps.Store.CountBookmarks(ctx, ownerID, database.ListOptions{})
}
