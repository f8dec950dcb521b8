package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/ingest"
)

// NewLinkHandler returns the handler that bookmarks every link of a message
// and acknowledges the result.
func NewLinkHandler(deps HandlerDeps) bot.HandlerFunc {
	return linkHandler{deps}.Handle
}

type linkHandler struct {
	deps HandlerDeps
}

func (h linkHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "link")

	msg := update.Message
	if msg == nil {
		return
	}

	in := toIngestMessage(msg)
	if len(ingest.Candidates(in)) == 0 {
		log.DebugContext(ctx, "Message has no links", "chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: msg.Chat.ID, Action: models.ChatActionTyping})

	out, err := h.deps.Pipeline.Process(ctx, in)
	if err != nil {
		log.WarnContext(ctx, "Link processing interrupted", "error", err, "chat_id", msg.Chat.ID)
		return
	}

	if text, ok := acknowledgement(h.deps.Config.Telegram.Messages, out); ok {
		reply(ctx, b, log, msg, text)
	}
}

// toIngestMessage extracts text, link entities and the preview URL from a
// Telegram message. Captions stand in for the text of media messages.
func toIngestMessage(msg *models.Message) ingest.Message {
	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}

	out := ingest.Message{Text: text, MessageID: int64(msg.ID)}
	if msg.From != nil {
		out.SenderID = msg.From.ID
	}
	for _, e := range entities {
		switch e.Type {
		case models.MessageEntityTypeURL, models.MessageEntityTypeTextLink:
			out.Entities = append(out.Entities, ingest.Entity{
				Type:   string(e.Type),
				Offset: e.Offset,
				Length: e.Length,
				URL:    e.URL,
			})
		}
	}
	if p := msg.LinkPreviewOptions; p != nil && p.URL != nil {
		out.PreviewURL = *p.URL
	}
	return out
}

// acknowledgement builds the reply for a processed message. Only messages that
// saved at least one bookmark get a reply; failures are logged by the pipeline.
func acknowledgement(msgs config.TelegramMessages, out ingest.Outcome) (string, bool) {
	switch {
	case len(out.Saved) == 0:
		return "", false
	case len(out.Saved) == 1:
		b := out.Saved[0]
		title := b.Title.String
		if title == "" {
			title = b.URL
		}
		return fmt.Sprintf(msgs.SavedOne, title, b.Domain.String), true
	default:
		return fmt.Sprintf(msgs.SavedMany, len(out.Saved)), true
	}
}
