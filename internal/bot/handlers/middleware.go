// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AuthorizedOnly creates a middleware that only lets private messages from
// allowed users through. Group traffic is ignored silently; strangers get the
// configured "not authorized" reply.
func AuthorizedOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				return
			}
			if msg.Chat.Type != models.ChatTypePrivate {
				deps.Logger.DebugContext(ctx, "Ignoring non-private message", "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
				return
			}

			userID := msg.From.ID
			if !deps.Config.Telegram.IsUserAuthorized(userID) {
				log := deps.Logger.With("middleware", "AuthorizedOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", msg.Chat.ID)

				_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: msg.Chat.ID,
					Text:   deps.Config.Telegram.Messages.NotAuthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", msg.Chat.ID)
				}
				return
			}

			next(ctx, bot, update)
		}
	}
}
