// Package bot wires the long-running components of bookmarkbot together and
// manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server is an HTTP server that blocks in Start until Stop is called.
type Server interface {
	Start() error
	Stop(ctx context.Context) error
}

// Bot runs the Telegram listener, the web server and the scheduler. The
// listener and the server are optional.
type Bot struct {
	logger    *slog.Logger
	tgBot     *tgbot.Bot
	server    Server
	scheduler *Scheduler
}

// NewBot creates the orchestrator. tgBot or server may be nil when the
// corresponding component is disabled.
func NewBot(logger *slog.Logger, tgBot *tgbot.Bot, server Server, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		tgBot:     tgBot,
		server:    server,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if b.server != nil {
		g.Go(func() error {
			if err := b.server.Start(); err != nil {
				return fmt.Errorf("web server failed: %w", err)
			}
			if gCtx.Err() == nil {
				return fmt.Errorf("web server stopped unexpectedly")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := b.server.Stop(shutdownCtx); err != nil {
				b.logger.Error("Error stopping web server", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
