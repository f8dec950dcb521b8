// Package main contains the entrypoint for the bookmark bot and its web API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/bookmarkbot/internal/bot"
	"github.com/edgard/bookmarkbot/internal/bot/handlers"
	"github.com/edgard/bookmarkbot/internal/bot/tasks"
	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/ingest"
	"github.com/edgard/bookmarkbot/internal/logger"
	"github.com/edgard/bookmarkbot/internal/metadata"
	"github.com/edgard/bookmarkbot/internal/telegram"
	"github.com/edgard/bookmarkbot/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes every component, blocks until shutdown and returns the
// process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	extractor := metadata.NewExtractor(log,
		metadata.WithTimeout(cfg.Scraper.Timeout),
		metadata.WithUserAgent(cfg.Scraper.UserAgent),
		metadata.WithForumHost(cfg.Ingest.ForumHost),
	)

	owner := ingest.FirstUserOwner(store)
	if cfg.Ingest.OwnerID > 0 {
		owner = ingest.StaticOwner(cfg.Ingest.OwnerID)
	}
	pipeline := ingest.New(extractor, store, owner, log, ingest.WithForumHost(cfg.Ingest.ForumHost))

	var tg *tgbot.Bot
	if cfg.Telegram.Token != "" {
		hDeps := handlers.HandlerDeps{
			Logger:   log,
			Config:   cfg,
			Store:    store,
			Owner:    owner,
			Pipeline: pipeline,
		}
		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log,
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
		)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}
		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
	} else {
		log.Warn("Telegram token not configured, chat ingestion disabled")
	}

	var server bot.Server
	if cfg.Web.Enabled {
		router := web.NewRouter(web.Deps{
			Store:   store,
			Scraper: extractor,
			Config:  cfg.Web,
			Logger:  log,
		})
		server = web.NewServer(cfg.Web, router, log)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, server, sched)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bookmark bot stopped due to error", "error", err)
		return 1
	}

	log.Info("Bookmark bot stopped gracefully.")
	return 0
}
