// Package tasks implements the scheduled maintenance jobs of bookmarkbot.
package tasks

import (
	"log/slog"

	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
