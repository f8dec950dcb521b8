package tasks

import (
	"context"
	"fmt"
)

// newSessionCleanupTask creates the task that purges expired web sessions.
func newSessionCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_cleanup")

	return func(ctx context.Context) error {
		n, err := deps.Store.DeleteExpiredSessions(ctx)
		if err != nil {
			return fmt.Errorf("session cleanup failed: %w", err)
		}
		if n > 0 {
			log.InfoContext(ctx, "Purged expired sessions", "count", n)
		}
		return nil
	}
}
