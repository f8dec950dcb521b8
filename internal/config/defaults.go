package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/edgard/bookmarkbot/internal/links"
	"github.com/edgard/bookmarkbot/internal/metadata"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultDBPath   = "bookmarks.db"

	DefaultListenAddr      = ":8080"
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultPageSize        = 50
	DefaultMaxPageSize     = 500
	DefaultScraperTimeout  = metadata.DefaultTimeout
	DefaultScraperAgent    = metadata.DefaultUserAgent
	DefaultForumHost       = links.DefaultForumHost
	DefaultMaintenanceCron = "0 0 4 * * 0"
	DefaultSessionGCCron   = "0 30 * * * *"
)

var defaults = map[string]any{
	"log.level": DefaultLogLevel,
	"log.json":  false,

	"telegram.token":            "",
	"telegram.allowed_user_ids": []int64{},

	"telegram.messages.welcome":        "👋 Send me a link and I'll bookmark it for you.",
	"telegram.messages.help":           "Send or forward any message with links to save them.\n\n/count - number of saved bookmarks\n/help - this message",
	"telegram.messages.not_authorized": "🚫 Access denied.",
	"telegram.messages.saved_one":      "✅ Saved: %s (%s)",
	"telegram.messages.saved_many":     "✅ Saved %d bookmarks.",
	"telegram.messages.count":          "📚 You have %d bookmarks.",
	"telegram.messages.general_error":  "❌ An error occurred. Please try again later.",

	"database.path": DefaultDBPath,

	"ingest.owner_id":   0,
	"ingest.forum_host": DefaultForumHost,

	"scraper.timeout":    DefaultScraperTimeout,
	"scraper.user_agent": DefaultScraperAgent,

	"web.enabled":           true,
	"web.listen_addr":       DefaultListenAddr,
	"web.tls_cert_file":     "",
	"web.tls_key_file":      "",
	"web.session_ttl":       DefaultSessionTTL,
	"web.cookie_secure":     false,
	"web.default_page_size": DefaultPageSize,
	"web.max_page_size":     DefaultMaxPageSize,

	"scheduler.tasks.sql_maintenance.enabled":  true,
	"scheduler.tasks.sql_maintenance.schedule": DefaultMaintenanceCron,
	"scheduler.tasks.session_cleanup.enabled":  true,
	"scheduler.tasks.session_cleanup.schedule": DefaultSessionGCCron,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
