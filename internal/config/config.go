// Package config manages application configuration from a YAML file,
// BOOKMARKBOT_* environment variables and default values.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config holds the settings of every component.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Web       WebConfig       `mapstructure:"web"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig selects the log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig configures the chat bot. An empty token disables it.
type TelegramConfig struct {
	Token          string           `mapstructure:"token"`
	AllowedUserIDs []int64          `mapstructure:"allowed_user_ids" validate:"dive,gt=0"`
	Messages       TelegramMessages `mapstructure:"messages"`
}

// TelegramMessages are the texts the bot replies with. SavedOne receives the
// title and domain, SavedMany and Count a number.
type TelegramMessages struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	SavedOne      string `mapstructure:"saved_one"      validate:"required"`
	SavedMany     string `mapstructure:"saved_many"     validate:"required"`
	Count         string `mapstructure:"count"          validate:"required"`
	GeneralError  string `mapstructure:"general_error"  validate:"required"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// IngestConfig controls how chat links become bookmarks. OwnerID 0 attributes
// them to the first web account.
type IngestConfig struct {
	OwnerID   int64  `mapstructure:"owner_id"   validate:"gte=0"`
	ForumHost string `mapstructure:"forum_host" validate:"required,hostname"`
}

// ScraperConfig configures the metadata extractor.
type ScraperConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"    validate:"min=1s,max=2m"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
}

// WebConfig configures the JSON API server.
type WebConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ListenAddr      string        `mapstructure:"listen_addr"       validate:"required"`
	TLSCertFile     string        `mapstructure:"tls_cert_file"     validate:"required_with=TLSKeyFile"`
	TLSKeyFile      string        `mapstructure:"tls_key_file"      validate:"required_with=TLSCertFile"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"       validate:"min=1m"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	DefaultPageSize int           `mapstructure:"default_page_size" validate:"min=1,max=1000"`
	MaxPageSize     int           `mapstructure:"max_page_size"     validate:"min=1,max=10000,gtefield=DefaultPageSize"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task on a cron schedule (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// IsUserAuthorized reports whether a Telegram user may use the bot. An empty
// allow-list admits everybody.
func (c *TelegramConfig) IsUserAuthorized(userID int64) bool {
	if len(c.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
