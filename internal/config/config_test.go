package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/bookmarkbot/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLogLevel, cfg.Logger.Level)
	assert.Equal(t, config.DefaultDBPath, cfg.Database.Path)
	assert.Equal(t, config.DefaultForumHost, cfg.Ingest.ForumHost)
	assert.Equal(t, config.DefaultScraperTimeout, cfg.Scraper.Timeout)
	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, config.DefaultListenAddr, cfg.Web.ListenAddr)
	assert.Equal(t, config.DefaultSessionTTL, cfg.Web.SessionTTL)
	assert.Equal(t, config.DefaultPageSize, cfg.Web.DefaultPageSize)
	assert.Empty(t, cfg.Telegram.Token)
	assert.NotEmpty(t, cfg.Telegram.Messages.Welcome)

	require.Contains(t, cfg.Scheduler.Tasks, "sql_maintenance")
	require.Contains(t, cfg.Scheduler.Tasks, "session_cleanup")
	assert.True(t, cfg.Scheduler.Tasks["session_cleanup"].Enabled)
	assert.Equal(t, config.DefaultSessionGCCron, cfg.Scheduler.Tasks["session_cleanup"].Schedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
telegram:
  token: "123:abc"
  allowed_user_ids: [11, 22]
  messages:
    welcome: "hi"
ingest:
  owner_id: 3
scraper:
  timeout: 3s
web:
  listen_addr: "127.0.0.1:9000"
  default_page_size: 20
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSON)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, []int64{11, 22}, cfg.Telegram.AllowedUserIDs)
	assert.Equal(t, "hi", cfg.Telegram.Messages.Welcome)
	assert.NotEmpty(t, cfg.Telegram.Messages.Help, "unset messages keep their defaults")
	assert.Equal(t, int64(3), cfg.Ingest.OwnerID)
	assert.Equal(t, 3*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.ListenAddr)
	assert.Equal(t, 20, cfg.Web.DefaultPageSize)
	assert.False(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
	assert.Equal(t, config.DefaultMaintenanceCron, cfg.Scheduler.Tasks["sql_maintenance"].Schedule)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BOOKMARKBOT_DATABASE_PATH", "/var/lib/bookmarks.db")
	t.Setenv("BOOKMARKBOT_TELEGRAM_TOKEN", "from-env")
	t.Setenv("BOOKMARKBOT_SCRAPER_TIMEOUT", "30s")
	t.Setenv("BOOKMARKBOT_WEB_ENABLED", "false")

	path := writeConfig(t, "database:\n  path: file.db\n")
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bookmarks.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.False(t, cfg.Web.Enabled)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	path := writeConfig(t, "log: [unterminated\n")
	_, err := config.LoadConfig(path)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	base, err := config.LoadConfig("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "bad log level", mutate: func(c *config.Config) { c.Logger.Level = "verbose" }},
		{name: "empty database path", mutate: func(c *config.Config) { c.Database.Path = "" }},
		{name: "negative owner", mutate: func(c *config.Config) { c.Ingest.OwnerID = -1 }},
		{name: "cert without key", mutate: func(c *config.Config) { c.Web.TLSCertFile = "cert.pem" }},
		{name: "tiny scraper timeout", mutate: func(c *config.Config) { c.Scraper.Timeout = time.Millisecond }},
		{name: "max page below default", mutate: func(c *config.Config) { c.Web.MaxPageSize = c.Web.DefaultPageSize - 1 }},
		{name: "enabled task without schedule", mutate: func(c *config.Config) {
			c.Scheduler.Tasks["sql_maintenance"] = config.TaskConfig{Enabled: true}
		}},
		{name: "nothing to run", mutate: func(c *config.Config) { c.Web.Enabled = false }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			cfg.Scheduler.Tasks = map[string]config.TaskConfig{}
			for k, v := range base.Scheduler.Tasks {
				cfg.Scheduler.Tasks[k] = v
			}
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrConfiguration)
		})
	}

	assert.NoError(t, base.Validate())
}

func TestIsUserAuthorized(t *testing.T) {
	t.Parallel()

	open := config.TelegramConfig{}
	assert.True(t, open.IsUserAuthorized(42))

	restricted := config.TelegramConfig{AllowedUserIDs: []int64{1, 2}}
	assert.True(t, restricted.IsUserAuthorized(2))
	assert.False(t, restricted.IsUserAuthorized(3))
}
