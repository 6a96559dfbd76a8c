package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "planner.db", cfg.Database.URL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "08:00", cfg.Digest.Time)
	assert.Equal(t, 10000, cfg.Recurrence.MaxSteps)
	assert.Equal(t, time.Duration(0), cfg.DigestInterval())
	assert.Empty(t, cfg.Telegram.Token)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  url: postgres://planner@localhost/planner
digest:
  time: "07:30"
telegram:
  chat_id: 42
`), 0o600))

	t.Setenv("PLANNER_HTTP_ADDR", ":9090")
	t.Setenv("TELEGRAM_TOKEN", " secret ")
	t.Setenv("REPORT_INTERVAL_HOURS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://planner@localhost/planner", cfg.Database.URL)
	assert.Equal(t, "07:30", cfg.Digest.Time)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "secret", cfg.Telegram.Token)
	assert.Equal(t, 5*time.Hour, cfg.DigestInterval())
}

func TestLoad_PrefixedEnvWinsOverAlias(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PLANNER_DATABASE_URL", "prefixed.db")
	t.Setenv("DATABASE_URL", "legacy.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed.db", cfg.Database.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database:   DatabaseConfig{Driver: "sqlite", URL: "x.db"},
			Digest:     DigestConfig{Time: "08:00"},
			Recurrence: RecurrenceConfig{MaxSteps: 10},
			Timezone:   "UTC",
		}
	}

	ok := base()
	require.NoError(t, ok.Validate())

	cases := map[string]func(*Config){
		"driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"postgres url": func(c *Config) { c.Database.Driver = "postgres"; c.Database.URL = "" },
		"digest time":  func(c *Config) { c.Digest.Time = "8am" },
		"interval":     func(c *Config) { c.Digest.IntervalHours = -1 },
		"max steps":    func(c *Config) { c.Recurrence.MaxSteps = 0 },
		"timezone":     func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestYAML_MasksToken(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "secret", ChatID: 7}, Timezone: "UTC"}

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "********", back.Telegram.Token)
	assert.Equal(t, int64(7), back.Telegram.ChatID)
	assert.Equal(t, "secret", cfg.Telegram.Token, "the receiver is a copy")
}
