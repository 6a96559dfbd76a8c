package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the planner.
type Config struct {
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Telegram   TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Digest     DigestConfig     `yaml:"digest" mapstructure:"digest"`
	Recurrence RecurrenceConfig `yaml:"recurrence" mapstructure:"recurrence"`
	Timezone   string           `yaml:"timezone" mapstructure:"timezone"`
	LogLevel   string           `yaml:"log_level" mapstructure:"log_level"`
}

type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver string `yaml:"driver" mapstructure:"driver"`
	URL    string `yaml:"url" mapstructure:"url"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	ChatID int64  `yaml:"chat_id" mapstructure:"chat_id"`
}

// DigestConfig schedules the daily digest. IntervalHours > 0 adds a
// repeating digest on top of the daily one.
type DigestConfig struct {
	Time          string `yaml:"time" mapstructure:"time"`
	IntervalHours int    `yaml:"interval_hours" mapstructure:"interval_hours"`
}

type RecurrenceConfig struct {
	MaxSteps int `yaml:"max_steps" mapstructure:"max_steps"`
}

// envAliases keeps the variable names older deployments used.
var envAliases = map[string][]string{
	"telegram.token":        {"TELEGRAM_TOKEN"},
	"telegram.chat_id":      {"TELEGRAM_CHAT_ID"},
	"database.url":          {"DATABASE_URL"},
	"digest.interval_hours": {"REPORT_INTERVAL_HOURS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "planner.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{})
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("digest.time", "08:00")
	v.SetDefault("digest.interval_hours", 0)
	v.SetDefault("recurrence.max_steps", 10000)
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("log_level", "info")
}

// Load reads .env, then path (or ./planner.yaml when path is empty and the
// file exists), then PLANNER_* environment variables, later sources winning.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{key, "PLANNER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("planner")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for postgres")
	}
	if _, err := time.Parse("15:04", c.Digest.Time); err != nil {
		return fmt.Errorf("digest.time %q is not HH:MM", c.Digest.Time)
	}
	if c.Digest.IntervalHours < 0 {
		return fmt.Errorf("digest.interval_hours must not be negative")
	}
	if c.Recurrence.MaxSteps <= 0 {
		return fmt.Errorf("recurrence.max_steps must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	return nil
}

// Location resolves the configured timezone used to decide what "today" is.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) DigestInterval() time.Duration {
	return time.Duration(c.Digest.IntervalHours) * time.Hour
}

// YAML renders the effective configuration with secrets masked.
func (c Config) YAML() ([]byte, error) {
	if c.Telegram.Token != "" {
		c.Telegram.Token = "********"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}
