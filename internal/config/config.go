package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"coachbot/pkg/tz"
)

const (
	defaultDatabaseURL   = "postgres://localhost:5432/coachbot?sslmode=disable"
	defaultEventStream   = "coachbot.queue.events"
	defaultGuardSchedule = "@every 1m"
	defaultLocale        = "en"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Token          string
	DatabaseURL    string
	// MigrationsPath overrides the migrations embedded in the binary.
	MigrationsPath string
	RedisURL       string
	EventStream    string
	GuardSchedule  string
	Timezone       string
	DefaultLocale  string
	GuildID        string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	// .env is optional when variables come from the environment (Docker, CI, ...).
	_ = godotenv.Load()

	cfg := &Config{
		Token:          os.Getenv("TOKEN"),
		DatabaseURL:    envOr("DATABASE_URL", defaultDatabaseURL),
		MigrationsPath: strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		EventStream:    envOr("EVENT_STREAM", defaultEventStream),
		GuardSchedule:  envOr("GUARD_SCHEDULE", defaultGuardSchedule),
		Timezone:       envOr("TIMEZONE", tz.DefaultZone),
		DefaultLocale:  envOr("DEFAULT_LOCALE", defaultLocale),
		GuildID:        strings.TrimSpace(os.Getenv("GUILD_ID")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("config: TOKEN is required")
	}

	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
	}

	if c.RedisURL != "" {
		u, err := url.Parse(c.RedisURL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("config: REDIS_URL must be a redis:// or rediss:// URL")
		}
	}

	if _, err := cron.ParseStandard(c.GuardSchedule); err != nil {
		return fmt.Errorf("config: invalid GUARD_SCHEDULE (%q): %w", c.GuardSchedule, err)
	}

	if _, err := tz.Load(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid TIMEZONE: %w", err)
	}

	if _, err := language.Parse(c.DefaultLocale); err != nil {
		return fmt.Errorf("config: invalid DEFAULT_LOCALE (%q): %w", c.DefaultLocale, err)
	}

	for _, r := range c.GuildID {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: GUILD_ID must be a Discord guild ID (digits only)")
		}
	}
	return nil
}
