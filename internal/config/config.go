// Package config defines the top-level configuration for the parimutuel
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PARIMUTUEL_* environment
// variables.
type Config struct {
	Market   MarketConfig   `toml:"market"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Feed     FeedConfig     `toml:"feed"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// MarketConfig holds the economic parameters for every round.
type MarketConfig struct {
	Admin         string `toml:"admin"`
	EscrowAccount string `toml:"escrow_account"`
	MinWager      int64  `toml:"min_wager"`
	MaxWager      int64  `toml:"max_wager"`
	HouseEdgeBps  int64  `toml:"house_edge_bps"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// FeedConfig selects and configures the price feed used to open and settle
// rounds. Mode is one of "http", "ws", or "static".
type FeedConfig struct {
	Mode    string   `toml:"mode"`
	HTTPURL string   `toml:"http_url"`
	WSURL   string   `toml:"ws_url"`
	Assets  []string `toml:"assets"`
	MaxAge  duration `toml:"max_age"`
	// Static maps asset symbols to fixed prices; only used when mode is
	// "static".
	Static map[string]int64 `toml:"static"`
}

// ArchiveConfig holds object-storage parameters and the retention policy for
// settled rounds and claimed wagers.
type ArchiveConfig struct {
	Enabled        bool     `toml:"enabled"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	RetentionDays  int      `toml:"retention_days"`
	SweepInterval  duration `toml:"sweep_interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`

	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// AuthConfig configures request authorization. Mode is "hmac" or "static";
// static skips signature checks and is meant for local development only.
type AuthConfig struct {
	Mode         string            `toml:"mode"`
	MasterSecret string            `toml:"master_secret"`
	Secrets      map[string]string `toml:"secrets"`
	MaxSkew      duration          `toml:"max_skew"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Market: MarketConfig{
			MinWager:     1,
			MaxWager:     1_000_000_000,
			HouseEdgeBps: 500,
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "parimutuel",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Feed: FeedConfig{
			Mode:   "static",
			Assets: []string{"BTC"},
			MaxAge: duration{time.Minute},
			Static: map[string]int64{},
		},
		Archive: ArchiveConfig{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "parimutuel-archive",
			UseSSL:         false,
			ForcePathStyle: true,
			RetentionDays:  90,
			SweepInterval:  duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: duration{time.Minute},
		},
		Auth: AuthConfig{
			Mode:    "hmac",
			Secrets: map[string]string{},
			MaxSkew: duration{2 * time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"market_opened", "round_settled", "claimed"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":     true,
	"standalone": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validFeedModes enumerates the accepted values for FeedConfig.Mode.
var validFeedModes = map[string]bool{
	"http":   true,
	"ws":     true,
	"static": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, standalone)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Market
	if c.Market.Admin == "" {
		errs = append(errs, "market: admin must not be empty")
	}
	if c.Market.EscrowAccount == "" {
		errs = append(errs, "market: escrow_account must not be empty")
	}
	if c.Market.MinWager <= 0 {
		errs = append(errs, "market: min_wager must be > 0")
	}
	if c.Market.MaxWager < c.Market.MinWager {
		errs = append(errs, "market: max_wager must be >= min_wager")
	}
	if c.Market.HouseEdgeBps < 0 || c.Market.HouseEdgeBps > 10_000 {
		errs = append(errs, fmt.Sprintf("market: house_edge_bps must be 0-10000, got %d", c.Market.HouseEdgeBps))
	}

	// Postgres and Redis are only dialed in server mode.
	if mode == "server" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}

		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Feed
	feedMode := strings.ToLower(c.Feed.Mode)
	if !validFeedModes[feedMode] {
		errs = append(errs, fmt.Sprintf("feed: unknown mode %q (valid: http, ws, static)", c.Feed.Mode))
	}
	switch feedMode {
	case "http":
		if c.Feed.HTTPURL == "" {
			errs = append(errs, "feed: http_url is required for mode http")
		}
	case "ws":
		if c.Feed.WSURL == "" {
			errs = append(errs, "feed: ws_url is required for mode ws")
		}
		if len(c.Feed.Assets) == 0 {
			errs = append(errs, "feed: assets must not be empty for mode ws")
		}
	case "static":
		for asset, price := range c.Feed.Static {
			if price <= 0 {
				errs = append(errs, fmt.Sprintf("feed: static price for %s must be > 0, got %d", asset, price))
			}
		}
	}

	// Archive
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			errs = append(errs, "archive: bucket must not be empty when enabled")
		}
		if c.Archive.Region == "" {
			errs = append(errs, "archive: region must not be empty when enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1 when enabled")
		}
		if c.Archive.SweepInterval.Duration <= 0 {
			errs = append(errs, "archive: sweep_interval must be > 0 when enabled")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration <= 0 {
		errs = append(errs, "server: rate_limit_window must be > 0 when rate_limit is set")
	}

	// Auth
	switch strings.ToLower(c.Auth.Mode) {
	case "hmac":
		if c.Auth.MasterSecret == "" && len(c.Auth.Secrets) == 0 {
			errs = append(errs, "auth: master_secret or at least one [auth.secrets] entry is required for mode hmac")
		}
	case "static":
		if mode == "server" {
			errs = append(errs, "auth: mode static is not allowed in server mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("auth: unknown mode %q (valid: hmac, static)", c.Auth.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
