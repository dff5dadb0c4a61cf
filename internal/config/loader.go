package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PARIMUTUEL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PARIMUTUEL_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Market ──
	setStr(&cfg.Market.Admin, "PARIMUTUEL_MARKET_ADMIN")
	setStr(&cfg.Market.EscrowAccount, "PARIMUTUEL_MARKET_ESCROW_ACCOUNT")
	setInt64(&cfg.Market.MinWager, "PARIMUTUEL_MARKET_MIN_WAGER")
	setInt64(&cfg.Market.MaxWager, "PARIMUTUEL_MARKET_MAX_WAGER")
	setInt64(&cfg.Market.HouseEdgeBps, "PARIMUTUEL_MARKET_HOUSE_EDGE_BPS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "PARIMUTUEL_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PARIMUTUEL_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PARIMUTUEL_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PARIMUTUEL_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PARIMUTUEL_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PARIMUTUEL_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PARIMUTUEL_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PARIMUTUEL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PARIMUTUEL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PARIMUTUEL_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PARIMUTUEL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PARIMUTUEL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PARIMUTUEL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PARIMUTUEL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PARIMUTUEL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PARIMUTUEL_REDIS_TLS_ENABLED")

	// ── Feed ──
	setStr(&cfg.Feed.Mode, "PARIMUTUEL_FEED_MODE")
	setStr(&cfg.Feed.HTTPURL, "PARIMUTUEL_FEED_HTTP_URL")
	setStr(&cfg.Feed.WSURL, "PARIMUTUEL_FEED_WS_URL")
	setStringSlice(&cfg.Feed.Assets, "PARIMUTUEL_FEED_ASSETS")
	setDuration(&cfg.Feed.MaxAge, "PARIMUTUEL_FEED_MAX_AGE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "PARIMUTUEL_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.Endpoint, "PARIMUTUEL_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "PARIMUTUEL_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "PARIMUTUEL_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "PARIMUTUEL_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "PARIMUTUEL_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.UseSSL, "PARIMUTUEL_ARCHIVE_USE_SSL")
	setBool(&cfg.Archive.ForcePathStyle, "PARIMUTUEL_ARCHIVE_FORCE_PATH_STYLE")
	setInt(&cfg.Archive.RetentionDays, "PARIMUTUEL_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.SweepInterval, "PARIMUTUEL_ARCHIVE_SWEEP_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "PARIMUTUEL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PARIMUTUEL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PARIMUTUEL_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "PARIMUTUEL_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "PARIMUTUEL_SERVER_RATE_LIMIT_WINDOW")

	// ── Auth ──
	setStr(&cfg.Auth.Mode, "PARIMUTUEL_AUTH_MODE")
	setStr(&cfg.Auth.MasterSecret, "PARIMUTUEL_AUTH_MASTER_SECRET")
	setDuration(&cfg.Auth.MaxSkew, "PARIMUTUEL_AUTH_MAX_SKEW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PARIMUTUEL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PARIMUTUEL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PARIMUTUEL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PARIMUTUEL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PARIMUTUEL_MODE")
	setStr(&cfg.LogLevel, "PARIMUTUEL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
