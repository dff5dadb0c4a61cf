package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/altmarkets/parimutuel/internal/auth"
	s3blob "github.com/altmarkets/parimutuel/internal/blob/s3"
	memcache "github.com/altmarkets/parimutuel/internal/cache/memory"
	"github.com/altmarkets/parimutuel/internal/cache/redis"
	"github.com/altmarkets/parimutuel/internal/config"
	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/feed"
	"github.com/altmarkets/parimutuel/internal/notify"
	"github.com/altmarkets/parimutuel/internal/server/handler"
	memstore "github.com/altmarkets/parimutuel/internal/store/memory"
	"github.com/altmarkets/parimutuel/internal/store/postgres"
	"github.com/altmarkets/parimutuel/internal/treasury"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	Rounds domain.RoundStore
	Bets   domain.BetStore
	Audit  domain.AuditStore

	// Caches and coordination
	RoundCache  domain.RoundCache
	Locks       domain.LockManager
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Market plumbing
	Treasury   domain.Treasury
	Depositor  handler.Depositor
	Feed       domain.PriceFeed
	Authorizer domain.Authorizer

	// WSFeed is set when the feed mode is "ws"; the mode runner must start
	// its Run loop.
	WSFeed *feed.WSFeed

	// Archiver and BlobReader are set when archiving is enabled (server
	// mode only).
	Archiver   domain.Archiver
	BlobReader domain.BlobReader

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	serverMode := strings.ToLower(cfg.Mode) == "server"

	// --- Persistence and coordination ---
	if serverMode {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Rounds = postgres.NewRoundStore(pool)
		deps.Bets = postgres.NewBetStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)

		pgTreasury := treasury.NewPostgresTreasury(pool)
		deps.Treasury = pgTreasury
		deps.Depositor = pgTreasury

		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RoundCache = redis.NewRoundCache(redisClient)
		deps.Locks = redis.NewLockManager(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	} else {
		deps.Rounds = memstore.NewRoundStore()
		deps.Bets = memstore.NewBetStore()
		deps.Audit = memstore.NewAuditStore()

		memTreasury := treasury.NewMemoryTreasury()
		deps.Treasury = memTreasury
		deps.Depositor = memTreasury

		deps.RoundCache = memcache.NewRoundCache(5 * time.Minute)
		deps.Locks = memcache.NewLockManager()
		deps.RateLimiter = memcache.NewRateLimiter()
		deps.SignalBus = memcache.NewSignalBus(10_000)
	}

	// --- Price feed ---
	switch strings.ToLower(cfg.Feed.Mode) {
	case "http":
		deps.Feed = feed.NewHTTPFeed(cfg.Feed.HTTPURL)
	case "ws":
		wsFeed := feed.NewWSFeed(cfg.Feed.WSURL, cfg.Feed.Assets, cfg.Feed.MaxAge.Duration, logger)
		closers = append(closers, wsFeed.Close)
		deps.Feed = wsFeed
		deps.WSFeed = wsFeed
	default:
		deps.Feed = feed.NewStaticFeed(cfg.Feed.Static)
	}

	// --- Authorization ---
	if strings.ToLower(cfg.Auth.Mode) == "static" {
		deps.Authorizer = auth.NewStatic()
	} else {
		keyring := auth.NewKeyring(cfg.Auth.MasterSecret, cfg.Auth.Secrets)
		deps.Authorizer = auth.NewHMACAuthorizer(keyring, cfg.Auth.MaxSkew.Duration)
	}

	// --- Archive (server mode only) ---
	if serverMode && cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			UseSSL:         cfg.Archive.UseSSL,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
		deps.BlobReader = s3blob.NewReader(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
