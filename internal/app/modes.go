package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/notify"
	"github.com/altmarkets/parimutuel/internal/server"
	"github.com/altmarkets/parimutuel/internal/server/handler"
	"github.com/altmarkets/parimutuel/internal/server/ws"
	"github.com/altmarkets/parimutuel/internal/service"
)

// ServerMode runs the full market against PostgreSQL, Redis, and optionally
// S3-backed archiving. This is the production configuration.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	return a.runMarket(ctx, deps)
}

// StandaloneMode runs the market entirely in process: memory stores, memory
// coordination, and a static price feed. Useful for local development and
// demos; nothing survives a restart.
func (a *App) StandaloneMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting standalone mode")
	return a.runMarket(ctx, deps)
}

// runMarket builds the service layer on top of the wired dependencies and
// runs the HTTP API plus background workers until the context is cancelled.
func (a *App) runMarket(ctx context.Context, deps *Dependencies) error {
	params := domain.MarketParams{
		Admin:         a.cfg.Market.Admin,
		EscrowAccount: a.cfg.Market.EscrowAccount,
		MinWager:      a.cfg.Market.MinWager,
		MaxWager:      a.cfg.Market.MaxWager,
		HouseEdgeBps:  a.cfg.Market.HouseEdgeBps,
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("app: market params: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Services.
	roundSvc := service.NewRoundService(
		params, deps.Rounds, deps.RoundCache, deps.Feed,
		deps.Authorizer, deps.Audit, deps.SignalBus, a.logger,
	)
	wagerSvc := service.NewWagerService(
		params, deps.Rounds, deps.Bets, deps.Treasury, deps.RoundCache,
		deps.Locks, deps.Authorizer, deps.Audit, deps.SignalBus, a.logger,
	)
	settleSvc := service.NewSettlementService(
		params, deps.Rounds, deps.Feed, deps.RoundCache,
		deps.Locks, deps.Audit, deps.SignalBus, a.logger,
	)
	claimSvc := service.NewClaimService(
		params, deps.Rounds, deps.Bets, deps.Treasury,
		deps.Authorizer, deps.Audit, deps.SignalBus, a.logger,
	)

	// WebSocket event hub.
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// WS price feed needs its read loop running before rounds can settle.
	if deps.WSFeed != nil {
		wsFeed := deps.WSFeed
		g.Go(func() error {
			return wsFeed.Run(ctx)
		})
	}

	// Notification bridge.
	bridge := notify.NewEventBridge(deps.SignalBus, deps.Notifier, a.logger)
	g.Go(func() error {
		return bridge.Run(ctx)
	})

	// Retention sweeper when archiving is wired.
	if deps.Archiver != nil {
		retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
		sweeper := service.NewRetentionService(
			deps.Rounds, deps.Bets, deps.Archiver,
			retention, a.cfg.Archive.SweepInterval.Duration, a.logger,
		)
		g.Go(func() error {
			return sweeper.Run(ctx)
		})
	}

	// HTTP API.
	var archives *handler.ArchiveHandler
	if deps.BlobReader != nil {
		archives = handler.NewArchiveHandler(deps.BlobReader, a.logger)
	}
	srv := server.NewServer(
		server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			RateLimit:       a.cfg.Server.RateLimit,
			RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Rounds:   handler.NewRoundHandler(roundSvc, settleSvc, a.logger),
			Wagers:   handler.NewWagerHandler(wagerSvc, claimSvc, deps.Bets, a.logger),
			Claims:   handler.NewClaimHandler(claimSvc, a.logger),
			Accounts: handler.NewAccountHandler(deps.Treasury, deps.Depositor, a.logger),
			Audit:    handler.NewAuditHandler(deps.Audit, deps.SignalBus, a.logger),
			Archives: archives,
		},
		deps.RateLimiter,
		hub,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	a.logger.InfoContext(ctx, "market running",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("feed", a.cfg.Feed.Mode),
		slog.Bool("archiving", deps.Archiver != nil),
	)

	return g.Wait()
}
