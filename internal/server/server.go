// Package server assembles the HTTP API: routes, middleware chain, and
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/server/handler"
	"github.com/altmarkets/parimutuel/internal/server/middleware"
	"github.com/altmarkets/parimutuel/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, API-key authentication is disabled

	RateLimit       int // requests per window per client; 0 disables
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Rounds   *handler.RoundHandler
	Wagers   *handler.WagerHandler
	Claims   *handler.ClaimHandler
	Accounts *handler.AccountHandler
	Audit    *handler.AuditHandler

	// Archives is optional; routes are registered only when archiving is
	// configured.
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server for the market.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain wired: CORS, logging, rate limiting, API-key
// auth, and proof extraction.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Round lifecycle.
	mux.HandleFunc("POST /api/rounds", handlers.Rounds.OpenRound)
	mux.HandleFunc("GET /api/rounds/{id}", handlers.Rounds.GetRound)
	mux.HandleFunc("POST /api/rounds/{id}/settle", handlers.Rounds.SettleRound)

	// Wagers.
	mux.HandleFunc("POST /api/rounds/{id}/wagers", handlers.Wagers.PlaceWager)
	mux.HandleFunc("GET /api/rounds/{id}/wagers", handlers.Wagers.ListWagers)
	mux.HandleFunc("GET /api/rounds/{id}/wagers/{participant}", handlers.Wagers.GetWager)

	// Claims.
	mux.HandleFunc("POST /api/rounds/{id}/claims", handlers.Claims.Claim)

	// Treasury accounts.
	mux.HandleFunc("GET /api/accounts/{account}", handlers.Accounts.GetBalance)
	mux.HandleFunc("POST /api/accounts/{account}/deposits", handlers.Accounts.Deposit)

	// Audit trail and event stream.
	mux.HandleFunc("GET /api/audit", handlers.Audit.ListAudit)
	mux.HandleFunc("GET /api/events", handlers.Audit.ListEvents)

	// Cold-storage archive browsing.
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.ListArchives)
		mux.HandleFunc("GET /api/archives/{path...}", handlers.Archives.GetArchive)
	}

	// WebSocket event feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Proof()(h)
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
