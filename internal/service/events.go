// Package service implements the market operations: opening rounds, placing
// wagers, settlement, claims, and retention. Each service owns one slice of
// the round lifecycle and takes its stores and adapters through interfaces.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// announce records an event in the audit log and pushes it to the signal
// bus, stream and pub/sub both. It runs after the owning mutation has
// committed, so failures are logged and swallowed: observers may miss an
// event, state never lies.
func announce(ctx context.Context, audit domain.AuditStore, bus domain.SignalBus, logger *slog.Logger, event string, detail map[string]any, payload any) {
	if audit != nil {
		if err := audit.Log(ctx, event, detail); err != nil {
			logger.WarnContext(ctx, "audit log failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}

	if bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.WarnContext(ctx, "event marshal failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.StreamAppend(ctx, domain.EventStream, data); err != nil {
		logger.WarnContext(ctx, "event stream append failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
	if err := bus.Publish(ctx, domain.EventChannel, data); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
