package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// EventBridge subscribes to the market event channel and turns events into
// operator notifications. It runs beside the API server; a dropped or failed
// notification never affects market state.
type EventBridge struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewEventBridge creates a bridge from the signal bus to the notifier.
func NewEventBridge(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *EventBridge {
	return &EventBridge{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "event_bridge")),
	}
}

// Run consumes market events until ctx is cancelled.
func (b *EventBridge) Run(ctx context.Context) error {
	msgCh, err := b.bus.Subscribe(ctx, domain.EventChannel)
	if err != nil {
		return fmt.Errorf("notify: subscribe market events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-msgCh:
			if !ok {
				return nil
			}
			b.handle(ctx, data)
		}
	}
}

func (b *EventBridge) handle(ctx context.Context, data []byte) {
	var envelope struct {
		Event       string `json:"event"`
		RoundID     string `json:"round_id"`
		Asset       string `json:"asset"`
		Participant string `json:"participant"`
		Outcome     string `json:"outcome"`
		IsPush      bool   `json:"is_push"`
		NetPool     int64  `json:"net_pool"`
		Payout      int64  `json:"payout"`
		Wager       int64  `json:"wager"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return
	}

	var title, message string
	switch envelope.Event {
	case domain.EventMarketOpened:
		title = "Round opened"
		message = fmt.Sprintf("Round %s on %s is accepting wagers.", envelope.RoundID, envelope.Asset)
	case domain.EventWagerPlaced:
		title = "Wager placed"
		message = fmt.Sprintf("%s wagered %d in round %s.", envelope.Participant, envelope.Wager, envelope.RoundID)
	case domain.EventRoundSettled:
		title = "Round settled"
		if envelope.IsPush {
			message = fmt.Sprintf("Round %s settled as a push; all wagers refundable.", envelope.RoundID)
		} else {
			message = fmt.Sprintf("Round %s settled %s with a net pool of %d.", envelope.RoundID, envelope.Outcome, envelope.NetPool)
		}
	case domain.EventClaimed:
		title = "Payout claimed"
		message = fmt.Sprintf("%s claimed %d from round %s.", envelope.Participant, envelope.Payout, envelope.RoundID)
	default:
		return
	}

	if err := b.notifier.Notify(ctx, envelope.Event, title, message); err != nil {
		b.logger.WarnContext(ctx, "notification failed",
			slog.String("event", envelope.Event),
			slog.String("error", err.Error()),
		)
	}
}
