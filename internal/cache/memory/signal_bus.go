package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// SignalBus fans messages out to in-process subscribers and keeps a bounded
// per-stream log for StreamRead.
type SignalBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan []byte
	streams     map[string][]domain.StreamMessage
	// seq survives trimming so IDs never repeat and a reader resuming
	// from its last seen ID cannot miss newer messages.
	seq    map[string]int64
	maxLen int
}

// NewSignalBus creates a SignalBus keeping at most maxLen entries per stream.
func NewSignalBus(maxLen int) *SignalBus {
	if maxLen <= 0 {
		maxLen = 10_000
	}
	return &SignalBus{
		subscribers: make(map[string][]chan []byte),
		streams:     make(map[string][]domain.StreamMessage),
		seq:         make(map[string]int64),
		maxLen:      maxLen,
	}
}

// Publish delivers the payload to every current subscriber of the channel.
// Subscribers that cannot keep up drop messages rather than block the
// publisher.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	sb.mu.Lock()
	subs := make([]chan []byte, len(sb.subscribers[channel]))
	copy(subs, sb.subscribers[channel])
	sb.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for the channel. The returned channel is
// closed when the context is cancelled.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 128)

	sb.mu.Lock()
	sb.subscribers[channel] = append(sb.subscribers[channel], ch)
	sb.mu.Unlock()

	go func() {
		<-ctx.Done()
		sb.mu.Lock()
		subs := sb.subscribers[channel]
		for i, sub := range subs {
			if sub == ch {
				sb.subscribers[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		sb.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// StreamAppend appends the payload to a stream, trimming the oldest entries
// past the configured maximum.
func (sb *SignalBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.seq[stream]++
	id := strconv.FormatInt(sb.seq[stream], 10)
	entries := append(sb.streams[stream], domain.StreamMessage{ID: id, Payload: payload})
	if len(entries) > sb.maxLen {
		entries = entries[len(entries)-sb.maxLen:]
	}
	sb.streams[stream] = entries
	return nil
}

// StreamRead returns up to count messages with IDs after lastID. "0" and
// "0-0" read from the beginning.
func (sb *SignalBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	after := 0
	if lastID != "" && lastID != "0" && lastID != "0-0" && lastID != "$" {
		n, err := strconv.Atoi(lastID)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		after = n
	}

	var out []domain.StreamMessage
	for _, msg := range sb.streams[stream] {
		id, _ := strconv.Atoi(msg.ID)
		if id <= after {
			continue
		}
		out = append(out, msg)
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

var _ domain.SignalBus = (*SignalBus)(nil)
