package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// StaticFeed serves prices from a fixed table. Used in standalone mode and
// in tests where deterministic prices are needed.
type StaticFeed struct {
	mu     sync.RWMutex
	prices map[string]int64
}

// NewStaticFeed creates a feed serving the given asset-to-price table. The
// table is copied.
func NewStaticFeed(prices map[string]int64) *StaticFeed {
	cp := make(map[string]int64, len(prices))
	for asset, price := range prices {
		cp[asset] = price
	}
	return &StaticFeed{prices: cp}
}

// SetPrice updates the table entry for an asset.
func (f *StaticFeed) SetPrice(asset string, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[asset] = price
}

// GetPrice returns the table price for the asset, or ErrInvalidPrice when
// the asset is unknown or its price is non-positive.
func (f *StaticFeed) GetPrice(ctx context.Context, asset string) (int64, error) {
	f.mu.RLock()
	price, ok := f.prices[asset]
	f.mu.RUnlock()

	if !ok || price <= 0 {
		return 0, fmt.Errorf("feed: static price for %s: %w", asset, domain.ErrInvalidPrice)
	}
	return price, nil
}

// Compile-time interface check.
var _ domain.PriceFeed = (*StaticFeed)(nil)
