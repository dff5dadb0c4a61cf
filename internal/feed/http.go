// Package feed implements the oracle price adapters. Prices are fixed-point
// int64 values in the same scale the market's wagers use; a non-positive
// price from any adapter is rejected by the services before it reaches a
// round.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// HTTPFeed fetches spot prices from a REST oracle endpoint.
type HTTPFeed struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFeed creates a feed client for the given oracle root, e.g.
// "https://oracle.example.com".
func NewHTTPFeed(baseURL string) *HTTPFeed {
	return &HTTPFeed{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type priceResponse struct {
	Asset string `json:"asset"`
	Price int64  `json:"price"`
	TS    int64  `json:"ts"`
}

// GetPrice returns the current price for the asset. It returns
// domain.ErrInvalidPrice when the oracle has no usable quote.
func (f *HTTPFeed) GetPrice(ctx context.Context, asset string) (int64, error) {
	params := url.Values{}
	params.Set("asset", asset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/price?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("feed: build request for %s: %w", asset, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("feed: get price for %s: %w", asset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("feed: read price for %s: %w", asset, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("feed: price for %s: %w", asset, domain.ErrInvalidPrice)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed: price for %s: status %d: %s", asset, resp.StatusCode, body)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, fmt.Errorf("feed: decode price for %s: %w", asset, err)
	}
	if pr.Price <= 0 {
		return 0, fmt.Errorf("feed: price for %s: %w", asset, domain.ErrInvalidPrice)
	}
	return pr.Price, nil
}

// Compile-time interface check.
var _ domain.PriceFeed = (*HTTPFeed)(nil)
