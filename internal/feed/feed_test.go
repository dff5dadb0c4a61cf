package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

func TestHTTPFeed_GetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC", r.URL.Query().Get("asset"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"asset":"BTC","price":6412000,"ts":1756600000000}`))
	}))
	defer srv.Close()

	f := NewHTTPFeed(srv.URL)
	price, err := f.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(6_412_000), price)
}

func TestHTTPFeed_UnknownAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFeed(srv.URL)
	_, err := f.GetPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestHTTPFeed_NonPositivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"asset":"BTC","price":0}`))
	}))
	defer srv.Close()

	f := NewHTTPFeed(srv.URL)
	_, err := f.GetPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestStaticFeed(t *testing.T) {
	f := NewStaticFeed(map[string]int64{"BTC": 100, "ETH": 50})
	ctx := context.Background()

	price, err := f.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(100), price)

	_, err = f.GetPrice(ctx, "DOGE")
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	f.SetPrice("BTC", 120)
	price, err = f.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(120), price)
}
