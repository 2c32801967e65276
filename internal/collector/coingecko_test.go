package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"TokenSentinel/internal/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coinsListBody = `[
  {"id":"toncoin","symbol":"ton","name":"Toncoin","platforms":{"the-open-network":"EQ..."}},
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","platforms":{}},
  {"id":"notcoin","symbol":"not","name":"Notcoin","platforms":{"the-open-network":null}},
  {"id":"bonk","symbol":"bonk","name":"Bonk","platforms":{"solana":"DezX..."}},
  {"id":"dogs","symbol":"dogs","name":"Dogs","platforms":{"the-open-network":"","solana":"abc"}}
]`

func newGeckoServer(t *testing.T, handler http.HandlerFunc) *CoinGeckoFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCoinGeckoFetcher(CoinGeckoOptions{BaseURL: srv.URL + "/", RetryCount: 0})
}

func TestCoinGecko_ListTokensFiltersByPlatform(t *testing.T) {
	f := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/list", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_platform"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(coinsListBody))
	})

	tokens, err := f.ListTokens(context.Background(), model.NetworkTON.Platform())
	require.NoError(t, err)
	assert.Equal(t, []model.Token{
		{ID: "dogs", Symbol: "dogs", Name: "Dogs"},
		{ID: "notcoin", Symbol: "not", Name: "Notcoin"},
		{ID: "toncoin", Symbol: "ton", Name: "Toncoin"},
	}, tokens)

	tokens, err = f.ListTokens(context.Background(), model.NetworkSolana.Platform())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "bonk", tokens[0].ID)
}

func TestCoinGecko_ListTokensStatusError(t *testing.T) {
	f := newGeckoServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	_, err := f.ListTokens(context.Background(), "solana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCoinGecko_FetchPrice(t *testing.T) {
	f := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		switch r.URL.Query().Get("ids") {
		case "toncoin":
			_, _ = w.Write([]byte(`{"toncoin":{"usd":5.37}}`))
		case "tiny":
			_, _ = w.Write([]byte(`{"tiny":{"usd":1.2e-9}}`))
		case "noquote":
			_, _ = w.Write([]byte(`{"noquote":{}}`))
		case "nullquote":
			_, _ = w.Write([]byte(`{"nullquote":{"usd":null}}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})

	price, err := f.FetchPrice(context.Background(), "toncoin")
	require.NoError(t, err)
	assert.Equal(t, 5.37, price)

	price, err = f.FetchPrice(context.Background(), "tiny")
	require.NoError(t, err)
	assert.InDelta(t, 1.2e-9, price, 1e-18)

	for _, id := range []string{"noquote", "nullquote", "delisted"} {
		_, err = f.FetchPrice(context.Background(), id)
		assert.True(t, errors.Is(err, ErrPriceUnavailable), "%s: %v", id, err)
	}

	_, err = f.FetchPrice(context.Background(), "nullquote")
	assert.Contains(t, err.Error(), "null usd quote")
}

func TestCoinGecko_RateLimitedIsUnavailable(t *testing.T) {
	f := newGeckoServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := f.FetchPrice(context.Background(), "toncoin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPriceUnavailable))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCoinGecko_SendsAPIKey(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("x-cg-pro-api-key")
		_, _ = w.Write([]byte(`{"toncoin":{"usd":1}}`))
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(CoinGeckoOptions{BaseURL: srv.URL, APIKey: "secret", APIKeyHeader: "x-cg-pro-api-key"})
	_, err := f.FetchPrice(context.Background(), "toncoin")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}
