package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"TokenSentinel/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CoinGeckoOptions configures the CoinGecko fetcher.
type CoinGeckoOptions struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	VsCurrency   string
	Proxy        string
	Timeout      time.Duration
	RetryCount   int
}

// CoinGeckoFetcher implements Fetcher using the CoinGecko public API.
type CoinGeckoFetcher struct {
	client     *resty.Client
	vsCurrency string
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy and API key.
func NewCoinGeckoFetcher(opts CoinGeckoOptions) *CoinGeckoFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "TokenSentinel/1.0").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
				return 0, nil
			}
			if secs, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, nil
			}
			return 10 * time.Second, nil
		})

	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if opts.APIKey != "" {
		header := opts.APIKeyHeader
		if header == "" {
			header = "x-cg-demo-api-key"
		}
		client.SetHeader(header, opts.APIKey)
	}

	return &CoinGeckoFetcher{client: client, vsCurrency: strings.ToLower(opts.VsCurrency)}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// geckoCoin is one entry of /coins/list?include_platform=true.
type geckoCoin struct {
	ID        string             `json:"id"`
	Symbol    string             `json:"symbol"`
	Name      string             `json:"name"`
	Platforms map[string]*string `json:"platforms"`
}

// ListTokens returns every coin whose platform map has the given key,
// sorted by id.
func (f *CoinGeckoFetcher) ListTokens(ctx context.Context, platform string) ([]model.Token, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("include_platform", "true").
		Get("/coins/list")
	if err != nil {
		return nil, errors.Wrap(err, "coingecko coins list")
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("coingecko coins list: status %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	var coins []geckoCoin
	if err := json.Unmarshal(resp.Body(), &coins); err != nil {
		return nil, errors.Wrap(err, "coingecko decode coins list")
	}

	tokens := make([]model.Token, 0, len(coins)/10)
	for _, c := range coins {
		if c.ID == "" {
			continue
		}
		if _, ok := c.Platforms[platform]; !ok {
			continue
		}
		tokens = append(tokens, model.Token{ID: c.ID, Symbol: c.Symbol, Name: c.Name})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
	return tokens, nil
}

// FetchPrice returns the token's price in the configured quote currency.
func (f *CoinGeckoFetcher) FetchPrice(ctx context.Context, tokenID string) (float64, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           tokenID,
			"vs_currencies": f.vsCurrency,
		}).
		Get("/simple/price")
	if err != nil {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: %v", tokenID, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: rate limited", tokenID)
	}
	if !resp.IsSuccess() {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: status %d", tokenID, resp.StatusCode())
	}

	var quotes map[string]map[string]decimal.NullDecimal
	if err := json.Unmarshal(resp.Body(), &quotes); err != nil {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: decode: %v", tokenID, err)
	}
	quote, ok := quotes[tokenID]
	if !ok {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: not in response", tokenID)
	}
	price, ok := quote[f.vsCurrency]
	if !ok {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: no %s quote", tokenID, f.vsCurrency)
	}
	if !price.Valid {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: null %s quote", tokenID, f.vsCurrency)
	}
	return price.Decimal.InexactFloat64(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
