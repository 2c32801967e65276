package collector

import (
	"context"
	"sync"
	"time"

	"TokenSentinel/internal/model"

	"github.com/pkg/errors"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu sync.Mutex

	// Tokens maps a platform id to its listed tokens.
	Tokens  map[string][]model.Token
	ListErr error
	// Prices are served in order per token; the last one repeats.
	Prices map[string][]float64
	// Failures forces an error for a token.
	Failures map[string]error

	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) ListTokens(_ context.Context, platform string) ([]model.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]model.Token(nil), m.Tokens[platform]...), nil
}

func (m *MockFetcher) FetchPrice(_ context.Context, tokenID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	n := m.calls[tokenID]
	m.calls[tokenID] = n + 1

	if err, ok := m.Failures[tokenID]; ok {
		return 0, err
	}
	series := m.Prices[tokenID]
	if len(series) == 0 {
		return 0, errors.Wrapf(ErrPriceUnavailable, "%s: no mock price", tokenID)
	}
	if n >= len(series) {
		n = len(series) - 1
	}
	return series[n], nil
}

// Calls returns how many times a token's price was requested.
func (m *MockFetcher) Calls(tokenID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[tokenID]
}

// Collector resolves the tokens of one network and samples their prices.
type Collector struct {
	Fetcher   Fetcher
	Network   model.Network
	MaxTokens int

	now func() time.Time
}

// NewCollector creates a Collector for a network. maxTokens <= 0 means no cap.
func NewCollector(fetcher Fetcher, network model.Network, maxTokens int) *Collector {
	return &Collector{Fetcher: fetcher, Network: network, MaxTokens: maxTokens, now: time.Now}
}

// Tokens enumerates the network's tokens, de-duplicated and in fetcher order.
func (c *Collector) Tokens(ctx context.Context) ([]model.Token, error) {
	tokens, err := c.Fetcher.ListTokens(ctx, c.Network.Platform())
	if err != nil {
		return nil, errors.Wrapf(err, "list %s tokens", c.Network)
	}

	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	if c.MaxTokens > 0 && len(out) > c.MaxTokens {
		out = out[:c.MaxTokens]
	}
	return out, nil
}

// Sample fetches one timestamped price for a token.
func (c *Collector) Sample(ctx context.Context, tokenID string) (model.PriceSample, error) {
	price, err := c.Fetcher.FetchPrice(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, ErrPriceUnavailable) {
			err = errors.Wrapf(ErrPriceUnavailable, "%s: %v", tokenID, err)
		}
		return model.PriceSample{}, err
	}
	return model.PriceSample{TokenID: tokenID, Price: price, At: c.now()}, nil
}
