package collector

import (
	"context"

	"TokenSentinel/internal/model"

	"github.com/pkg/errors"
)

// ErrPriceUnavailable covers delisted tokens, missing quotes, rate limiting
// and transport failures. It never aborts a tick.
var ErrPriceUnavailable = errors.New("price unavailable")

// Fetcher defines the interface for enumerating tokens and fetching prices.
type Fetcher interface {
	// ListTokens returns the tokens deployed on the given platform.
	ListTokens(ctx context.Context, platform string) ([]model.Token, error)
	// FetchPrice returns the current price of a token.
	FetchPrice(ctx context.Context, tokenID string) (float64, error)
	Name() string
}
