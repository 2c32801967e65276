package indicator

import "github.com/pkg/errors"

var (
	// ErrInvalidPrice rejects NaN, infinite or negative prices.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrEmptyTokenID rejects samples without a token identifier.
	ErrEmptyTokenID = errors.New("empty token id")
	// ErrOutOfOrderSample rejects a timestamped sample that is not strictly
	// newer than the last accepted one for the same token.
	ErrOutOfOrderSample = errors.New("out of order sample")
)
