package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNetworkUnsupported is returned for a network outside the supported set.
var ErrNetworkUnsupported = errors.New("network unsupported")

// Network identifies a blockchain whose tokens are scanned.
type Network string

const (
	NetworkSolana Network = "solana"
	NetworkBSC    Network = "binance-smart-chain"
	NetworkTON    Network = "ton"
)

// Networks lists every supported network in display order.
var Networks = []Network{NetworkSolana, NetworkBSC, NetworkTON}

// ParseNetwork resolves a configured network name.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Networks {
		if n == known {
			return n, nil
		}
	}
	return "", errors.Wrapf(ErrNetworkUnsupported, "%q", s)
}

// Platform returns the CoinGecko platform id used to filter the coin list.
func (n Network) Platform() string {
	if n == NetworkTON {
		return "the-open-network"
	}
	return string(n)
}

func (n Network) String() string { return string(n) }

// Token is a coin listed on the scanned network.
type Token struct {
	ID     string
	Symbol string
	Name   string
}

// PriceSample is one price observation for a token.
type PriceSample struct {
	TokenID string
	Price   float64
	At      time.Time
}
