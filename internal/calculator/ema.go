package calculator

import "github.com/pkg/errors"

// MACDParams holds the smoothing periods of the MACD indicator.
type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

// DefaultMACDParams are the standard 12/26/9 periods.
var DefaultMACDParams = MACDParams{Fast: 12, Slow: 26, Signal: 9}

// Validate checks 0 < Fast < Slow and Signal > 0.
func (p MACDParams) Validate() error {
	if p.Fast <= 0 || p.Slow <= 0 || p.Signal <= 0 {
		return errors.New("macd periods must be positive")
	}
	if p.Fast >= p.Slow {
		return errors.Errorf("fast period %d must be shorter than slow period %d", p.Fast, p.Slow)
	}
	return nil
}

// SmoothingFactor returns k = 2/(N+1) for an N-period EMA.
func SmoothingFactor(period int) float64 {
	return 2.0 / float64(period+1)
}

// EMA is one step of an exponential moving average. The zero value of
// Seeded means no input has been seen yet.
type EMA struct {
	Period int
	Value  float64
	Seeded bool
}

// NewEMA returns an unseeded EMA for the given period.
func NewEMA(period int) EMA {
	return EMA{Period: period}
}

// Next returns the EMA after consuming x. The first input seeds the
// average with its raw value. The receiver is not modified.
func (e EMA) Next(x float64) EMA {
	if !e.Seeded {
		return EMA{Period: e.Period, Value: x, Seeded: true}
	}
	k := SmoothingFactor(e.Period)
	return EMA{Period: e.Period, Value: x*k + e.Value*(1-k), Seeded: true}
}
