package indicator

import (
	"time"

	"TokenSentinel/internal/calculator"
	"TokenSentinel/internal/model"
)

// State is the running indicator state of one token.
type State struct {
	TokenID      string
	Fast         calculator.EMA
	Slow         calculator.EMA
	Signal       calculator.EMA
	MACDHistory  []float64 // most recent last, bounded by the signal period
	LastRelation model.Relationship
	Samples      int
	LastPrice    float64
	LastSampleAt time.Time
}

func newState(tokenID string, p calculator.MACDParams) State {
	return State{
		TokenID: tokenID,
		Fast:    calculator.NewEMA(p.Fast),
		Slow:    calculator.NewEMA(p.Slow),
		Signal:  calculator.NewEMA(p.Signal),
	}
}

// MACD returns the current fast-slow difference.
func (s State) MACD() float64 { return s.Fast.Value - s.Slow.Value }

func (s State) clone() State {
	c := s
	if s.MACDHistory != nil {
		c.MACDHistory = append([]float64(nil), s.MACDHistory...)
	}
	return c
}

// next returns the state after one accepted price. s is left untouched.
func (s State) next(price float64, at time.Time, window int) State {
	n := s
	n.Fast = s.Fast.Next(price)
	n.Slow = s.Slow.Next(price)
	macd := n.Fast.Value - n.Slow.Value

	start := 0
	if len(s.MACDHistory)+1 > window {
		start = len(s.MACDHistory) + 1 - window
	}
	hist := make([]float64, 0, window)
	hist = append(hist, s.MACDHistory[start:]...)
	n.MACDHistory = append(hist, macd)

	n.Signal = s.Signal.Next(macd)
	n.Samples = s.Samples + 1
	n.LastPrice = price
	if !at.IsZero() {
		n.LastSampleAt = at
	}
	return n
}

func (s State) snapshot(hasPrior bool) model.IndicatorSnapshot {
	macd := s.MACD()
	return model.IndicatorSnapshot{
		TokenID:        s.TokenID,
		Price:          s.LastPrice,
		FastEMA:        s.Fast.Value,
		SlowEMA:        s.Slow.Value,
		MACD:           macd,
		Signal:         s.Signal.Value,
		Histogram:      macd - s.Signal.Value,
		Samples:        s.Samples,
		HasPriorSignal: hasPrior,
	}
}

// Snapshot returns the indicator values after the most recent sample.
func (s State) Snapshot() model.IndicatorSnapshot {
	return s.snapshot(s.Samples > 1)
}
