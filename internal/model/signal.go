package model

import "time"

// Relationship is where the MACD line sits relative to the signal line.
// RelationUnknown means no relationship has been recorded yet.
type Relationship int8

const (
	RelationUnknown Relationship = iota
	RelationBelow
	RelationEqual
	RelationAbove
)

func (r Relationship) String() string {
	switch r {
	case RelationBelow:
		return "BELOW"
	case RelationEqual:
		return "EQUAL"
	case RelationAbove:
		return "ABOVE"
	default:
		return "UNKNOWN"
	}
}

// Signal is the classified action for one tick.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Actionable reports whether the signal is a crossover.
func (s Signal) Actionable() bool { return s == SignalBuy || s == SignalSell }

// SignalEvent is what a tick emits per token, Hold included.
type SignalEvent struct {
	TickID         string
	TokenID        string
	Symbol         string
	Price          float64
	MACD           float64
	SignalLine     float64
	Histogram      float64
	Signal         Signal
	Relation       Relationship
	HasPriorSignal bool
	At             time.Time
}

// TickSummary aggregates the outcome of one tick.
type TickSummary struct {
	TickID      string
	Network     Network
	StartedAt   time.Time
	Duration    time.Duration
	Tokens      int
	Updated     int
	Unavailable int
	Invalid     int
	Buys        int
	Sells       int
	Interrupted bool
}
