package strategy

import "TokenSentinel/internal/model"

// Compare places the MACD line relative to the signal line.
func Compare(macd, signal float64) model.Relationship {
	switch {
	case macd > signal:
		return model.RelationAbove
	case macd < signal:
		return model.RelationBelow
	default:
		return model.RelationEqual
	}
}

// Classify turns the previous and current MACD/signal relationship into a
// signal. It returns the current relationship, which the caller stores as
// prev for the next tick.
//
// A crossover needs a strict change of side: nothing is claimed on the first
// observation, and touching equality neither fires nor arms a crossover.
func Classify(prev model.Relationship, macd, signal float64) (model.Signal, model.Relationship) {
	current := Compare(macd, signal)

	switch {
	case prev == model.RelationUnknown:
		return model.SignalHold, current
	case prev == model.RelationEqual || current == model.RelationEqual:
		return model.SignalHold, current
	case prev == model.RelationBelow && current == model.RelationAbove:
		return model.SignalBuy, current
	case prev == model.RelationAbove && current == model.RelationBelow:
		return model.SignalSell, current
	default:
		return model.SignalHold, current
	}
}
