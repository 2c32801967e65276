package recorder

import "TokenSentinel/internal/model"

// Recorder persists signal history for later analysis. Only crossover events
// and tick summaries are stored; raw price series are not.
type Recorder interface {
	RecordSignal(evt *model.SignalEvent) error
	RecordTick(sum *model.TickSummary) error
	// RecentSignals returns up to limit events, newest first.
	RecentSignals(limit int) ([]model.SignalEvent, error)
	Close() error
}
