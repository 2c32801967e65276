package recorder

import "TokenSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.SignalEvent) error { return nil }
func (n *NoopRecorder) RecordTick(_ *model.TickSummary) error   { return nil }
func (n *NoopRecorder) RecentSignals(_ int) ([]model.SignalEvent, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
