package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"TokenSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "signals.db"))
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []model.SignalEvent{
		{TickID: "t1", TokenID: "alpha", Symbol: "alp", Price: 1.5, MACD: 0.2, SignalLine: 0.1, Histogram: 0.1,
			Signal: model.SignalBuy, Relation: model.RelationAbove, At: base},
		{TickID: "t2", TokenID: "beta", Symbol: "bet", Price: 0.5, MACD: -0.3, SignalLine: -0.1, Histogram: -0.2,
			Signal: model.SignalSell, Relation: model.RelationBelow, At: base.Add(time.Minute)},
	}
	for i := range events {
		require.NoError(t, rec.RecordSignal(&events[i]))
	}

	got, err := rec.RecentSignals(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "beta", got[0].TokenID)
	assert.Equal(t, model.SignalSell, got[0].Signal)
	assert.Equal(t, model.RelationBelow, got[0].Relation)
	assert.Equal(t, "alpha", got[1].TokenID)
	assert.InDelta(t, 0.2, got[1].MACD, 1e-12)
	assert.True(t, got[1].At.Equal(base))

	limited, err := rec.RecentSignals(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorderTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.db")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)

	require.NoError(t, rec.RecordTick(&model.TickSummary{
		TickID: "tick-1", Network: model.NetworkTON, StartedAt: time.Now(),
		Duration: 3 * time.Second, Tokens: 4, Updated: 3, Unavailable: 1, Buys: 1,
	}))

	var count, unavailable int
	row := rec.db.QueryRow(`SELECT COUNT(*), SUM(unavailable) FROM tick_summaries WHERE network = ?`, "ton")
	require.NoError(t, row.Scan(&count, &unavailable))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, unavailable)
	require.NoError(t, rec.Close())

	// Reopening runs migrations again without losing rows.
	rec, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer rec.Close()
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM tick_summaries`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordSignal(&model.SignalEvent{}))
	assert.NoError(t, rec.RecordTick(&model.TickSummary{}))
	got, err := rec.RecentSignals(5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, rec.Close())
}
