package notifier

import (
	"testing"
	"time"

	"TokenSentinel/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234.5, "1234.5000"},
		{1, "1.0000"},
		{0.5, "0.5"},
		{0.00000123, "0.00000123"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.in), "price %v", tt.in)
	}
}

func TestFormatSignalAlert(t *testing.T) {
	evt := &model.SignalEvent{
		TokenID: "toncoin", Symbol: "ton", Price: 5.25,
		MACD: 0.012, SignalLine: 0.01, Histogram: 0.002,
		Signal: model.SignalBuy, Relation: model.RelationAbove,
		At: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
	}
	msg := FormatSignalAlert(evt)

	assert.Contains(t, msg, "🟢 <b>BUY</b> | TON (toncoin)")
	assert.Contains(t, msg, "Price: 5.2500")
	assert.Contains(t, msg, "now above the signal line")
	assert.Contains(t, msg, "2026-05-04 10:30:00")
}

func TestFormatSignalAlertEscapesHTML(t *testing.T) {
	msg := FormatSignalAlert(&model.SignalEvent{TokenID: "a<b>", Signal: model.SignalSell, Relation: model.RelationBelow})
	assert.Contains(t, msg, "a&lt;b&gt;")
	assert.Contains(t, msg, "🔴")
}

func TestFormatStatus(t *testing.T) {
	assert.Contains(t, FormatStatus(model.NetworkTON, 0, 3, nil), "No tick has completed yet.")

	sum := &model.TickSummary{
		Network: model.NetworkTON, Tokens: 3, Updated: 2, Unavailable: 1,
		Buys: 1, Duration: 1500 * time.Millisecond, Interrupted: true,
	}
	msg := FormatStatus(model.NetworkTON, 2, 3, sum)
	assert.Contains(t, msg, "Tokens tracked: 2")
	assert.Contains(t, msg, "updated 2, unavailable 1, invalid 0")
	assert.Contains(t, msg, "1 buy / 0 sell")
	assert.Contains(t, msg, "1.5s (interrupted)")
}

func TestFormatRecentSignals(t *testing.T) {
	assert.Equal(t, "No crossovers recorded yet.", FormatRecentSignals(nil))

	msg := FormatRecentSignals([]model.SignalEvent{
		{TokenID: "x", Symbol: "xx", Signal: model.SignalSell, Price: 2},
	})
	assert.Contains(t, msg, "SELL XX @ 2.0000")
}
