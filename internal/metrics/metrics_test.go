package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"TokenSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTick(t *testing.T) {
	m := NewMetrics()
	m.ObserveTick(&model.TickSummary{Duration: 2 * time.Second})
	m.ObserveTick(&model.TickSummary{Duration: time.Second, Interrupted: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicksInterrupted))
}

func TestObserveSignal(t *testing.T) {
	m := NewMetrics()
	m.ObserveSignal(model.SignalBuy)
	m.ObserveSignal(model.SignalBuy)
	m.ObserveSignal(model.SignalHold)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("HOLD")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.TokensTracked.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tokensentinel_tokens_tracked 3")
}

func TestIndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.Evictions.Add(2)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Evictions))
}
