package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TokenSentinel/internal/indicator"
	"TokenSentinel/internal/metrics"
	"TokenSentinel/internal/model"
	"TokenSentinel/internal/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStatus struct {
	tokens []model.Token
	last   *model.TickSummary
}

func (s staticStatus) Tokens() []model.Token        { return s.tokens }
func (s staticStatus) LastTick() *model.TickSummary { return s.last }

type fixedRecorder struct {
	recorder.NoopRecorder
	events []model.SignalEvent
	limit  int
}

func (f *fixedRecorder) RecentSignals(limit int) ([]model.SignalEvent, error) {
	f.limit = limit
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func newTestServer(t *testing.T) (*Server, *fixedRecorder) {
	t.Helper()
	eng := indicator.NewDefaultEngine()
	for _, p := range []float64{1, 1.1, 1.2} {
		_, err := eng.Update("alpha", p)
		require.NoError(t, err)
	}
	_, err := eng.Update("beta", 3)
	require.NoError(t, err)

	rec := &fixedRecorder{events: []model.SignalEvent{
		{TokenID: "alpha", Signal: model.SignalBuy, Price: 1.2, At: time.Unix(1700000000, 0)},
		{TokenID: "beta", Signal: model.SignalSell, Price: 3, At: time.Unix(1699990000, 0)},
	}}
	status := staticStatus{
		tokens: []model.Token{{ID: "alpha", Symbol: "alp"}, {ID: "beta", Symbol: "bet"}},
		last:   &model.TickSummary{TickID: "tick-1", Updated: 2},
	}
	return New(model.NetworkTON, eng, rec, metrics.NewMetrics(), status), rec
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w, body := get(t, s.Router(), "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ton", body["network"])
	assert.EqualValues(t, 2, body["tokens_tracked"])
	assert.Equal(t, "tick-1", body["last_tick"].(map[string]any)["id"])
}

func TestTokens(t *testing.T) {
	s, _ := newTestServer(t)
	w, body := get(t, s.Router(), "/api/tokens")

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	tokens := body["tokens"].([]any)
	first := tokens[0].(map[string]any)
	assert.Equal(t, "alpha", first["id"])
	assert.Equal(t, "alp", first["symbol"])
	assert.EqualValues(t, 3, first["samples"])
	assert.NotContains(t, first, "macd_history")
}

func TestToken(t *testing.T) {
	s, _ := newTestServer(t)
	w, body := get(t, s.Router(), "/api/tokens/alpha")

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.2, body["price"], 1e-12)
	assert.Len(t, body["macd_history"], 3)

	w, body = get(t, s.Router(), "/api/tokens/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", body["id"])
}

func TestSignals(t *testing.T) {
	s, rec := newTestServer(t)

	w, body := get(t, s.Router(), "/api/signals?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, rec.limit)
	assert.EqualValues(t, 1, body["count"])

	_, _ = get(t, s.Router(), "/api/signals")
	assert.Equal(t, 20, rec.limit)

	w, _ = get(t, s.Router(), "/api/signals?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	s.metrics.TokensTracked.Set(2)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tokensentinel_tokens_tracked 2")
}

func TestStartStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
