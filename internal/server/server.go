package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"TokenSentinel/internal/indicator"
	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/metrics"
	"TokenSentinel/internal/model"
	"TokenSentinel/internal/recorder"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StatusSource exposes the scan list and the last tick.
type StatusSource interface {
	Tokens() []model.Token
	LastTick() *model.TickSummary
}

// Server is the read-only HTTP status API.
type Server struct {
	engine   *indicator.Engine
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	status   StatusSource
	network  model.Network
	started  time.Time
	log      *logrus.Entry
}

func New(network model.Network, eng *indicator.Engine, rec recorder.Recorder, met *metrics.Metrics, status StatusSource) *Server {
	return &Server{
		engine:   eng,
		recorder: rec,
		metrics:  met,
		status:   status,
		network:  network,
		started:  time.Now(),
		log:      logger.Component("server"),
	}
}

type tokenView struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol,omitempty"`
	Price        float64    `json:"price"`
	FastEMA      float64    `json:"ema_fast"`
	SlowEMA      float64    `json:"ema_slow"`
	MACD         float64    `json:"macd"`
	Signal       float64    `json:"signal"`
	Histogram    float64    `json:"histogram"`
	MACDHistory  []float64  `json:"macd_history,omitempty"`
	Relation     string     `json:"relation"`
	Samples      int        `json:"samples"`
	LastSampleAt *time.Time `json:"last_sample_at,omitempty"`
}

type signalView struct {
	TickID     string    `json:"tick_id"`
	TokenID    string    `json:"token_id"`
	Symbol     string    `json:"symbol,omitempty"`
	Signal     string    `json:"signal"`
	Price      float64   `json:"price"`
	MACD       float64   `json:"macd"`
	SignalLine float64   `json:"signal_line"`
	Histogram  float64   `json:"histogram"`
	At         time.Time `json:"at"`
}

// Router builds the gin engine.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/tokens", s.handleTokens)
	api.GET("/tokens/:id", s.handleToken)
	api.GET("/signals", s.handleSignals)
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("shutdown: %v", err)
		}
	}()

	s.log.Infof("status server listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"network":        s.network,
		"tokens_tracked": s.engine.Len(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if last := s.status.LastTick(); last != nil {
		body["last_tick"] = gin.H{
			"id":          last.TickID,
			"started_at":  last.StartedAt,
			"updated":     last.Updated,
			"unavailable": last.Unavailable,
			"invalid":     last.Invalid,
			"interrupted": last.Interrupted,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) symbols() map[string]string {
	tokens := s.status.Tokens()
	out := make(map[string]string, len(tokens))
	for _, t := range tokens {
		out[t.ID] = t.Symbol
	}
	return out
}

func newTokenView(st indicator.State, symbol string, withHistory bool) tokenView {
	snap := st.Snapshot()
	v := tokenView{
		ID:        st.TokenID,
		Symbol:    symbol,
		Price:     snap.Price,
		FastEMA:   snap.FastEMA,
		SlowEMA:   snap.SlowEMA,
		MACD:      snap.MACD,
		Signal:    snap.Signal,
		Histogram: snap.Histogram,
		Relation:  st.LastRelation.String(),
		Samples:   snap.Samples,
	}
	if withHistory {
		v.MACDHistory = st.MACDHistory
	}
	if !st.LastSampleAt.IsZero() {
		at := st.LastSampleAt
		v.LastSampleAt = &at
	}
	return v
}

func (s *Server) handleTokens(c *gin.Context) {
	symbols := s.symbols()
	states := s.engine.States()
	views := make([]tokenView, 0, len(states))
	for _, st := range states {
		views = append(views, newTokenView(st, symbols[st.TokenID], false))
	}
	c.JSON(http.StatusOK, gin.H{"network": s.network, "count": len(views), "tokens": views})
}

func (s *Server) handleToken(c *gin.Context) {
	id := c.Param("id")
	st, ok := s.engine.State(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not tracked", "id": id})
		return
	}
	c.JSON(http.StatusOK, newTokenView(st, s.symbols()[id], true))
}

func (s *Server) handleSignals(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	events, err := s.recorder.RecentSignals(limit)
	if err != nil {
		s.log.Errorf("recent signals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load signals"})
		return
	}
	views := make([]signalView, 0, len(events))
	for _, e := range events {
		views = append(views, signalView{
			TickID: e.TickID, TokenID: e.TokenID, Symbol: e.Symbol, Signal: string(e.Signal),
			Price: e.Price, MACD: e.MACD, SignalLine: e.SignalLine, Histogram: e.Histogram, At: e.At,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "signals": views})
}
