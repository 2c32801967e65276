package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"TokenSentinel/internal/collector"
	"TokenSentinel/internal/indicator"
	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/metrics"
	"TokenSentinel/internal/model"
	"TokenSentinel/internal/notifier"
	"TokenSentinel/internal/recorder"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler drives the scan ticks and the token list refresh.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Engine    *indicator.Engine
	Reporters []notifier.Reporter
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Ctx       context.Context

	// RequestDelay spaces consecutive price fetches within a tick.
	RequestDelay time.Duration

	// tickMu serializes ticks with the eviction step of a refresh.
	tickMu sync.Mutex

	mu       sync.RWMutex
	tokens   []model.Token
	lastTick *model.TickSummary

	log *logrus.Entry
}

// NewScheduler creates a new Scheduler. A nil recorder or metrics set is
// replaced by a no-op recorder and a private registry.
func NewScheduler(ctx context.Context, col *collector.Collector, eng *indicator.Engine, rec recorder.Recorder, met *metrics.Metrics, reporters ...notifier.Reporter) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if met == nil {
		met = metrics.NewMetrics()
	}
	lg := logger.Component("scheduler")
	cronLog := cron.PrintfLogger(lg)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		Collector:    col,
		Engine:       eng,
		Reporters:    reporters,
		Recorder:     rec,
		Metrics:      met,
		Ctx:          ctx,
		RequestDelay: time.Second,
		log:          lg,
	}
}

// RegisterAll registers the tick job every wick and, unless refreshCron is
// empty, the token list refresh.
func (s *Scheduler) RegisterAll(wick time.Duration, refreshCron string) error {
	if wick < time.Second {
		return errors.Errorf("wick duration %s below 1s", wick)
	}
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", wick), s.tickTask); err != nil {
		return errors.Wrap(err, "register tick task")
	}
	if refreshCron == "" {
		s.log.Info("token refresh disabled, tracked tokens are never evicted")
		return nil
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return errors.Wrap(err, "register refresh task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) tickTask() {
	s.RunTick(s.Ctx)
}

func (s *Scheduler) refreshTask() {
	if err := s.RefreshTokens(s.Ctx); err != nil {
		s.log.Errorf("refresh token list, keeping previous list: %v", err)
	}
}

// Tokens returns the current scan list.
func (s *Scheduler) Tokens() []model.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Token(nil), s.tokens...)
}

// LastTick returns the summary of the most recent tick, or nil.
func (s *Scheduler) LastTick() *model.TickSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastTick == nil {
		return nil
	}
	sum := *s.lastTick
	return &sum
}

// RefreshTokens re-enumerates the network and drops indicator state of
// tokens that are no longer listed. The eviction waits for a running tick,
// so a tick never recreates a token that was just dropped.
func (s *Scheduler) RefreshTokens(ctx context.Context) error {
	tokens, err := s.Collector.Tokens(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = t.ID
	}

	s.tickMu.Lock()
	evicted := s.Engine.Retain(ids)
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	s.tickMu.Unlock()

	s.Metrics.TokensListed.Set(float64(len(tokens)))
	s.Metrics.TokensTracked.Set(float64(s.Engine.Len()))
	s.Metrics.Evictions.Add(float64(len(evicted)))
	s.log.Infof("token list refreshed: %d %s tokens, %d evicted", len(tokens), s.Collector.Network, len(evicted))
	if len(evicted) > 0 {
		s.log.Debugf("evicted: %s", strings.Join(evicted, ", "))
	}
	return nil
}

// RunTick samples every listed token once, feeds the engine and reports the
// resulting events. It returns nil when another tick is still running.
func (s *Scheduler) RunTick(ctx context.Context) *model.TickSummary {
	if !s.tickMu.TryLock() {
		s.log.Warn("previous tick or token refresh still running, skipping")
		return nil
	}
	defer s.tickMu.Unlock()

	tokens := s.Tokens()
	sum := &model.TickSummary{
		TickID:    uuid.NewString(),
		Network:   s.Collector.Network,
		StartedAt: time.Now(),
		Tokens:    len(tokens),
	}
	lg := s.log.WithField("tick", sum.TickID)
	lg.Debugf("tick started over %d tokens", len(tokens))

	for i, tok := range tokens {
		if (i > 0 && !wait(ctx, s.RequestDelay)) || ctx.Err() != nil {
			sum.Interrupted = true
			break
		}

		sample, err := s.Collector.Sample(ctx, tok.ID)
		if err != nil {
			if ctx.Err() != nil {
				sum.Interrupted = true
				break
			}
			sum.Unavailable++
			s.Metrics.FetchFailures.WithLabelValues(s.Collector.Fetcher.Name()).Inc()
			lg.WithField("token", tok.ID).Debugf("no price data: %v", err)
			continue
		}

		evt, err := s.Engine.Observe(sample)
		if err != nil {
			sum.Invalid++
			s.Metrics.InvalidPrices.Inc()
			lg.WithField("token", tok.ID).Warnf("sample rejected: %v", err)
			continue
		}
		sum.Updated++

		evt.TickID = sum.TickID
		evt.Symbol = tok.Symbol
		switch evt.Signal {
		case model.SignalBuy:
			sum.Buys++
		case model.SignalSell:
			sum.Sells++
		}
		s.Metrics.ObserveSignal(evt.Signal)
		s.report(ctx, &evt)
	}

	sum.Duration = time.Since(sum.StartedAt)
	s.Metrics.ObserveTick(sum)
	s.Metrics.TokensTracked.Set(float64(s.Engine.Len()))
	if err := s.Recorder.RecordTick(sum); err != nil {
		s.Metrics.ReportErrors.WithLabelValues("recorder").Inc()
		lg.Errorf("record tick: %v", err)
	}

	s.mu.Lock()
	last := *sum
	s.lastTick = &last
	s.mu.Unlock()

	lg.WithFields(logrus.Fields{
		"updated":     sum.Updated,
		"unavailable": sum.Unavailable,
		"invalid":     sum.Invalid,
		"buys":        sum.Buys,
		"sells":       sum.Sells,
		"interrupted": sum.Interrupted,
	}).Infof("tick finished in %s", sum.Duration.Round(time.Millisecond))
	return sum
}

func (s *Scheduler) report(ctx context.Context, evt *model.SignalEvent) {
	for _, r := range s.Reporters {
		if err := r.Report(ctx, evt); err != nil {
			s.Metrics.ReportErrors.WithLabelValues(r.Name()).Inc()
			s.log.WithField("token", evt.TokenID).Errorf("%s report: %v", r.Name(), err)
		}
	}
	if !evt.Signal.Actionable() {
		return
	}
	if err := s.Recorder.RecordSignal(evt); err != nil {
		s.Metrics.ReportErrors.WithLabelValues("recorder").Inc()
		s.log.WithField("token", evt.TokenID).Errorf("record signal: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/status":
		s.mu.RLock()
		listed := len(s.tokens)
		s.mu.RUnlock()
		return notifier.FormatStatus(s.Collector.Network, s.Engine.Len(), listed, s.LastTick())
	case "/token":
		if len(fields) < 2 {
			return "Usage: /token &lt;id&gt;"
		}
		st, ok := s.Engine.State(fields[1])
		if !ok {
			return fmt.Sprintf("Token %s is not tracked.", html.EscapeString(fields[1]))
		}
		return notifier.FormatTokenState(st.Snapshot(), st.LastRelation)
	case "/signals":
		events, err := s.Recorder.RecentSignals(10)
		if err != nil {
			s.log.Errorf("load recent signals: %v", err)
			return "Failed to load recent signals."
		}
		return notifier.FormatRecentSignals(events)
	default:
		return notifier.HelpText()
	}
}

// wait sleeps for d unless ctx ends first. It reports whether ctx is still live.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
