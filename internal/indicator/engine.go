package indicator

import (
	"math"
	"sort"
	"strings"
	"sync"

	"TokenSentinel/internal/calculator"
	"TokenSentinel/internal/model"
	"TokenSentinel/internal/strategy"

	"github.com/pkg/errors"
)

type entry struct {
	mu    sync.Mutex
	state State
}

// Engine keeps MACD state per token and advances it one sample at a time.
// Updates for different tokens run in parallel; updates for the same token
// are serialized.
type Engine struct {
	params calculator.MACDParams

	mu     sync.RWMutex
	tokens map[string]*entry
}

// NewEngine creates an engine with the given MACD periods.
func NewEngine(params calculator.MACDParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "indicator params")
	}
	return &Engine{
		params: params,
		tokens: make(map[string]*entry, 64),
	}, nil
}

// NewDefaultEngine creates a 12/26/9 engine.
func NewDefaultEngine() *Engine {
	e, _ := NewEngine(calculator.DefaultMACDParams)
	return e
}

// Params returns the MACD periods in use.
func (e *Engine) Params() calculator.MACDParams { return e.params }

// Update consumes an untimestamped price for tokenID.
func (e *Engine) Update(tokenID string, price float64) (model.IndicatorSnapshot, error) {
	return e.UpdateSample(model.PriceSample{TokenID: tokenID, Price: price})
}

// UpdateSample consumes one price sample. A rejected sample leaves the
// token's state untouched.
func (e *Engine) UpdateSample(s model.PriceSample) (model.IndicatorSnapshot, error) {
	if err := validateSample(s); err != nil {
		return model.IndicatorSnapshot{}, err
	}
	ent := e.entry(s.TokenID)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return e.apply(ent, s)
}

// Observe runs the per-tick pipeline for one token: update the indicator,
// classify against the stored relationship and store the new relationship.
// The event is returned for Hold as well.
func (e *Engine) Observe(s model.PriceSample) (model.SignalEvent, error) {
	if err := validateSample(s); err != nil {
		return model.SignalEvent{}, err
	}
	ent := e.entry(s.TokenID)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	snap, err := e.apply(ent, s)
	if err != nil {
		return model.SignalEvent{}, err
	}
	sig, rel := strategy.Classify(ent.state.LastRelation, snap.MACD, snap.Signal)
	ent.state.LastRelation = rel

	return model.SignalEvent{
		TokenID:        s.TokenID,
		Price:          snap.Price,
		MACD:           snap.MACD,
		SignalLine:     snap.Signal,
		Histogram:      snap.Histogram,
		Signal:         sig,
		Relation:       rel,
		HasPriorSignal: snap.HasPriorSignal,
		At:             s.At,
	}, nil
}

// apply must be called with ent.mu held.
func (e *Engine) apply(ent *entry, s model.PriceSample) (model.IndicatorSnapshot, error) {
	cur := ent.state
	if !s.At.IsZero() && !cur.LastSampleAt.IsZero() && !s.At.After(cur.LastSampleAt) {
		return model.IndicatorSnapshot{}, errors.Wrapf(ErrOutOfOrderSample,
			"token %s: %s not after %s", s.TokenID, s.At.Format("15:04:05.000"), cur.LastSampleAt.Format("15:04:05.000"))
	}
	hasPrior := cur.Samples > 0
	ent.state = cur.next(s.Price, s.At, e.params.Signal)
	return ent.state.snapshot(hasPrior), nil
}

func (e *Engine) entry(tokenID string) *entry {
	e.mu.RLock()
	ent, ok := e.tokens[tokenID]
	e.mu.RUnlock()
	if ok {
		return ent
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok = e.tokens[tokenID]; ok {
		return ent
	}
	ent = &entry{state: newState(tokenID, e.params)}
	e.tokens[tokenID] = ent
	return ent
}

// State returns a copy of the token's state.
func (e *Engine) State(tokenID string) (State, bool) {
	e.mu.RLock()
	ent, ok := e.tokens[tokenID]
	e.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.state.clone(), true
}

// States returns copies of every tracked token's state, sorted by token id.
func (e *Engine) States() []State {
	ids := e.Tokens()
	states := make([]State, 0, len(ids))
	for _, id := range ids {
		if st, ok := e.State(id); ok {
			states = append(states, st)
		}
	}
	return states
}

// Tokens returns the tracked token ids in sorted order.
func (e *Engine) Tokens() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.tokens))
	for id := range e.tokens {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked tokens.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tokens)
}

// Evict drops the state of one token.
func (e *Engine) Evict(tokenID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tokens[tokenID]; !ok {
		return false
	}
	delete(e.tokens, tokenID)
	return true
}

// Retain evicts every token not listed in active and returns the evicted
// ids in sorted order.
func (e *Engine) Retain(active []string) []string {
	keep := make(map[string]struct{}, len(active))
	for _, id := range active {
		keep[id] = struct{}{}
	}

	e.mu.Lock()
	var evicted []string
	for id := range e.tokens {
		if _, ok := keep[id]; !ok {
			delete(e.tokens, id)
			evicted = append(evicted, id)
		}
	}
	e.mu.Unlock()

	sort.Strings(evicted)
	return evicted
}

func validateSample(s model.PriceSample) error {
	if strings.TrimSpace(s.TokenID) == "" {
		return ErrEmptyTokenID
	}
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) || s.Price < 0 {
		return errors.Wrapf(ErrInvalidPrice, "token %s: %v", s.TokenID, s.Price)
	}
	return nil
}
