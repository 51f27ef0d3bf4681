// Package race implements the race simulation: pure state transitions
// (Step, Ambient, ApplyBoost), a locked Engine around them, and the
// Simulator that drives the engine from two tickers.
package race

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Sampler is the randomness the simulation needs. *rand.Rand from
// math/rand/v2 satisfies it.
type Sampler interface {
	Float64() float64
	IntN(n int) int
}

// Request asks for one commentary message. When Text is empty the
// caller generates text for Symbol/Tone; otherwise Text is used verbatim.
type Request struct {
	Symbol string
	Tone   domain.Tone
	Text   string
}

// Step advances both competitors by one primary tick. It returns the
// next snapshot and the commentary requests the tick produced. s is not
// modified.
func Step(cfg Config, s domain.Snapshot, rng Sampler) (domain.Snapshot, []Request) {
	cfg = cfg.clampRanges()
	next := s
	next.Tick++

	var reqs []Request
	for i := range next.Competitors {
		c := &next.Competitors[i]
		change := (rng.Float64() - cfg.DriftBias) * cfg.PerturbationScale

		c.State.Position = clamp(c.State.Position+change, cfg.PositionMin, cfg.PositionMax)
		c.State.Odds = clamp(c.State.Odds+change*cfg.OddsFactor, cfg.OddsMin, cfg.OddsMax)
		if step := cfg.VolumeStep[i]; step > 0 {
			c.State.Volume += rng.Float64() * step
		}

		if math.Abs(change) > cfg.NotabilityThreshold {
			tone := domain.ToneBearish
			if change > 0 {
				tone = domain.ToneBullish
			}
			reqs = append(reqs, Request{Symbol: c.Symbol, Tone: tone})
		}
	}
	return next, reqs
}

// Ambient rolls the ambient-event dice once. It returns at most one
// request, independent of competitor state.
func Ambient(cfg Config, s domain.Snapshot, rng Sampler) []Request {
	if len(cfg.AmbientTones) == 0 || rng.Float64() >= cfg.AmbientProbability {
		return nil
	}
	tone := cfg.AmbientTones[rng.IntN(len(cfg.AmbientTones))]

	pool := make([]string, 0, 2+len(cfg.AmbientSymbols))
	pool = append(pool, s.Competitors[0].Symbol, s.Competitors[1].Symbol)
	pool = append(pool, cfg.AmbientSymbols...)
	return []Request{{Symbol: pool[rng.IntN(len(pool))], Tone: tone}}
}

// ApplyBoost nudges the named competitor forward and returns the alert
// request announcing it. Invalid input leaves s untouched.
func ApplyBoost(cfg Config, s domain.Snapshot, symbol string, amount float64) (domain.Snapshot, Request, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return s, Request{}, fmt.Errorf("boost %v: %w", amount, domain.ErrInvalidAmount)
	}
	idx := s.Index(symbol)
	if idx < 0 {
		return s, Request{}, fmt.Errorf("boost %q: %w", symbol, domain.ErrUnknownCompetitor)
	}
	cfg = cfg.clampRanges()

	next := s
	c := &next.Competitors[idx]
	c.State.Position = clamp(c.State.Position+cfg.BoostPositionBonus, cfg.PositionMin, cfg.PositionMax)
	c.State.Odds = clamp(c.State.Odds+cfg.BoostOddsBonus, cfg.OddsMin, cfg.OddsMax)

	return next, Request{
		Symbol: c.Symbol,
		Tone:   domain.ToneAlert,
		Text:   BoostLine(c.Symbol, amount),
	}, nil
}

// BoostLine is the announcement for a boost.
func BoostLine(symbol string, amount float64) string {
	return fmt.Sprintf("New backing joins the %s camp! +$%s BOOST!", symbol, strconv.FormatFloat(amount, 'f', -1, 64))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Engine owns the two competitor states. All methods are safe for
// concurrent use; readers only ever see copies.
type Engine struct {
	cfg Config
	log *logger.Logger

	mu    sync.Mutex
	state domain.Snapshot
	rng   Sampler
	now   func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithSampler replaces the random source (use a seeded one in tests).
func WithSampler(rng Sampler) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine for the given race.
func NewEngine(r *domain.Race, cfg Config, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg: cfg,
		log: log,
		rng: newSampler(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	c := cfg.clampRanges()
	for i := range e.state.Competitors {
		st := r.Start[i]
		st.Position = clamp(st.Position, c.PositionMin, c.PositionMax)
		st.Odds = clamp(st.Odds, c.OddsMin, c.OddsMax)
		st.Volume = math.Max(0, st.Volume)
		e.state.Competitors[i] = domain.Competitor{Symbol: r.Symbols[i], State: st}
	}
	e.state.UpdatedAt = e.now()
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tick runs one primary update and returns the commentary it requests.
func (e *Engine) Tick() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, reqs := Step(e.cfg, e.state, e.rng)
	next.UpdatedAt = e.now()
	e.state = next

	a, b := next.Competitors[0], next.Competitors[1]
	e.log.Debug("race: tick %d %s=%.2f/%.2f %s=%.2f/%.2f notable=%d",
		next.Tick, a.Symbol, a.State.Position, a.State.Odds, b.Symbol, b.State.Position, b.State.Odds, len(reqs))
	return reqs
}

// AmbientTick rolls for a random market event.
func (e *Engine) AmbientTick() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Ambient(e.cfg, e.state, e.rng)
}

// Boost applies a boost for symbol. Validation errors are returned
// without mutating state.
func (e *Engine) Boost(symbol string, amount float64) (Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, req, err := ApplyBoost(e.cfg, e.state, symbol, amount)
	if err != nil {
		return Request{}, err
	}
	next.UpdatedAt = e.now()
	e.state = next
	e.log.Info("race: boost %s +%v", req.Symbol, amount)
	return req, nil
}
