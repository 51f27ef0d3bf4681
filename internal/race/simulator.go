package race

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Commentator turns a symbol and tone into display text.
type Commentator interface {
	Generate(symbol string, tone domain.Tone) string
}

// Option configures the simulator.
type Option func(*Simulator)

// WithPrimaryInterval overrides the engine config's primary cadence.
func WithPrimaryInterval(d time.Duration) Option {
	return func(s *Simulator) {
		s.primaryInterval = d
	}
}

// WithAmbientInterval overrides the engine config's ambient cadence.
func WithAmbientInterval(d time.Duration) Option {
	return func(s *Simulator) {
		s.ambientInterval = d
	}
}

// WithSnapshotHook registers fn to receive the fresh snapshot after every
// primary tick.
func WithSnapshotHook(fn func(domain.Snapshot)) Option {
	return func(s *Simulator) {
		s.onSnapshot = fn
	}
}

// Simulator runs the engine in the background: a primary ticker that
// perturbs state and a slower ambient ticker for random market events.
// Both feed their commentary requests through the Commentator into the
// Notifier.
type Simulator struct {
	engine      *Engine
	commentator Commentator
	notifier    domain.Notifier
	log         *logger.Logger

	primaryInterval time.Duration
	ambientInterval time.Duration
	onSnapshot      func(domain.Snapshot)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSimulator wires an engine to its commentary sink.
func NewSimulator(engine *Engine, commentator Commentator, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Simulator {
	cfg := engine.Config()
	s := &Simulator{
		engine:          engine,
		commentator:     commentator,
		notifier:        notifier,
		log:             log,
		primaryInterval: cfg.PrimaryInterval,
		ambientInterval: cfg.AmbientInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins both tick loops. Non-blocking.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("race simulator already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.loop(childCtx, s.primaryInterval, s.primary)
	go s.loop(childCtx, s.ambientInterval, s.ambient)

	s.log.Info("race simulator started (primary=%s, ambient=%s)", s.primaryInterval, s.ambientInterval)
}

// Stop halts both loops and waits for an in-progress tick to finish.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("race simulator stopped")
}

// Snapshot returns the current race state.
func (s *Simulator) Snapshot() domain.Snapshot {
	return s.engine.Snapshot()
}

// Boost applies a user boost and always emits one alert message. It is
// safe to call whether or not the loops are running.
func (s *Simulator) Boost(ctx context.Context, symbol string, amount float64) error {
	req, err := s.engine.Boost(symbol, amount)
	if err != nil {
		return err
	}
	s.dispatch(ctx, []Request{req})
	return nil
}

func (s *Simulator) loop(ctx context.Context, every time.Duration, fn func(context.Context)) {
	defer s.wg.Done()
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Simulator) primary(ctx context.Context) {
	reqs := s.engine.Tick()
	if s.onSnapshot != nil {
		s.onSnapshot(s.engine.Snapshot())
	}
	s.dispatch(ctx, reqs)
}

func (s *Simulator) ambient(ctx context.Context) {
	s.dispatch(ctx, s.engine.AmbientTick())
}

// dispatch resolves request text and forwards it. Notifier errors are
// logged and never stop the simulation.
func (s *Simulator) dispatch(ctx context.Context, reqs []Request) {
	for _, req := range reqs {
		text := req.Text
		if text == "" {
			text = s.commentator.Generate(req.Symbol, req.Tone)
		}
		if err := s.notifier.Notify(ctx, text, req.Tone); err != nil {
			s.log.Error("race: notify (%s): %v", req.Tone, err)
		}
	}
}
