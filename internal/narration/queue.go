// Package narration turns commentary into speech. The Queue serializes
// utterances through a single speech backend: one plays at a time, in
// the order they were accepted.
package narration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// DefaultSafetyTimeout bounds a single utterance. After it elapses the
// playback is stopped and the queue moves on.
const DefaultSafetyTimeout = 10 * time.Second

// DefaultSpeakOptions are the voice settings used for every utterance.
var DefaultSpeakOptions = domain.SpeakOptions{
	Rate:     1.2,
	Pitch:    1.0,
	Volume:   0.8,
	Language: "en-US",
}

// State is the drain state of the queue.
type State int

const (
	StateIdle State = iota
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats counts utterance outcomes since construction.
type Stats struct {
	Accepted int
	Spoken   int
	Failed   int
	TimedOut int
	Dropped  int // cleared from the backlog by Disable
}

// Option configures the Queue.
type Option func(*Queue)

// WithSafetyTimeout overrides DefaultSafetyTimeout.
func WithSafetyTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.safetyTimeout = d
		}
	}
}

// WithSpeakOptions overrides DefaultSpeakOptions.
func WithSpeakOptions(opts domain.SpeakOptions) Option {
	return func(q *Queue) {
		q.speakOpts = opts
	}
}

// WithSanitizer replaces the default sanitizer.
func WithSanitizer(s *Sanitizer) Option {
	return func(q *Queue) {
		q.sanitizer = s
	}
}

// WithEnabled sets the initial enabled flag. Narration starts disabled.
func WithEnabled(enabled bool) Option {
	return func(q *Queue) {
		q.enabled = enabled
	}
}

// Queue is the narration dispatcher. Safe for concurrent use.
//
// Every Disable bumps a generation counter. A drain goroutine only
// touches the backlog while its generation is current, so a playback
// that completes after Disable can never start another utterance.
type Queue struct {
	backend       domain.SpeechBackend
	log           *logger.Logger
	sanitizer     *Sanitizer
	speakOpts     domain.SpeakOptions
	safetyTimeout time.Duration

	mu      sync.Mutex
	enabled bool
	closed  bool
	state   State
	backlog []string
	gen     uint64
	active  domain.Playback
	cancel  context.CancelFunc
	stats   Stats

	wg sync.WaitGroup
}

// New creates a narration queue over backend. backend may be nil, in
// which case the queue reports itself unsupported.
func New(backend domain.SpeechBackend, log *logger.Logger, opts ...Option) *Queue {
	q := &Queue{
		backend:       backend,
		log:           log,
		sanitizer:     NewSanitizer(),
		speakOpts:     DefaultSpeakOptions,
		safetyTimeout: DefaultSafetyTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.enabled && !q.IsSupported() {
		q.enabled = false
	}
	return q
}

// IsSupported reports whether a speech mechanism is available.
func (q *Queue) IsSupported() bool {
	return q.backend != nil && q.backend.Available()
}

// Backend returns the name of the active backend, or "none".
func (q *Queue) Backend() string {
	if q.backend == nil {
		return "none"
	}
	return q.backend.Name()
}

// Enable turns narration on. It fails with ErrUnsupported when no
// backend is available, leaving the queue disabled.
func (q *Queue) Enable() error {
	if !q.IsSupported() {
		return fmt.Errorf("narration: %w", domain.ErrUnsupported)
	}
	q.mu.Lock()
	q.enabled = true
	q.mu.Unlock()
	q.log.Info("narration enabled (%s)", q.Backend())
	return nil
}

// Disable turns narration off, clears the backlog and stops the
// in-flight utterance. Messages already in the feed are untouched.
func (q *Queue) Disable() {
	q.mu.Lock()
	dropped := len(q.backlog)
	q.enabled = false
	q.backlog = nil
	q.stats.Dropped += dropped
	q.gen++
	q.state = StateIdle
	active, cancel := q.active, q.cancel
	q.active, q.cancel = nil, nil
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if active != nil {
		active.Stop()
	}
	q.log.Info("narration disabled (dropped %d pending)", dropped)
}

// Toggle flips the enabled flag and returns the new value.
func (q *Queue) Toggle() (bool, error) {
	if q.Enabled() {
		q.Disable()
		return false, nil
	}
	if err := q.Enable(); err != nil {
		return false, err
	}
	return true, nil
}

// Enabled reports the enabled flag.
func (q *Queue) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// Speak queues text for narration. Non-blocking. It reports whether the
// text was accepted: disabled queues and text that sanitizes to nothing
// are ignored.
func (q *Queue) Speak(text string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.enabled || q.closed {
		return false
	}
	clean := q.sanitizer.Clean(text)
	if clean == "" {
		q.log.Debug("narration: discarded empty utterance")
		return false
	}

	q.backlog = append(q.backlog, clean)
	q.stats.Accepted++
	q.log.Debug("narration: queued (backlog=%d): %s", len(q.backlog), logger.Clip(clean, 60))

	if q.state == StateIdle {
		q.state = StateDraining
		q.wg.Add(1)
		go q.drain(q.gen)
	}
	return true
}

// State returns the current drain state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Pending returns the number of utterances waiting behind the active one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Stats returns a copy of the outcome counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Close disables narration, rejects further Speak calls and waits for
// the drain goroutine to exit.
func (q *Queue) Close() {
	q.Disable()
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

// drain pops and speaks utterances until the backlog is empty or the
// generation changes.
func (q *Queue) drain(gen uint64) {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if q.gen != gen {
			q.mu.Unlock()
			return
		}
		if len(q.backlog) == 0 {
			q.state = StateIdle
			q.mu.Unlock()
			q.log.Debug("narration: drained")
			return
		}
		text := q.backlog[0]
		q.backlog = q.backlog[1:]
		ctx, cancel := context.WithTimeout(context.Background(), q.safetyTimeout)
		q.cancel = cancel
		q.mu.Unlock()

		q.speakOne(ctx, gen, text)
		cancel()
	}
}

// speakOne runs a single utterance to completion, failure, timeout or
// cancellation. Errors never stop the drain.
func (q *Queue) speakOne(ctx context.Context, gen uint64, text string) {
	start := time.Now()
	q.log.Debug("narration: speaking via %s: %s", q.backend.Name(), logger.Clip(text, 60))

	pb, err := q.backend.Speak(ctx, text, q.speakOpts)
	if err != nil {
		q.finish(gen, func(s *Stats) {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				s.TimedOut++
			case errors.Is(err, context.Canceled):
			default:
				s.Failed++
			}
		})
		if errors.Is(err, context.Canceled) {
			return
		}
		q.log.Error("narration: %s speak failed: %v", q.backend.Name(), err)
		return
	}

	q.mu.Lock()
	if q.gen != gen {
		q.mu.Unlock()
		pb.Stop()
		return
	}
	q.active = pb
	q.mu.Unlock()

	select {
	case <-pb.Done():
		if err := pb.Err(); err != nil {
			q.finish(gen, func(s *Stats) { s.Failed++ })
			q.log.Error("narration: playback failed: %v", err)
			return
		}
		q.finish(gen, func(s *Stats) { s.Spoken++ })
		q.log.Debug("narration: spoken in %s", time.Since(start).Round(time.Millisecond))
	case <-ctx.Done():
		pb.Stop()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			q.finish(gen, func(s *Stats) { s.TimedOut++ })
			q.log.Warn("narration: no completion after %s, moving on", q.safetyTimeout)
			return
		}
		q.finish(gen, nil)
	}
}

// finish clears the active handle if gen is still current and records
// the outcome.
func (q *Queue) finish(gen uint64, record func(*Stats)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen == gen {
		q.active = nil
		q.cancel = nil
	}
	if record != nil {
		record(&q.stats)
	}
}
