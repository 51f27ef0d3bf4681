package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
	"github.com/sony/gobreaker/v2"
)

// Compile-time interface check.
var _ domain.SpeechBackend = (*Fallback)(nil)

const (
	// DefaultPrimaryTimeout bounds how long Fallback waits for the primary
	// to start playing before giving the utterance to the secondary. It
	// stays well under the narration safety timeout so the secondary still
	// has room to speak the same line.
	DefaultPrimaryTimeout = 4 * time.Second

	// DefaultBreakerCooldown is how long the breaker stays open before
	// letting a single trial request through.
	DefaultBreakerCooldown = time.Minute

	breakerTripAfter = 3
)

// Fallback speaks through primary and, when that fails, through
// secondary for the same utterance. A circuit breaker skips primary
// entirely after repeated failures so a dead provider costs no latency.
type Fallback struct {
	primary        domain.SpeechBackend
	secondary      domain.SpeechBackend
	breaker        *gobreaker.CircuitBreaker[domain.Playback]
	primaryTimeout time.Duration
	log            *logger.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*fallbackConfig)

type fallbackConfig struct {
	primaryTimeout time.Duration
	cooldown       time.Duration
}

// WithPrimaryTimeout overrides DefaultPrimaryTimeout.
func WithPrimaryTimeout(d time.Duration) FallbackOption {
	return func(c *fallbackConfig) {
		if d > 0 {
			c.primaryTimeout = d
		}
	}
}

// WithBreakerCooldown overrides DefaultBreakerCooldown.
func WithBreakerCooldown(d time.Duration) FallbackOption {
	return func(c *fallbackConfig) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// NewFallback combines two backends. Three consecutive primary failures
// open the breaker; after the cooldown one trial request decides whether
// it closes again.
func NewFallback(primary, secondary domain.SpeechBackend, log *logger.Logger, opts ...FallbackOption) *Fallback {
	cfg := fallbackConfig{
		primaryTimeout: DefaultPrimaryTimeout,
		cooldown:       DefaultBreakerCooldown,
	}
	for _, o := range opts {
		o(&cfg)
	}

	name := primary.Name()
	cb := gobreaker.NewCircuitBreaker[domain.Playback](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: isProviderSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				log.Warn("breaker %s: open for %s", name, cfg.cooldown)
			case gobreaker.StateHalfOpen:
				log.Info("breaker %s: half-open, trying again", name)
			case gobreaker.StateClosed:
				log.Info("breaker %s: closed", name)
			}
		},
	})

	return &Fallback{
		primary:        primary,
		secondary:      secondary,
		breaker:        cb,
		primaryTimeout: cfg.primaryTimeout,
		log:            log,
	}
}

// isProviderSuccess classifies a primary result for the breaker. Only a
// caller cancellation is left out; a deadline that expired while the
// provider was working counts as a failure.
func isProviderSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// Name reports both backends, e.g. "azure+local".
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Available reports whether either backend can speak.
func (f *Fallback) Available() bool {
	return f.primary.Available() || f.secondary.Available()
}

// Speak tries primary, then secondary. Cancellation is never retried.
func (f *Fallback) Speak(ctx context.Context, text string, opts domain.SpeakOptions) (domain.Playback, error) {
	pb, err := f.breaker.Execute(func() (domain.Playback, error) {
		pctx, cancel := context.WithTimeout(ctx, f.primaryTimeout)
		defer cancel()
		pb, err := f.primary.Speak(pctx, text, opts)
		if err == nil && pb == nil {
			err = fmt.Errorf("%s: no playback", f.primary.Name())
		}
		return pb, err
	})
	if err == nil {
		return pb, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	if ctx.Err() != nil {
		// The caller's own deadline is gone; the secondary has no time left.
		return nil, err
	}
	if !f.secondary.Available() {
		return nil, err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		f.log.Debug("fallback: %s skipped (breaker %s)", f.primary.Name(), f.breaker.State())
	} else {
		f.log.Warn("fallback: %s failed, using %s: %v", f.primary.Name(), f.secondary.Name(), err)
	}
	pb, err2 := f.secondary.Speak(ctx, text, opts)
	if err2 != nil {
		return nil, fmt.Errorf("fallback: %w", errors.Join(err, err2))
	}
	return pb, nil
}

// BreakerState reports the primary's breaker state for status output.
func (f *Fallback) BreakerState() gobreaker.State { return f.breaker.State() }

// Prefetch forwards to primary when it supports prefetching.
func (f *Fallback) Prefetch(ctx context.Context, opts domain.SpeakOptions, texts ...string) error {
	if p, ok := f.primary.(Prefetcher); ok {
		return p.Prefetch(ctx, opts, texts...)
	}
	return nil
}
