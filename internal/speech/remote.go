package speech

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Synthesizer turns text into playable audio bytes over the network.
type Synthesizer interface {
	Name() string
	Voice() string
	Synthesize(ctx context.Context, text string, opts domain.SpeakOptions) ([]byte, error)
}

// prefetchLimit caps concurrent synthesis requests during Prefetch.
const prefetchLimit = 4

// Compile-time interface check.
var _ domain.SpeechBackend = (*Remote)(nil)

// Remote is a speech backend backed by a remote Synthesizer. Responses
// are cached by (provider, voice, options, text), and concurrent
// requests for the same key share one network call.
type Remote struct {
	synth Synthesizer
	sink  AudioSink
	cache *AudioCache
	log   *logger.Logger
	group singleflight.Group
}

// NewRemote wires a synthesizer to an audio sink. A nil cache gets a
// memory-only one.
func NewRemote(synth Synthesizer, sink AudioSink, cache *AudioCache, log *logger.Logger) *Remote {
	if cache == nil {
		cache = NewAudioCache("", false, log)
	}
	return &Remote{synth: synth, sink: sink, cache: cache, log: log}
}

// Name implements domain.SpeechBackend.
func (r *Remote) Name() string { return r.synth.Name() }

// Available reports whether there is somewhere to play audio.
func (r *Remote) Available() bool { return r.sink != nil }

// Speak synthesizes text (or fetches it from the cache) and starts
// playback. Network and auth failures are returned as errors.
func (r *Remote) Speak(ctx context.Context, text string, opts domain.SpeakOptions) (domain.Playback, error) {
	if r.sink == nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), domain.ErrUnsupported)
	}
	audio, err := r.Synthesize(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.sink.Start(audio)
}

// Synthesize returns audio for text, consulting the cache first.
func (r *Remote) Synthesize(ctx context.Context, text string, opts domain.SpeakOptions) ([]byte, error) {
	key := CacheKey(r.synth.Name(), r.synth.Voice(), opts, text)
	if audio, ok := r.cache.Get(key); ok {
		return audio, nil
	}

	// The shared call is detached from the first caller's cancellation.
	// Each caller stops waiting when its own ctx ends.
	ch := r.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultHTTPTimeout)
		defer cancel()
		audio, err := r.synth.Synthesize(sctx, text, opts)
		if err != nil {
			return nil, err
		}
		r.cache.Put(key, audio)
		return audio, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.log.Debug("%s: shared in-flight synthesis for: %s", r.Name(), logger.Clip(text, 40))
		}
		return res.Val.([]byte), nil
	}
}

// Prefetch warms the cache for texts that will be spoken soon. It blocks
// until every request has finished and returns the first error.
func (r *Remote) Prefetch(ctx context.Context, opts domain.SpeakOptions, texts ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)

	for _, text := range texts {
		if text == "" || r.cache.Has(CacheKey(r.synth.Name(), r.synth.Voice(), opts, text)) {
			continue
		}
		g.Go(func() error {
			_, err := r.Synthesize(ctx, text, opts)
			return err
		})
	}
	return g.Wait()
}

// Cache returns the audio cache. Useful for stats/logging.
func (r *Remote) Cache() *AudioCache { return r.cache }
