package speech

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Settings selects and configures the speech backend.
type Settings struct {
	Provider  string // one of Providers; "" means local
	APIKey    string
	Region    string // Azure only
	Voice     string
	CacheDir  string
	DiskWrite bool
	Fallback  bool // fall back to local speech when the remote fails
	Disabled  bool
}

// Prefetcher warms a backend's cache ahead of time.
type Prefetcher interface {
	Prefetch(ctx context.Context, opts domain.SpeakOptions, texts ...string) error
}

// SinkFactory opens the audio output. It is only called when a remote
// provider is selected.
type SinkFactory func() (AudioSink, error)

// Build resolves settings into exactly one backend. Without an API key
// the local synthesizer is used whatever the provider says. If the audio
// device cannot be opened, remote providers degrade to local too.
func Build(s Settings, openSink SinkFactory, log *logger.Logger, localOpts ...LocalOption) (domain.SpeechBackend, error) {
	if s.Disabled {
		return NewSilent(log), nil
	}

	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	if provider == "" {
		provider = ProviderLocal
	}
	if !slices.Contains(Providers, provider) {
		return nil, fmt.Errorf("speech provider %q: %w", s.Provider, domain.ErrUnknownProvider)
	}

	local := NewLocal(log, localOpts...)
	if provider == ProviderLocal || s.APIKey == "" {
		if provider != ProviderLocal {
			log.Warn("speech: no API key for %s, using local synthesizer", provider)
		}
		return local, nil
	}

	sink, err := openSink()
	if err != nil {
		log.Warn("speech: audio output unavailable (%v), using local synthesizer", err)
		return local, nil
	}

	synth := newSynthesizer(provider, s, log)
	remote := NewRemote(synth, sink, NewAudioCache(s.CacheDir, s.DiskWrite, log), log)
	log.Info("speech: using %s (voice %s)", provider, synth.Voice())

	if s.Fallback && local.Available() {
		return NewFallback(remote, local, log), nil
	}
	return remote, nil
}

func newSynthesizer(provider string, s Settings, log *logger.Logger) Synthesizer {
	switch provider {
	case ProviderGoogle:
		return NewGoogle(s.APIKey, log, WithVoice(s.Voice))
	case ProviderAzure:
		return NewAzure(s.APIKey, s.Region, log, WithVoice(s.Voice))
	default:
		return NewElevenLabs(s.APIKey, log, WithVoice(s.Voice))
	}
}
