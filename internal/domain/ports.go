package domain

import "context"

// RaceSource provides race match-ups. The built-in implementation is an
// in-memory catalog.
type RaceSource interface {
	List(ctx context.Context) ([]RaceSummary, error)
	Get(ctx context.Context, id string) (*Race, error)
}

// Notifier receives commentary produced by the simulation. The message
// log implements it; tests substitute recorders.
type Notifier interface {
	Notify(ctx context.Context, text string, tone Tone) error
}

// SpeakOptions tunes a single utterance. Zero values mean "backend default".
type SpeakOptions struct {
	Rate     float64 // 1.0 = normal speed
	Pitch    float64 // 1.0 = normal pitch
	Volume   float64 // 0..1
	Language string  // BCP-47, e.g. "en-US"
	Voice    string  // provider-specific voice name or id
}

// Playback is a handle on one utterance that is being spoken.
// Done is closed exactly once, when playback ends for any reason.
type Playback interface {
	Done() <-chan struct{}
	// Err reports why playback ended. Only meaningful after Done is closed.
	Err() error
	// Stop halts playback immediately. Safe to call more than once.
	Stop()
}

// SpeechBackend is the capability every speech provider exposes. Speak
// returns once audio has started; the returned Playback signals the end.
type SpeechBackend interface {
	Name() string
	Available() bool
	Speak(ctx context.Context, text string, opts SpeakOptions) (Playback, error)
}
