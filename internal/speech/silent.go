package speech

import (
	"context"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ domain.SpeechBackend = (*Silent)(nil)

// Silent is the backend used when speech is turned off or nothing can
// produce audio. It reports itself unavailable so the narration toggle
// stays inert.
type Silent struct {
	log *logger.Logger
}

// NewSilent creates a silent backend.
func NewSilent(log *logger.Logger) *Silent {
	return &Silent{log: log}
}

// Name implements domain.SpeechBackend.
func (s *Silent) Name() string { return "silent" }

// Available is always false.
func (s *Silent) Available() bool { return false }

// Speak returns ErrUnsupported.
func (s *Silent) Speak(_ context.Context, text string, _ domain.SpeakOptions) (domain.Playback, error) {
	s.log.Debug("speech silent: would say %q", text)
	return nil, domain.ErrUnsupported
}
