package speech

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*ElevenLabs)(nil)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

type elevenLabsRequest struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id"`
	VoiceSettings elevenLabsVoiceConfig `json:"voice_settings"`
}

type elevenLabsVoiceConfig struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabs synthesizes speech with the ElevenLabs REST API, asking for
// raw 24kHz PCM so the player needs no decoder.
type ElevenLabs struct {
	restClient
	model           string
	stability       float64
	similarityBoost float64
}

// NewElevenLabs creates an ElevenLabs client.
func NewElevenLabs(apiKey string, log *logger.Logger, opts ...ClientOption) *ElevenLabs {
	return &ElevenLabs{
		restClient:      newRestClient(apiKey, elevenLabsBaseURL, DefaultElevenLabsVoice, log, opts),
		model:           DefaultElevenLabsModel,
		stability:       0.5,
		similarityBoost: 0.75,
	}
}

// Name implements Synthesizer.
func (e *ElevenLabs) Name() string { return ProviderElevenLabs }

// Synthesize returns raw PCM for text. Rate and pitch are not supported
// by this endpoint and are ignored.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string, opts domain.SpeakOptions) ([]byte, error) {
	voice := e.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=pcm_%d",
		e.baseURL, url.PathEscape(voice), SampleRate)

	req := elevenLabsRequest{
		Text:    text,
		ModelID: e.model,
		VoiceSettings: elevenLabsVoiceConfig{
			Stability:       e.stability,
			SimilarityBoost: e.similarityBoost,
		},
	}
	e.log.Debug("elevenlabs tts: synthesizing %d chars with voice %s", len(text), voice)

	audio, err := e.postJSON(ctx, endpoint, req, map[string]string{"xi-api-key": e.apiKey})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs tts: %w", err)
	}
	e.log.Debug("elevenlabs tts: got %d bytes of audio", len(audio))
	return audio, nil
}
