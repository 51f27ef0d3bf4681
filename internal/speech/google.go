package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*Google)(nil)

const googleBaseURL = "https://texttospeech.googleapis.com"

type googleSynthRequest struct {
	Input       googleSynthInput       `json:"input"`
	Voice       googleSynthVoice       `json:"voice"`
	AudioConfig googleSynthAudioConfig `json:"audioConfig"`
}

type googleSynthInput struct {
	Text string `json:"text"`
}

type googleSynthVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type googleSynthAudioConfig struct {
	AudioEncoding   string  `json:"audioEncoding"`
	SampleRateHertz int     `json:"sampleRateHertz"`
	SpeakingRate    float64 `json:"speakingRate,omitempty"`
	Pitch           float64 `json:"pitch"`
}

type googleSynthResponse struct {
	AudioContent string `json:"audioContent"` // base64
}

// Google synthesizes speech with the Cloud Text-to-Speech REST API.
type Google struct {
	restClient
}

// NewGoogle creates a Google client authenticated by API key.
func NewGoogle(apiKey string, log *logger.Logger, opts ...ClientOption) *Google {
	return &Google{restClient: newRestClient(apiKey, googleBaseURL, DefaultGoogleVoice, log, opts)}
}

// Name implements Synthesizer.
func (g *Google) Name() string { return ProviderGoogle }

// Synthesize returns 24kHz LINEAR16 audio for text.
func (g *Google) Synthesize(ctx context.Context, text string, opts domain.SpeakOptions) ([]byte, error) {
	voice := g.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}
	lang := opts.Language
	if lang == "" {
		lang = "en-US"
	}

	req := googleSynthRequest{
		Input: googleSynthInput{Text: text},
		Voice: googleSynthVoice{LanguageCode: lang, Name: voice},
		AudioConfig: googleSynthAudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: SampleRate,
			SpeakingRate:    opts.Rate,
			Pitch:           pitchSemitones(opts.Pitch),
		},
	}

	endpoint := g.baseURL + "/v1/text:synthesize?key=" + url.QueryEscape(g.apiKey)
	g.log.Debug("google tts: synthesizing %d chars with voice %s", len(text), voice)

	body, err := g.postJSON(ctx, endpoint, req, nil)
	if err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}

	var resp googleSynthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("google tts: decoding response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("google tts: decoding audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("google tts: empty audio")
	}
	g.log.Debug("google tts: got %d bytes of audio", len(audio))
	return audio, nil
}

// pitchSemitones maps a 1.0-centred pitch multiplier onto Google's
// [-20, 20] semitone range.
func pitchSemitones(p float64) float64 {
	if p == 0 {
		return 0
	}
	return clampFloat((p-1)*20, -20, 20)
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
