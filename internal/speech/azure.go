package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*Azure)(nil)

// DefaultAzureRegion is used when no region is configured.
const DefaultAzureRegion = "eastus"

// Azure synthesizes speech via Azure Cognitive Services using SSML.
type Azure struct {
	restClient
	region string
	format string
}

// NewAzure creates an Azure client for the given subscription key and
// region.
func NewAzure(key, region string, log *logger.Logger, opts ...ClientOption) *Azure {
	if region == "" {
		region = DefaultAzureRegion
	}
	base := fmt.Sprintf("https://%s.tts.speech.microsoft.com", region)
	return &Azure{
		restClient: newRestClient(key, base, DefaultAzureVoice, log, opts),
		region:     region,
		format:     DefaultAzureFormat,
	}
}

// Name implements Synthesizer.
func (a *Azure) Name() string { return ProviderAzure }

// Synthesize returns RIFF 24kHz 16-bit mono audio for text.
func (a *Azure) Synthesize(ctx context.Context, text string, opts domain.SpeakOptions) ([]byte, error) {
	voice := a.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}
	ssml := buildSSML(text, voice, opts)
	a.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), voice)

	headers := map[string]string{
		"Ocp-Apim-Subscription-Key": a.apiKey,
		"X-Microsoft-OutputFormat":  a.format,
	}
	audio, err := a.post(ctx, a.baseURL+"/cognitiveservices/v1", "application/ssml+xml", []byte(ssml), headers)
	if err != nil {
		return nil, fmt.Errorf("azure tts: %w", err)
	}
	a.log.Debug("azure tts: got %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps text in a voice and prosody element. Text is escaped.
func buildSSML(text, voice string, opts domain.SpeakOptions) string {
	lang := opts.Language
	if lang == "" {
		lang = "en-US"
	}
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))

	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'><prosody rate='%s' pitch='%s' volume='%s'>%s</prosody></voice></speak>`,
		lang, lang, voice,
		relativePercent(opts.Rate), relativePercent(opts.Pitch), volumePercent(opts.Volume),
		escaped.String(),
	)
}

// relativePercent renders a 1.0-centred multiplier as "+20%" style.
func relativePercent(v float64) string {
	if v == 0 {
		return "+0%"
	}
	return fmt.Sprintf("%+.0f%%", (v-1)*100)
}

func volumePercent(v float64) string {
	if v == 0 {
		return "100"
	}
	return fmt.Sprintf("%.0f", clampFloat(v, 0, 1)*100)
}
