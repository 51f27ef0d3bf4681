// Package speech provides the text-to-speech backends narration plays
// through: a local synthesizer process, three remote HTTP providers with
// response caching, and a fallback that degrades from remote to local.
package speech

import "time"

// Provider names accepted by Build.
const (
	ProviderLocal      = "local"
	ProviderGoogle     = "google"
	ProviderAzure      = "azure"
	ProviderElevenLabs = "elevenlabs"
)

// Providers lists every selectable provider.
var Providers = []string{ProviderLocal, ProviderGoogle, ProviderAzure, ProviderElevenLabs}

// Default voices per remote provider.
const (
	DefaultGoogleVoice     = "en-US-Neural2-J"
	DefaultAzureVoice      = "en-US-AvaNeural"
	DefaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM" // Rachel
)

// DefaultElevenLabsModel is the model id sent with every ElevenLabs request.
const DefaultElevenLabsModel = "eleven_multilingual_v2"

// Audio format requested from Azure and expected by the player.
const DefaultAzureFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters shared by every remote provider and the player.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// DefaultHTTPTimeout bounds a single synthesis request. It is shorter
// than the narration safety timeout so a stalled provider fails before
// the queue gives up on the utterance.
const DefaultHTTPTimeout = 8 * time.Second

// DefaultPollInterval is how often the local backend checks whether its
// synthesizer process is still speaking.
const DefaultPollInterval = 100 * time.Millisecond

// userAgent is sent with every provider request.
const userAgent = "MoonRace/1.0"
