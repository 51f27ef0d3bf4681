package domain

// Tone classifies the narrative category of a commentary message.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneBullish
	ToneBearish
	ToneAlert
)

// Tones lists every tone in declaration order.
var Tones = []Tone{ToneNeutral, ToneBullish, ToneBearish, ToneAlert}

// String returns a human-readable tone name.
func (t Tone) String() string {
	switch t {
	case ToneNeutral:
		return "neutral"
	case ToneBullish:
		return "bullish"
	case ToneBearish:
		return "bearish"
	case ToneAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the four known tones.
func (t Tone) Valid() bool {
	return t >= ToneNeutral && t <= ToneAlert
}

// toneNames maps lowercase names to Tone values.
var toneNames = map[string]Tone{
	"neutral": ToneNeutral,
	"bullish": ToneBullish,
	"bearish": ToneBearish,
	"alert":   ToneAlert,
}

// ToneFromString converts a tone name to a Tone. The second return value
// is false for unrecognized names.
func ToneFromString(name string) (Tone, bool) {
	t, ok := toneNames[name]
	return t, ok
}
