package narration

import (
	"strings"
	"unicode"
)

// defaultDenylist holds the glyphs commentary templates decorate lines
// with. Pictographs in U+1F300..U+1F9FF are always removed as well.
var defaultDenylist = []rune{
	'⚡', '🚀', '💪', '📈', '📉', '⚠', '🐻', '💔', '🔻',
	'📊', '⏳', '🤔', '📡', '🎯', '🎪', '💥', '🏁', '🔔',
	'\uFE0F', // variation selector left behind by ⚠️
}

// Sanitizer strips non-linguistic glyphs so the speech backend does not
// read emoji names aloud.
type Sanitizer struct {
	deny map[rune]struct{}
}

// NewSanitizer builds a sanitizer from the default denylist plus extra.
func NewSanitizer(extra ...rune) *Sanitizer {
	s := &Sanitizer{deny: make(map[rune]struct{}, len(defaultDenylist)+len(extra))}
	for _, r := range defaultDenylist {
		s.deny[r] = struct{}{}
	}
	for _, r := range extra {
		s.deny[r] = struct{}{}
	}
	return s
}

// Clean removes denied glyphs, collapses the whitespace they leave
// behind, and trims the result. It may return "".
func (s *Sanitizer) Clean(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if s.denied(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.FieldsFunc(stripped, unicode.IsSpace), " ")
}

func (s *Sanitizer) denied(r rune) bool {
	if r >= 0x1F300 && r <= 0x1F9FF {
		return true
	}
	_, ok := s.deny[r]
	return ok
}
