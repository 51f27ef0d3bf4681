// Package commentary turns a symbol and a tone into a ready-to-display
// line of race commentary by filling a randomly chosen template with
// freshly sampled numbers.
package commentary

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"sync"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// placeholderPattern matches {name} tokens.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9]*)\}`)

// Option configures the generator.
type Option func(*Generator)

// WithSeed makes output reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))
	}
}

// WithTemplates replaces the template set for one tone.
func WithTemplates(tone domain.Tone, templates ...string) Option {
	return func(g *Generator) {
		g.templates[tone] = append([]string(nil), templates...)
	}
}

// WithPlaceholders adds or overrides numeric placeholder rules.
func WithPlaceholders(specs ...Placeholder) Option {
	return func(g *Generator) {
		for _, p := range specs {
			g.placeholders[p.Name] = p
		}
	}
}

// Generator produces commentary text. Safe for concurrent use.
type Generator struct {
	log          *logger.Logger
	templates    map[domain.Tone][]string
	placeholders map[string]Placeholder

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator with the stock templates. It fails if any
// template references a placeholder that has no sampling rule, so a
// generated line can never contain an unresolved {token}.
func New(log *logger.Logger, opts ...Option) (*Generator, error) {
	g := &Generator{
		log:          log,
		templates:    make(map[domain.Tone][]string, len(DefaultTemplates)),
		placeholders: make(map[string]Placeholder, len(DefaultPlaceholders)),
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for tone, ts := range DefaultTemplates {
		g.templates[tone] = ts
	}
	for _, p := range DefaultPlaceholders {
		g.placeholders[p.Name] = p
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Generator) validate() error {
	for _, tone := range domain.Tones {
		ts := g.templates[tone]
		if len(ts) == 0 {
			return fmt.Errorf("commentary: no templates for tone %s", tone)
		}
		for _, t := range ts {
			for _, m := range placeholderPattern.FindAllStringSubmatch(t, -1) {
				name := m[1]
				if name == SymbolPlaceholder {
					continue
				}
				if _, ok := g.placeholders[name]; !ok {
					return fmt.Errorf("commentary: template %q uses unknown placeholder {%s}", t, name)
				}
			}
		}
	}
	return nil
}

// Generate picks a template for tone and fills it. Unknown tones fall
// back to neutral.
func (g *Generator) Generate(symbol string, tone domain.Tone) string {
	ts, ok := g.templates[tone]
	if !ok || len(ts) == 0 {
		ts = g.templates[domain.ToneNeutral]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	template := ts[g.rng.IntN(len(ts))]
	out := placeholderPattern.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if name == SymbolPlaceholder {
			return symbol
		}
		return g.sampleLocked(g.placeholders[name])
	})

	g.log.Debug("commentary: %s/%s -> %s", symbol, tone, out)
	return out
}

// sampleLocked draws one value for p. Must be called with g.mu held.
func (g *Generator) sampleLocked(p Placeholder) string {
	v := g.rng.Float64()*p.Span + p.Min
	if p.Floor {
		return strconv.FormatFloat(math.Floor(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', p.Decimals, 64)
}
