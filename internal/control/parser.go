// Package control turns typed commands into actions on the running race:
// boosts, narration toggling, race switching and status queries.
package control

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Kind identifies a command.
type Kind int

const (
	KindUnknown Kind = iota
	KindBoost
	KindToggleNarration
	KindStatus
	KindListRaces
	KindSelectRace
	KindHelp
	KindQuit
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindBoost:           "boost",
	KindToggleNarration: "toggle_narration",
	KindStatus:          "status",
	KindListRaces:       "list_races",
	KindSelectRace:      "select_race",
	KindHelp:            "help",
	KindQuit:            "quit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DefaultBoostAmount is used when "boost <symbol>" omits the amount.
const DefaultBoostAmount = 100

// Command is a parsed user command.
type Command struct {
	Kind   Kind
	Symbol string  // boost target, upper-cased
	Amount float64 // boost amount
	Arg    string  // race id for KindSelectRace, raw input for KindUnknown
}

// Parser matches user input to commands using keywords and simple patterns.
type Parser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex *regexp.Regexp
	kind  Kind
}

var (
	boostPattern = regexp.MustCompile(`(?i)^(?:boost|b|back)\s+([a-z0-9]+)(?:\s+\$?([0-9][0-9,]*(?:\.[0-9]+)?|\S+))?$`)
	racePattern  = regexp.MustCompile(`(?i)^(?:race|switch|watch)\s+(\S+)$`)
)

// NewParser creates a keyword command parser.
func NewParser(log *logger.Logger) *Parser {
	p := &Parser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(tts|voice|mute|unmute|narration|speak)$`), KindToggleNarration},
		{regexp.MustCompile(`(?i)^(status|st|odds|where)$`), KindStatus},
		{regexp.MustCompile(`(?i)^(races|list|ls)$`), KindListRaces},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), KindHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), KindQuit},
	}
	return p
}

// Parse converts input into a command. Malformed boosts return an error
// wrapping domain.ErrInvalidAmount; anything unrecognised is KindUnknown.
func (p *Parser) Parse(input string) (Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{Kind: KindUnknown}, nil
	}
	p.log.Debug("parsing input: %q", trimmed)

	if m := boostPattern.FindStringSubmatch(trimmed); m != nil {
		return parseBoost(m[1], m[2])
	}
	if m := racePattern.FindStringSubmatch(trimmed); m != nil {
		return Command{Kind: KindSelectRace, Arg: strings.ToLower(m[1])}, nil
	}
	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched command: %s", rule.kind)
			return Command{Kind: rule.kind}, nil
		}
	}

	p.log.Debug("no match, returning unknown command")
	return Command{Kind: KindUnknown, Arg: trimmed}, nil
}

func parseBoost(symbol, rawAmount string) (Command, error) {
	cmd := Command{Kind: KindBoost, Symbol: strings.ToUpper(symbol), Amount: DefaultBoostAmount}
	if rawAmount == "" {
		return cmd, nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(rawAmount, ",", ""), 64)
	if err != nil {
		return Command{}, fmt.Errorf("boost amount %q: %w", rawAmount, domain.ErrInvalidAmount)
	}
	cmd.Amount = amount
	return cmd, nil
}
