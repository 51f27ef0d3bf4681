package control

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Race is the running race as seen by the control surface.
type Race interface {
	Boost(ctx context.Context, symbol string, amount float64) error
	Snapshot() domain.Snapshot
	RaceID() string
	SwitchRace(ctx context.Context, id string) error
}

// Narration is the narration toggle as seen by the control surface.
type Narration interface {
	Toggle() (bool, error)
	Enabled() bool
	IsSupported() bool
	Backend() string
}

// Result is what a command produced. Reply is shown on the status line.
type Result struct {
	Reply string
	Quit  bool
}

// Controller executes parsed commands.
type Controller struct {
	parser    *Parser
	race      Race
	narration Narration
	races     domain.RaceSource
	log       *logger.Logger
}

// NewController creates a controller over the given collaborators.
func NewController(race Race, narration Narration, races domain.RaceSource, log *logger.Logger) *Controller {
	return &Controller{
		parser:    NewParser(log),
		race:      race,
		narration: narration,
		races:     races,
		log:       log,
	}
}

// Handle parses and executes one line of input. Validation failures come
// back as a Reply, not an error; err is reserved for failures the caller
// should log.
func (c *Controller) Handle(ctx context.Context, input string) (Result, error) {
	cmd, err := c.parser.Parse(input)
	if err != nil {
		return Result{Reply: "Boost amount must be a positive number."}, nil
	}
	return c.Execute(ctx, cmd)
}

// Execute runs a parsed command.
func (c *Controller) Execute(ctx context.Context, cmd Command) (Result, error) {
	c.log.Debug("control: executing %s", cmd.Kind)

	switch cmd.Kind {
	case KindBoost:
		return c.boost(ctx, cmd)
	case KindToggleNarration:
		return c.toggle()
	case KindStatus:
		return Result{Reply: c.status()}, nil
	case KindListRaces:
		return c.listRaces(ctx)
	case KindSelectRace:
		return c.selectRace(ctx, cmd.Arg)
	case KindHelp:
		return Result{Reply: helpText}, nil
	case KindQuit:
		return Result{Reply: "Bye.", Quit: true}, nil
	case KindUnknown:
		if cmd.Arg == "" {
			return Result{}, nil
		}
		return Result{Reply: fmt.Sprintf("Didn't catch that: %s. Type help.", cmd.Arg)}, nil
	default:
		return Result{}, fmt.Errorf("unhandled command kind %s", cmd.Kind)
	}
}

func (c *Controller) boost(ctx context.Context, cmd Command) (Result, error) {
	err := c.race.Boost(ctx, cmd.Symbol, cmd.Amount)
	switch {
	case err == nil:
		return Result{Reply: fmt.Sprintf("Boosted %s with $%s.", cmd.Symbol, formatAmount(cmd.Amount))}, nil
	case errors.Is(err, domain.ErrUnknownCompetitor):
		snap := c.race.Snapshot()
		return Result{Reply: fmt.Sprintf("%s is not in this race. Pick %s or %s.",
			cmd.Symbol, snap.Competitors[0].Symbol, snap.Competitors[1].Symbol)}, nil
	case errors.Is(err, domain.ErrInvalidAmount):
		return Result{Reply: "Boost amount must be a positive number."}, nil
	default:
		return Result{}, err
	}
}

func (c *Controller) toggle() (Result, error) {
	on, err := c.narration.Toggle()
	if errors.Is(err, domain.ErrUnsupported) {
		return Result{Reply: "Narration is unavailable: no speech backend found."}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if on {
		return Result{Reply: fmt.Sprintf("Narration on (%s).", c.narration.Backend())}, nil
	}
	return Result{Reply: "Narration off."}, nil
}

func (c *Controller) status() string {
	snap := c.race.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", c.race.RaceID())
	for _, comp := range snap.Competitors {
		fmt.Fprintf(&b, " %s pos %.1f%% odds %.1f%% vol $%s;",
			comp.Symbol, comp.State.Position, comp.State.Odds, formatAmount(comp.State.Volume))
	}
	switch {
	case !c.narration.IsSupported():
		b.WriteString(" narration unavailable")
	case c.narration.Enabled():
		fmt.Fprintf(&b, " narration on (%s)", c.narration.Backend())
	default:
		b.WriteString(" narration off")
	}
	return b.String()
}

func (c *Controller) listRaces(ctx context.Context) (Result, error) {
	races, err := c.races.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing races: %w", err)
	}
	parts := make([]string, 0, len(races))
	for _, r := range races {
		entry := fmt.Sprintf("%s (%s, $%s, %d in)", r.ID, r.Title, formatAmount(r.TotalVolume), r.Participants)
		if r.Hot {
			entry += " HOT"
		}
		parts = append(parts, entry)
	}
	return Result{Reply: "Races: " + strings.Join(parts, " | ")}, nil
}

func (c *Controller) selectRace(ctx context.Context, id string) (Result, error) {
	if strings.EqualFold(id, c.race.RaceID()) {
		return Result{Reply: "Already watching " + id + "."}, nil
	}
	err := c.race.SwitchRace(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return Result{Reply: fmt.Sprintf("No race %q. Type races to list them.", id)}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: "Now watching " + id + "."}, nil
}

const helpText = "Commands: boost <symbol> [amount] | tts | status | races | race <id> | help | quit"

// formatAmount renders 1250000 as "1,250,000" and keeps cents when present.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + frac
	}
	return out
}
