package control

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hammamikhairi/moonrace/internal/catalog"
	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

type mockRace struct {
	id       string
	boosts   []Command
	boostErr error
	switched string
}

func (m *mockRace) Boost(_ context.Context, symbol string, amount float64) error {
	if m.boostErr != nil {
		return m.boostErr
	}
	m.boosts = append(m.boosts, Command{Kind: KindBoost, Symbol: symbol, Amount: amount})
	return nil
}

func (m *mockRace) Snapshot() domain.Snapshot {
	return domain.Snapshot{Competitors: [2]domain.Competitor{
		{Symbol: "BTC", State: domain.CompetitorState{Position: 45, Odds: 52, Volume: 1_250_000}},
		{Symbol: "ETH", State: domain.CompetitorState{Position: 42, Odds: 48, Volume: 980_000}},
	}}
}

func (m *mockRace) RaceID() string { return m.id }

func (m *mockRace) SwitchRace(_ context.Context, id string) error {
	if id == "nope" {
		return domain.ErrNotFound
	}
	m.switched = id
	m.id = id
	return nil
}

type mockNarration struct {
	supported bool
	enabled   bool
}

func (m *mockNarration) Toggle() (bool, error) {
	if !m.supported {
		return false, domain.ErrUnsupported
	}
	m.enabled = !m.enabled
	return m.enabled, nil
}

func (m *mockNarration) Enabled() bool     { return m.enabled }
func (m *mockNarration) IsSupported() bool { return m.supported }
func (m *mockNarration) Backend() string   { return "local" }

func newTestController(race *mockRace, narr *mockNarration) *Controller {
	log := logger.New(logger.LevelOff, nil)
	return NewController(race, narr, catalog.NewMemorySource(log), log)
}

func TestControllerBoost(t *testing.T) {
	race := &mockRace{id: "btc-eth"}
	c := newTestController(race, &mockNarration{supported: true})

	res, err := c.Handle(context.Background(), "boost btc 1000")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(race.boosts) != 1 || race.boosts[0].Symbol != "BTC" || race.boosts[0].Amount != 1000 {
		t.Fatalf("boosts = %+v", race.boosts)
	}
	if res.Reply != "Boosted BTC with $1,000." {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestControllerBoostValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		boostErr error
		want     string
	}{
		{"unknown symbol", "boost doge 5", domain.ErrUnknownCompetitor, "DOGE is not in this race. Pick BTC or ETH."},
		{"zero amount", "boost btc 0", domain.ErrInvalidAmount, "Boost amount must be a positive number."},
		{"unparseable amount", "boost btc lots", nil, "Boost amount must be a positive number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&mockRace{id: "btc-eth", boostErr: tt.boostErr}, &mockNarration{})
			res, err := c.Handle(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if res.Reply != tt.want {
				t.Fatalf("reply = %q, want %q", res.Reply, tt.want)
			}
		})
	}
}

func TestControllerBoostUnexpectedError(t *testing.T) {
	boom := errors.New("boom")
	c := newTestController(&mockRace{id: "btc-eth", boostErr: boom}, &mockNarration{})

	if _, err := c.Handle(context.Background(), "boost btc 5"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestControllerToggle(t *testing.T) {
	narr := &mockNarration{supported: true}
	c := newTestController(&mockRace{id: "btc-eth"}, narr)

	res, _ := c.Handle(context.Background(), "tts")
	if !narr.enabled || res.Reply != "Narration on (local)." {
		t.Fatalf("first toggle: enabled=%v reply=%q", narr.enabled, res.Reply)
	}
	res, _ = c.Handle(context.Background(), "tts")
	if narr.enabled || res.Reply != "Narration off." {
		t.Fatalf("second toggle: enabled=%v reply=%q", narr.enabled, res.Reply)
	}

	unsupported := newTestController(&mockRace{id: "btc-eth"}, &mockNarration{})
	res, err := unsupported.Handle(context.Background(), "tts")
	if err != nil || !strings.Contains(res.Reply, "unavailable") {
		t.Fatalf("unsupported toggle: %q, %v", res.Reply, err)
	}
}

func TestControllerStatus(t *testing.T) {
	c := newTestController(&mockRace{id: "btc-eth"}, &mockNarration{supported: true, enabled: true})

	res, _ := c.Handle(context.Background(), "status")
	for _, want := range []string{"btc-eth:", "BTC pos 45.0%", "odds 48.0%", "$1,250,000", "narration on (local)"} {
		if !strings.Contains(res.Reply, want) {
			t.Errorf("status %q missing %q", res.Reply, want)
		}
	}
}

func TestControllerRaces(t *testing.T) {
	race := &mockRace{id: "btc-eth"}
	c := newTestController(race, &mockNarration{})
	ctx := context.Background()

	res, _ := c.Handle(ctx, "races")
	if !strings.HasPrefix(res.Reply, "Races: btc-eth (BTC vs ETH, $2,450,000, 1847 in) HOT") {
		t.Fatalf("races reply = %q", res.Reply)
	}

	res, _ = c.Handle(ctx, "race btc-eth")
	if res.Reply != "Already watching btc-eth." {
		t.Fatalf("same race reply = %q", res.Reply)
	}

	res, _ = c.Handle(ctx, "race sol-avax")
	if race.switched != "sol-avax" || res.Reply != "Now watching sol-avax." {
		t.Fatalf("switch: %q, reply %q", race.switched, res.Reply)
	}

	res, _ = c.Handle(ctx, "race nope")
	if !strings.HasPrefix(res.Reply, `No race "nope"`) {
		t.Fatalf("missing race reply = %q", res.Reply)
	}
}

func TestControllerQuitAndUnknown(t *testing.T) {
	c := newTestController(&mockRace{id: "btc-eth"}, &mockNarration{})

	res, _ := c.Handle(context.Background(), "quit")
	if !res.Quit {
		t.Fatal("quit did not set Quit")
	}
	res, _ = c.Handle(context.Background(), "moon?")
	if res.Quit || !strings.Contains(res.Reply, "moon?") {
		t.Fatalf("unknown reply = %q", res.Reply)
	}
	res, _ = c.Handle(context.Background(), "   ")
	if res.Reply != "" {
		t.Fatalf("blank input reply = %q", res.Reply)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{100, "100"},
		{1000, "1,000"},
		{1250000, "1,250,000"},
		{12.5, "12.50"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
