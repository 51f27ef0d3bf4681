// Package catalog provides the built-in race match-ups.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ domain.RaceSource = (*MemorySource)(nil)

// DefaultRaceID is the race shown when none is selected.
const DefaultRaceID = "btc-eth"

// defaultStart is the opening state every race begins from: the first
// competitor slightly ahead on position, the second slightly behind on
// odds.
var defaultStart = [2]domain.CompetitorState{
	{Position: 45, Odds: 52, Volume: 1_250_000},
	{Position: 42, Odds: 48, Volume: 980_000},
}

// MemorySource holds races in memory. Safe for concurrent reads.
type MemorySource struct {
	mu    sync.RWMutex
	races map[string]*domain.Race
	log   *logger.Logger
}

// NewMemorySource creates a race source preloaded with built-in races.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		races: make(map[string]*domain.Race),
		log:   log,
	}
	src.seed()
	return src
}

// List returns summaries of all races, hottest first then by volume.
func (s *MemorySource) List(ctx context.Context) ([]domain.RaceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all races, count=%d", len(s.races))

	out := make([]domain.RaceSummary, 0, len(s.races))
	for _, r := range s.races {
		out = append(out, summarize(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hot != out[j].Hot {
			return out[i].Hot
		}
		return out[i].TotalVolume > out[j].TotalVolume
	})
	return out, nil
}

// Get returns a copy of the race with the given id. Ids are matched
// case-insensitively.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.races[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		s.log.Debug("race not found: %s", id)
		return nil, fmt.Errorf("race %q: %w", id, domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// Search returns races in which either competitor's symbol contains query.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.RaceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToUpper(strings.TrimSpace(query))
	s.log.Debug("searching races for: %s", q)

	var out []domain.RaceSummary
	for _, r := range s.races {
		if strings.Contains(r.Symbols[0], q) || strings.Contains(r.Symbols[1], q) {
			out = append(out, summarize(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func summarize(r *domain.Race) domain.RaceSummary {
	return domain.RaceSummary{
		ID:           r.ID,
		Title:        r.Symbols[0] + " vs " + r.Symbols[1],
		TotalVolume:  r.TotalVolume,
		Participants: r.Participants,
		Hot:          r.Hot,
	}
}

// seed populates the source with the built-in match-ups.
func (s *MemorySource) seed() {
	races := []*domain.Race{
		newRace("btc-eth", "BTC", "ETH", 2_450_000, 1847, 4*time.Hour, true),
		newRace("sol-avax", "SOL", "AVAX", 890_000, 623, 2*time.Hour, false),
		newRace("btc-gold", "BTC", "GOLD", 1_200_000, 892, 6*time.Hour, false),
		newRace("bnb-matic", "BNB", "MATIC", 750_000, 512, 5*time.Hour, false),
		newRace("ada-xrp", "ADA", "XRP", 620_000, 430, 3*time.Hour, false),
	}
	for _, r := range races {
		s.races[r.ID] = r
	}
	s.log.Debug("seeded %d races", len(races))
}

func newRace(id, a, b string, volume float64, participants int, d time.Duration, hot bool) *domain.Race {
	return &domain.Race{
		ID:           id,
		Symbols:      [2]string{a, b},
		Start:        defaultStart,
		TotalVolume:  volume,
		Participants: participants,
		Duration:     d,
		Hot:          hot,
	}
}
