package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/moonrace/internal/commentary"
	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/feed"
	"github.com/hammamikhairi/moonrace/internal/logger"
	"github.com/hammamikhairi/moonrace/internal/race"
)

// raceSession owns the simulator for the race being watched and swaps
// it out when the user switches races.
type raceSession struct {
	races     domain.RaceSource
	cfg       race.Config
	gen       *commentary.Generator
	feed      *feed.Log
	seed      uint64
	log       *logger.Logger

	mu     sync.RWMutex
	parent context.Context
	id     string
	sim    *race.Simulator
}

// start opens race r and runs its simulator under ctx.
func (s *raceSession) start(ctx context.Context, r *domain.Race) {
	var engineOpts []race.EngineOption
	if s.seed != 0 {
		engineOpts = append(engineOpts, race.WithSampler(race.NewSeededSampler(s.seed)))
	}
	engine := race.NewEngine(r, s.cfg, s.log, engineOpts...)
	sim := race.NewSimulator(engine, s.gen, s.feed, s.log)

	snap := engine.Snapshot()
	leader := snap.Leader().Symbol
	chaser := r.Symbols[0]
	if chaser == leader {
		chaser = r.Symbols[1]
	}
	// Opening lines are shown but not narrated.
	s.feed.AppendQuiet(commentary.LineWelcome(r.Symbols[0], r.Symbols[1]), domain.ToneNeutral)
	s.feed.AppendQuiet(commentary.LineOpeningLead(leader, chaser), domain.ToneNeutral)

	s.mu.Lock()
	s.parent = ctx
	s.id = r.ID
	s.sim = sim
	s.mu.Unlock()

	sim.Start(ctx)
	s.log.Info("watching race %s (%s vs %s)", r.ID, r.Symbols[0], r.Symbols[1])
}

func (s *raceSession) current() *race.Simulator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim
}

// Snapshot returns the state of the race being watched.
func (s *raceSession) Snapshot() domain.Snapshot {
	if sim := s.current(); sim != nil {
		return sim.Snapshot()
	}
	return domain.Snapshot{}
}

// Boost forwards a user boost to the running simulator.
func (s *raceSession) Boost(ctx context.Context, symbol string, amount float64) error {
	sim := s.current()
	if sim == nil {
		return fmt.Errorf("boost %s: no race running", symbol)
	}
	return sim.Boost(ctx, symbol, amount)
}

// RaceID returns the id of the race being watched.
func (s *raceSession) RaceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SwitchRace stops the current simulator and starts race id in its place.
func (s *raceSession) SwitchRace(ctx context.Context, id string) error {
	r, err := s.races.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()

	s.Stop()
	s.start(parent, r)
	return nil
}

// Stop halts the running simulator, if any.
func (s *raceSession) Stop() {
	s.mu.Lock()
	sim := s.sim
	s.mu.Unlock()
	if sim != nil {
		sim.Stop()
	}
}
