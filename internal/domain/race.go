// Package domain defines the core types and interfaces for the race display.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"strings"
	"time"
)

// CompetitorState is the evolving numeric state of one competitor.
// Position and odds are percentages; volume only ever grows.
type CompetitorState struct {
	Position float64
	Odds     float64
	Volume   float64
}

// Competitor pairs a ticker symbol with its current state.
type Competitor struct {
	Symbol string
	State  CompetitorState
}

// Snapshot is a read-only copy of both competitors, refreshed every
// primary tick. Mutating a Snapshot never affects the engine.
type Snapshot struct {
	Competitors [2]Competitor
	Tick        uint64
	UpdatedAt   time.Time
}

// Index returns the slot of the competitor with the given symbol, or -1.
func (s Snapshot) Index(symbol string) int {
	for i, c := range s.Competitors {
		if strings.EqualFold(c.Symbol, symbol) {
			return i
		}
	}
	return -1
}

// Leader returns the competitor currently ahead on position. Ties go to
// the first competitor.
func (s Snapshot) Leader() Competitor {
	if s.Competitors[1].State.Position > s.Competitors[0].State.Position {
		return s.Competitors[1]
	}
	return s.Competitors[0]
}

// Race is a catalog entry describing one head-to-head match-up.
type Race struct {
	ID           string
	Symbols      [2]string
	Start        [2]CompetitorState
	TotalVolume  float64
	Participants int
	Duration     time.Duration // how long the race runs from process start
	Hot          bool
}

// RaceSummary is a lightweight view of a race for listing.
type RaceSummary struct {
	ID           string
	Title        string // "BTC vs ETH"
	TotalVolume  float64
	Participants int
	Hot          bool
}
