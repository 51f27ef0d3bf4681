// Package config loads MoonRace settings from an optional YAML file, a
// .env file and MOONRACE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"time"

	"github.com/hammamikhairi/moonrace/internal/catalog"
	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/feed"
	"github.com/hammamikhairi/moonrace/internal/narration"
	"github.com/hammamikhairi/moonrace/internal/race"
	"github.com/hammamikhairi/moonrace/internal/speech"
)

// DefaultPath is the config file looked up when -config is not given.
const DefaultPath = "moonrace.yaml"

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Race      RaceConfig      `yaml:"race"`
	Feed      FeedConfig      `yaml:"feed"`
	Narration NarrationConfig `yaml:"narration"`
	TTS       TTSConfig       `yaml:"tts"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level"` // off, info, debug
	File  string `yaml:"file"`  // empty logs to stderr
}

// RaceConfig selects the race and tunes the simulation.
type RaceConfig struct {
	ID   string `yaml:"id"`
	Seed uint64 `yaml:"seed"` // 0 = random

	PrimaryInterval     time.Duration `yaml:"primary_interval"`
	AmbientInterval     time.Duration `yaml:"ambient_interval"`
	AmbientProbability  float64       `yaml:"ambient_probability"`
	DriftBias           float64       `yaml:"drift_bias"`
	PerturbationScale   float64       `yaml:"perturbation_scale"`
	OddsFactor          float64       `yaml:"odds_factor"`
	NotabilityThreshold float64       `yaml:"notability_threshold"`
	BoostPositionBonus  float64       `yaml:"boost_position_bonus"`
	BoostOddsBonus      float64       `yaml:"boost_odds_bonus"`
	AmbientSymbols      []string      `yaml:"ambient_symbols"`
}

// FeedConfig tunes the commentary feed.
type FeedConfig struct {
	Capacity       int           `yaml:"capacity"`
	TypingDelayMin time.Duration `yaml:"typing_delay_min"`
	TypingDelayMax time.Duration `yaml:"typing_delay_max"`
}

// NarrationConfig tunes the narration queue.
type NarrationConfig struct {
	Enabled       bool          `yaml:"enabled"`
	SafetyTimeout time.Duration `yaml:"safety_timeout"`
	Rate          float64       `yaml:"rate"`
	Pitch         float64       `yaml:"pitch"`
	Volume        float64       `yaml:"volume"`
	Language      string        `yaml:"language"`
}

// TTSConfig selects the speech backend.
type TTSConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Region    string `yaml:"region"`
	Voice     string `yaml:"voice"`
	CacheDir  string `yaml:"cache_dir"`
	DiskCache bool   `yaml:"disk_cache"`
	Fallback  bool   `yaml:"fallback"`
	Disabled  bool   `yaml:"disabled"`
}

// Default returns the stock configuration.
func Default() *Config {
	rc := race.DefaultConfig()
	return &Config{
		Log: LogConfig{Level: "info", File: "moonrace.log"},
		Race: RaceConfig{
			ID:                  catalog.DefaultRaceID,
			PrimaryInterval:     rc.PrimaryInterval,
			AmbientInterval:     rc.AmbientInterval,
			AmbientProbability:  rc.AmbientProbability,
			DriftBias:           rc.DriftBias,
			PerturbationScale:   rc.PerturbationScale,
			OddsFactor:          rc.OddsFactor,
			NotabilityThreshold: rc.NotabilityThreshold,
			BoostPositionBonus:  rc.BoostPositionBonus,
			BoostOddsBonus:      rc.BoostOddsBonus,
		},
		Feed: FeedConfig{
			Capacity:       feed.DefaultCapacity,
			TypingDelayMin: 500 * time.Millisecond,
			TypingDelayMax: 1000 * time.Millisecond,
		},
		Narration: NarrationConfig{
			SafetyTimeout: narration.DefaultSafetyTimeout,
			Rate:          narration.DefaultSpeakOptions.Rate,
			Pitch:         narration.DefaultSpeakOptions.Pitch,
			Volume:        narration.DefaultSpeakOptions.Volume,
			Language:      narration.DefaultSpeakOptions.Language,
		},
		TTS: TTSConfig{
			Provider:  speech.ProviderLocal,
			CacheDir:  ".moonrace-cache",
			DiskCache: true,
			Fallback:  true,
		},
	}
}

// SimulationConfig maps the race section onto the engine's tuning.
func (c *Config) SimulationConfig() race.Config {
	rc := race.DefaultConfig()
	rc.PrimaryInterval = c.Race.PrimaryInterval
	rc.AmbientInterval = c.Race.AmbientInterval
	rc.AmbientProbability = c.Race.AmbientProbability
	rc.DriftBias = c.Race.DriftBias
	rc.PerturbationScale = c.Race.PerturbationScale
	rc.OddsFactor = c.Race.OddsFactor
	rc.NotabilityThreshold = c.Race.NotabilityThreshold
	rc.BoostPositionBonus = c.Race.BoostPositionBonus
	rc.BoostOddsBonus = c.Race.BoostOddsBonus
	rc.AmbientSymbols = append([]string(nil), c.Race.AmbientSymbols...)
	return rc
}

// SpeakOptions returns the per-utterance voice settings.
func (c *Config) SpeakOptions() domain.SpeakOptions {
	return domain.SpeakOptions{
		Rate:     c.Narration.Rate,
		Pitch:    c.Narration.Pitch,
		Volume:   c.Narration.Volume,
		Language: c.Narration.Language,
		Voice:    c.TTS.Voice,
	}
}

// SpeechSettings returns the backend selection for speech.Build.
func (c *Config) SpeechSettings() speech.Settings {
	return speech.Settings{
		Provider:  c.TTS.Provider,
		APIKey:    c.TTS.APIKey,
		Region:    c.TTS.Region,
		Voice:     c.TTS.Voice,
		CacheDir:  c.TTS.CacheDir,
		DiskWrite: c.TTS.DiskCache,
		Fallback:  c.TTS.Fallback,
		Disabled:  c.TTS.Disabled,
	}
}
