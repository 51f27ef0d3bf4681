package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/hammamikhairi/moonrace/internal/logger"
	"github.com/hammamikhairi/moonrace/internal/speech"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvProvider = "MOONRACE_TTS_PROVIDER"
	EnvAPIKey   = "MOONRACE_TTS_API_KEY"
	EnvRegion   = "MOONRACE_TTS_REGION"
	EnvVoice    = "MOONRACE_TTS_VOICE"
	EnvLogLevel = "MOONRACE_LOG_LEVEL"
)

// Load reads the YAML file at path over the defaults and validates the
// result. A missing file is an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromReader decodes YAML from r over the defaults. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overwriting variables that are already set.
// Missing files are skipped.
func LoadDotEnv(log *logger.Logger, paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Warn("config: reading %s: %v", p, err)
			continue
		}
		log.Debug("config: loaded %s", p)
	}
}

// ApplyEnv overrides TTS and log settings from the environment. getenv
// is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvProvider); v != "" {
		cfg.TTS.Provider = v
	}
	if v := getenv(EnvAPIKey); v != "" {
		cfg.TTS.APIKey = v
	}
	if v := getenv(EnvRegion); v != "" {
		cfg.TTS.Region = v
	}
	if v := getenv(EnvVoice); v != "" {
		cfg.TTS.Voice = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks that cfg is coherent. It returns a joined error listing
// every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	r := cfg.Race
	if strings.TrimSpace(r.ID) == "" {
		errs = append(errs, errors.New("race.id is required"))
	}
	if r.PrimaryInterval <= 0 {
		errs = append(errs, fmt.Errorf("race.primary_interval must be > 0, got %s", r.PrimaryInterval))
	}
	if r.AmbientInterval < 0 {
		errs = append(errs, fmt.Errorf("race.ambient_interval must be >= 0, got %s", r.AmbientInterval))
	}
	if r.AmbientProbability < 0 || r.AmbientProbability > 1 {
		errs = append(errs, fmt.Errorf("race.ambient_probability must be in [0, 1], got %g", r.AmbientProbability))
	}
	if r.DriftBias < 0 || r.DriftBias > 1 {
		errs = append(errs, fmt.Errorf("race.drift_bias must be in [0, 1], got %g", r.DriftBias))
	}
	if r.PerturbationScale <= 0 {
		errs = append(errs, fmt.Errorf("race.perturbation_scale must be > 0, got %g", r.PerturbationScale))
	}
	if r.OddsFactor < 0 {
		errs = append(errs, fmt.Errorf("race.odds_factor must be >= 0, got %g", r.OddsFactor))
	}
	if r.NotabilityThreshold < 0 {
		errs = append(errs, fmt.Errorf("race.notability_threshold must be >= 0, got %g", r.NotabilityThreshold))
	}
	if r.BoostPositionBonus < 0 || r.BoostOddsBonus < 0 {
		errs = append(errs, errors.New("race.boost_*_bonus must be >= 0"))
	}

	f := cfg.Feed
	if f.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("feed.capacity must be > 0, got %d", f.Capacity))
	}
	if f.TypingDelayMin < 0 || f.TypingDelayMax < f.TypingDelayMin {
		errs = append(errs, fmt.Errorf("feed.typing_delay range [%s, %s] is invalid", f.TypingDelayMin, f.TypingDelayMax))
	}

	n := cfg.Narration
	if n.SafetyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("narration.safety_timeout must be > 0, got %s", n.SafetyTimeout))
	}
	if n.Volume < 0 || n.Volume > 1 {
		errs = append(errs, fmt.Errorf("narration.volume must be in [0, 1], got %g", n.Volume))
	}
	if n.Rate < 0 || n.Pitch < 0 {
		errs = append(errs, errors.New("narration.rate and narration.pitch must be >= 0"))
	}

	if p := strings.ToLower(strings.TrimSpace(cfg.TTS.Provider)); p != "" && !slices.Contains(speech.Providers, p) {
		errs = append(errs, fmt.Errorf("tts.provider %q is invalid; valid values: %s", cfg.TTS.Provider, strings.Join(speech.Providers, ", ")))
	}

	return errors.Join(errs...)
}
