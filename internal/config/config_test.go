package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/moonrace/internal/logger"
)

const validYAML = `
log:
  level: debug
  file: ""
race:
  id: sol-avax
  seed: 42
  primary_interval: 500ms
  ambient_interval: 0s
  notability_threshold: 2
  ambient_symbols: [DOGE, PEPE]
feed:
  capacity: 20
  typing_delay_min: 10ms
  typing_delay_max: 20ms
narration:
  enabled: true
  volume: 1
tts:
  provider: azure
  region: westeurope
  fallback: false
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.File != "" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Race.ID != "sol-avax" || cfg.Race.Seed != 42 {
		t.Errorf("race = %+v", cfg.Race)
	}
	if cfg.Race.PrimaryInterval != 500*time.Millisecond || cfg.Race.AmbientInterval != 0 {
		t.Errorf("intervals = %s / %s", cfg.Race.PrimaryInterval, cfg.Race.AmbientInterval)
	}
	if cfg.Feed.Capacity != 20 || cfg.Feed.TypingDelayMax != 20*time.Millisecond {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if !cfg.Narration.Enabled || cfg.Narration.Volume != 1 {
		t.Errorf("narration = %+v", cfg.Narration)
	}
	if cfg.TTS.Provider != "azure" || cfg.TTS.Region != "westeurope" || cfg.TTS.Fallback {
		t.Errorf("tts = %+v", cfg.TTS)
	}

	// Untouched keys keep their defaults.
	if cfg.Race.DriftBias != 0.45 || cfg.Race.BoostPositionBonus != 2 || cfg.Narration.Rate != 1.2 {
		t.Errorf("defaults lost: %+v %+v", cfg.Race, cfg.Narration)
	}
	if !cfg.TTS.DiskCache {
		t.Error("disk_cache default lost")
	}
}

func TestLoadFromReader_EmptyIsDefault(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Race.ID != def.Race.ID || cfg.Race.PrimaryInterval != 2*time.Second || cfg.Feed.Capacity != 10 {
		t.Fatalf("empty config did not yield defaults: %+v", cfg)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("race:\n  speed: 11\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Race.PrimaryInterval = 0
	cfg.Race.AmbientProbability = 1.5
	cfg.Feed.Capacity = 0
	cfg.Feed.TypingDelayMax = time.Millisecond
	cfg.Narration.Volume = 2
	cfg.TTS.Provider = "polly"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"log.level",
		"race.primary_interval",
		"race.ambient_probability",
		"feed.capacity",
		"feed.typing_delay",
		"narration.volume",
		`tts.provider "polly"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadAndLoadOptional(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moonrace.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil || cfg.Race.ID != "sol-avax" {
		t.Fatalf("Load = %+v, %v", cfg, err)
	}

	missing := filepath.Join(dir, "nope.yaml")
	if _, err := Load(missing); err == nil {
		t.Fatal("Load of missing file should fail")
	}
	cfg, err = LoadOptional(missing)
	if err != nil || cfg.Race.ID != Default().Race.ID {
		t.Fatalf("LoadOptional = %+v, %v", cfg, err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvProvider: "elevenlabs",
		EnvAPIKey:   "secret",
		EnvVoice:    "voice-42",
		EnvLogLevel: "off",
	}
	cfg := Default()
	ApplyEnv(cfg, func(k string) string { return env[k] })

	if cfg.TTS.Provider != "elevenlabs" || cfg.TTS.APIKey != "secret" || cfg.TTS.Voice != "voice-42" {
		t.Fatalf("tts = %+v", cfg.TTS)
	}
	if cfg.TTS.Region != "" {
		t.Fatal("unset variable overrode region")
	}
	if cfg.Log.Level != "off" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MOONRACE_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	LoadDotEnv(logger.New(logger.LevelOff, nil), path, filepath.Join(t.TempDir(), "missing.env"))
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("%s = %q", key, got)
	}
}

func TestSimulationConfig(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	rc := cfg.SimulationConfig()

	if rc.PrimaryInterval != 500*time.Millisecond || rc.NotabilityThreshold != 2 {
		t.Fatalf("race config = %+v", rc)
	}
	if len(rc.AmbientSymbols) != 2 || rc.AmbientSymbols[0] != "DOGE" {
		t.Fatalf("ambient symbols = %v", rc.AmbientSymbols)
	}
	if rc.PositionMin != 5 || rc.OddsMax != 80 || rc.VolumeStep != [2]float64{50000, 40000} {
		t.Fatalf("fixed ranges changed: %+v", rc)
	}

	s := cfg.SpeechSettings()
	if s.Provider != "azure" || !s.DiskWrite || s.Fallback {
		t.Fatalf("speech settings = %+v", s)
	}
}
