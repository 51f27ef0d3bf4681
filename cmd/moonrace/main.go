// MoonRace is a live two-horse market race with spoken commentary.
//
// Usage:
//
//	moonrace [-config moonrace.yaml] [-race btc-eth] [-verbose] [-quiet] [-no-speech]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hammamikhairi/moonrace/internal/catalog"
	"github.com/hammamikhairi/moonrace/internal/commentary"
	"github.com/hammamikhairi/moonrace/internal/config"
	"github.com/hammamikhairi/moonrace/internal/control"
	"github.com/hammamikhairi/moonrace/internal/display"
	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/feed"
	"github.com/hammamikhairi/moonrace/internal/logger"
	"github.com/hammamikhairi/moonrace/internal/narration"
	"github.com/hammamikhairi/moonrace/internal/race"
	"github.com/hammamikhairi/moonrace/internal/speech"
	"golang.org/x/sync/errgroup"
)

type flags struct {
	config    string
	verbose   bool
	quiet     bool
	logFile   string
	raceID    string
	noSpeech  bool
	cacheDir  string
	diskCache bool
	seed      uint64
	set       map[string]bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", config.DefaultPath, "YAML config file (optional when left at the default)")
	flag.BoolVar(&f.verbose, "verbose", false, "enable verbose/debug logging")
	flag.BoolVar(&f.quiet, "quiet", false, "disable all logging")
	flag.StringVar(&f.logFile, "log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	flag.StringVar(&f.raceID, "race", "", "race to watch (see the races command)")
	flag.BoolVar(&f.noSpeech, "no-speech", false, "disable text-to-speech entirely")
	flag.StringVar(&f.cacheDir, "cache-dir", "", "directory for the persistent TTS audio cache")
	flag.BoolVar(&f.diskCache, "disk-cache", true, "persist TTS audio cache to disk (reads from disk even when false)")
	flag.Uint64Var(&f.seed, "seed", 0, "seed the simulation for a reproducible race (0 = random)")
	flag.Parse()

	f.set = map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "moonrace: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()

	// .env first so MOONRACE_* variables are visible to ApplyEnv.
	config.LoadDotEnv(logger.Discard())

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logOut, closeLog := openLog(cfg.Log.File)
	defer closeLog()

	// Third-party code that logs through the standard logger ends up in
	// the same place instead of on the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	level, _ := logger.ParseLevel(cfg.Log.Level)
	if f.verbose {
		level = logger.LevelVerbose
	}
	if f.quiet {
		level = logger.LevelOff
	}
	log := logger.New(level, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	races := catalog.NewMemorySource(log)
	selected, err := races.Get(ctx, cfg.Race.ID)
	if err != nil {
		return fmt.Errorf("race %q: %w", cfg.Race.ID, err)
	}

	var genOpts []commentary.Option
	if cfg.Race.Seed != 0 {
		genOpts = append(genOpts, commentary.WithSeed(cfg.Race.Seed))
	}
	gen, err := commentary.New(log, genOpts...)
	if err != nil {
		return err
	}

	messages := feed.New(log,
		feed.WithCapacity(cfg.Feed.Capacity),
		feed.WithTypingDelay(cfg.Feed.TypingDelayMin, cfg.Feed.TypingDelayMax),
	)
	defer messages.Close()

	backend, err := speech.Build(cfg.SpeechSettings(), openSpeaker(log), log)
	if err != nil {
		return err
	}
	speakOpts := cfg.SpeakOptions()
	queue := narration.New(backend, log,
		narration.WithSafetyTimeout(cfg.Narration.SafetyTimeout),
		narration.WithSpeakOptions(speakOpts),
		narration.WithEnabled(cfg.Narration.Enabled),
	)
	defer queue.Close()

	if !queue.IsSupported() {
		log.Info("narration unavailable: no speech backend found")
	} else {
		log.Info("narration backend: %s", queue.Backend())
	}

	announcer := narration.NewAnnouncer(queue, 0, log)
	messages.Subscribe(announcer.Announce)

	session := &raceSession{
		races:     races,
		cfg:       cfg.SimulationConfig(),
		gen:       gen,
		feed:      messages,
		seed:      cfg.Race.Seed,
		log:       log,
	}

	ui := display.NewUI(session, messages, queue)
	controller := control.NewController(session, queue, races, log)

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)

	session.start(gctx, selected)
	defer session.Stop()

	if p, ok := backend.(speech.Prefetcher); ok {
		g.Go(func() error {
			prefetchBoostLines(gctx, p, speakOpts, selected, log)
			return nil
		})
	}

	app := &cliApp{controller: controller, ui: ui, log: log}
	g.Go(func() error {
		ui.WaitReady()
		defer ui.Quit()
		return app.run(gctx)
	})

	// Bubble Tea owns the terminal; Run blocks until quit.
	uiErr := ui.Run()
	stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown: %v", err)
	}
	if uiErr != nil {
		return fmt.Errorf("display: %w", uiErr)
	}
	return nil
}

// loadConfig layers the config file, the environment and the flags.
func loadConfig(f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.set["config"] {
		cfg, err = config.Load(f.config)
	} else {
		cfg, err = config.LoadOptional(f.config)
	}
	if err != nil {
		return nil, err
	}

	config.ApplyEnv(cfg, os.Getenv)

	if f.set["log-file"] {
		cfg.Log.File = f.logFile
	}
	if f.set["race"] {
		cfg.Race.ID = f.raceID
	}
	if f.set["seed"] {
		cfg.Race.Seed = f.seed
	}
	if f.set["cache-dir"] {
		cfg.TTS.CacheDir = f.cacheDir
	}
	if f.set["disk-cache"] {
		cfg.TTS.DiskCache = f.diskCache
	}
	if f.noSpeech {
		cfg.TTS.Disabled = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLog directs logs to a file so the UI stays clean. It falls back to
// stderr when the file cannot be opened.
func openLog(path string) (io.Writer, func()) {
	if path == "" || path == "stderr" {
		return os.Stderr, func() {}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr, func() {}
	}
	return fh, func() { fh.Close() }
}

func openSpeaker(log *logger.Logger) speech.SinkFactory {
	return func() (speech.AudioSink, error) {
		p, err := speech.NewPlayer(log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// prefetchBoostLines warms the speech cache with the alert each competitor
// gets on a default boost.
func prefetchBoostLines(ctx context.Context, p speech.Prefetcher, opts domain.SpeakOptions, r *domain.Race, log *logger.Logger) {
	clean := narration.NewSanitizer()
	texts := make([]string, 0, len(r.Symbols))
	for _, sym := range r.Symbols {
		texts = append(texts, clean.Clean(race.BoostLine(sym, control.DefaultBoostAmount)))
	}
	if err := p.Prefetch(ctx, opts, texts...); err != nil && ctx.Err() == nil {
		log.Warn("prefetch: %v", err)
	}
}

// cliApp routes typed commands to the controller.
type cliApp struct {
	controller *control.Controller
	ui         *display.UI
	log        *logger.Logger
}

func (a *cliApp) run(ctx context.Context) error {
	input := a.ui.InputChan()
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-input:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		res, err := a.controller.Handle(ctx, line)
		if err != nil {
			a.log.Error("command %q: %v", line, err)
			a.ui.PrintUrgent("Something went wrong: " + err.Error())
			continue
		}
		if res.Reply != "" {
			a.ui.PrintReply(res.Reply)
		}
		if res.Quit {
			return nil
		}
	}
}
