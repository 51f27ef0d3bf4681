package speech

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ domain.SpeechBackend = (*Local)(nil)

// baseWordsPerMinute is the synthesizer speed at rate 1.0.
const baseWordsPerMinute = 175

// LocalOption configures the local backend.
type LocalOption func(*Local)

// WithBinary pins the synthesizer executable instead of searching PATH.
// The argument style is chosen from the file name. An empty path makes
// the backend unavailable.
func WithBinary(path string) LocalOption {
	return func(l *Local) {
		l.binary = path
		l.pinned = true
	}
}

// WithCommand overrides how the synthesizer process is built.
func WithCommand(fn func(name string, args ...string) *exec.Cmd) LocalOption {
	return func(l *Local) {
		l.command = fn
	}
}

// WithPollInterval sets how often completion is checked.
func WithPollInterval(d time.Duration) LocalOption {
	return func(l *Local) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// Local speaks through a synthesizer installed on the machine
// (espeak-ng, espeak, spd-say or macOS say). It costs nothing and needs
// no credentials. Starting an utterance cuts off the previous one.
type Local struct {
	binary       string
	pinned       bool
	command      func(name string, args ...string) *exec.Cmd
	pollInterval time.Duration
	log          *logger.Logger

	mu      sync.Mutex
	current *utterance
}

// utterance is one running synthesizer process.
type utterance struct {
	cmd      *exec.Cmd
	speaking atomic.Bool
	err      error // valid once speaking is false
}

// NewLocal creates the local backend, searching PATH for a synthesizer
// unless WithBinary is given.
func NewLocal(log *logger.Logger, opts ...LocalOption) *Local {
	l := &Local{
		command:      exec.Command,
		pollInterval: DefaultPollInterval,
		log:          log,
	}
	for _, opt := range opts {
		opt(l)
	}
	if !l.pinned {
		l.binary = detectSynthesizer()
	}
	if l.binary == "" {
		log.Debug("local tts: no synthesizer found")
	} else {
		log.Debug("local tts: using %s", l.binary)
	}
	return l
}

func detectSynthesizer() string {
	candidates := []string{"espeak-ng", "espeak", "spd-say"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"say"}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path
		}
	}
	return ""
}

// Name implements domain.SpeechBackend.
func (l *Local) Name() string { return ProviderLocal }

// Available reports whether a synthesizer executable was found.
func (l *Local) Available() bool { return l.binary != "" }

// Speak starts the synthesizer and returns once the process is running.
// The handle completes when the process exits; completion is detected by
// polling the utterance's speaking flag.
func (l *Local) Speak(ctx context.Context, text string, opts domain.SpeakOptions) (domain.Playback, error) {
	if !l.Available() {
		return nil, fmt.Errorf("local tts: %w", domain.ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.Stop()

	u := &utterance{cmd: l.command(l.binary, synthArgs(filepath.Base(l.binary), text, opts)...)}
	if err := u.cmd.Start(); err != nil {
		return nil, fmt.Errorf("local tts: starting %s: %w", l.binary, err)
	}
	u.speaking.Store(true)

	l.mu.Lock()
	l.current = u
	l.mu.Unlock()

	go func() {
		err := u.cmd.Wait()
		if err != nil {
			u.err = fmt.Errorf("local tts: %w", err)
		}
		u.speaking.Store(false)
		l.mu.Lock()
		if l.current == u {
			l.current = nil
		}
		l.mu.Unlock()
	}()

	h := newHandle(func() { l.kill(u) })
	go l.watch(u, h)
	return h, nil
}

// watch ends h once the utterance stops speaking.
func (l *Local) watch(u *utterance, h *handle) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.Done():
			return
		case <-ticker.C:
			if !u.speaking.Load() {
				h.end(u.err)
				return
			}
		}
	}
}

// Stop cuts off the current utterance, if any.
func (l *Local) Stop() {
	l.mu.Lock()
	u := l.current
	l.current = nil
	l.mu.Unlock()

	if u != nil {
		l.kill(u)
	}
}

func (l *Local) kill(u *utterance) {
	if u.speaking.Load() && u.cmd.Process != nil {
		_ = u.cmd.Process.Kill()
		l.log.Debug("local tts: stopped")
	}
}

// synthArgs builds the command line for the given synthesizer.
func synthArgs(kind, text string, opts domain.SpeakOptions) []string {
	rate := opts.Rate
	if rate <= 0 {
		rate = 1
	}
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * rate)))

	switch kind {
	case "say":
		return []string{"-r", wpm, text}
	case "spd-say":
		args := []string{"--wait",
			"-r", strconv.Itoa(int(clampFloat(math.Round((rate-1)*100), -100, 100))),
		}
		if opts.Pitch > 0 {
			args = append(args, "-p", strconv.Itoa(int(clampFloat(math.Round((opts.Pitch-1)*100), -100, 100))))
		}
		if opts.Volume > 0 {
			args = append(args, "-i", strconv.Itoa(int(clampFloat(math.Round(opts.Volume*200-100), -100, 100))))
		}
		if opts.Language != "" {
			args = append(args, "-l", strings.ToLower(strings.SplitN(opts.Language, "-", 2)[0]))
		}
		return append(args, text)
	default: // espeak, espeak-ng
		args := []string{"-s", wpm}
		if opts.Pitch > 0 {
			args = append(args, "-p", strconv.Itoa(int(clampFloat(math.Round(opts.Pitch*50), 0, 99))))
		}
		if opts.Volume > 0 {
			// espeak amplitude: 0-200
			args = append(args, "-a", strconv.Itoa(int(clampFloat(math.Round(opts.Volume*200), 0, 200))))
		}
		if opts.Language != "" {
			args = append(args, "-v", strings.ToLower(opts.Language))
		}
		return append(args, "--", text)
	}
}
