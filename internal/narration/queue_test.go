package narration

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// ── fakes ────────────────────────────────────────────────────────

type fakePlayback struct {
	done    chan struct{}
	once    sync.Once
	err     error
	onEnd   func()
	stopped atomic.Bool
}

func newFakePlayback(onEnd func()) *fakePlayback {
	return &fakePlayback{done: make(chan struct{}), onEnd: onEnd}
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }
func (p *fakePlayback) Err() error            { return p.err }

func (p *fakePlayback) Stop() {
	p.stopped.Store(true)
	p.finish(nil)
}

func (p *fakePlayback) finish(err error) {
	p.once.Do(func() {
		p.err = err
		if p.onEnd != nil {
			p.onEnd()
		}
		close(p.done)
	})
}

type fakeBackend struct {
	available bool
	// playFor > 0 finishes each playback on its own after that long.
	playFor time.Duration
	failOn  map[string]error

	mu        sync.Mutex
	calls     []string
	opts      []domain.SpeakOptions
	playbacks []*fakePlayback
	active    int
	maxActive int
}

func (b *fakeBackend) Name() string    { return "fake" }
func (b *fakeBackend) Available() bool { return b.available }

func (b *fakeBackend) Speak(_ context.Context, text string, opts domain.SpeakOptions) (domain.Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, text)
	b.opts = append(b.opts, opts)
	if err := b.failOn[text]; err != nil {
		return nil, err
	}

	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	pb := newFakePlayback(func() {
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	})
	b.playbacks = append(b.playbacks, pb)
	if b.playFor > 0 {
		time.AfterFunc(b.playFor, func() { pb.finish(nil) })
	}
	return pb, nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) playback(i int) *fakePlayback {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playbacks[i]
}

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, nil)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func enabledQueue(t *testing.T, b *fakeBackend, opts ...Option) *Queue {
	t.Helper()
	q := New(b, testLogger(), opts...)
	if err := q.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	t.Cleanup(q.Close)
	return q
}

// ── tests ────────────────────────────────────────────────────────

func TestDisabledByDefault(t *testing.T) {
	b := &fakeBackend{available: true}
	q := New(b, testLogger())
	defer q.Close()

	if q.Enabled() {
		t.Fatal("queue should start disabled")
	}
	if q.Speak("hello") {
		t.Fatal("Speak accepted text while disabled")
	}
	time.Sleep(20 * time.Millisecond)
	if n := b.callCount(); n != 0 {
		t.Fatalf("backend called %d times while disabled", n)
	}
}

func TestSpeakSanitizesText(t *testing.T) {
	b := &fakeBackend{available: true, playFor: time.Millisecond}
	q := enabledQueue(t, b)

	if !q.Speak("🚀 price up") {
		t.Fatal("Speak rejected text")
	}
	waitFor(t, "backend call", func() bool { return b.callCount() == 1 })

	if got := b.snapshot()[0]; got != "price up" {
		t.Fatalf("backend received %q, want %q", got, "price up")
	}
	if got := b.opts[0]; got != DefaultSpeakOptions {
		t.Fatalf("speak options = %+v, want defaults", got)
	}
}

func TestSpeakDiscardsEmptyAfterSanitizing(t *testing.T) {
	b := &fakeBackend{available: true}
	q := enabledQueue(t, b)

	for _, text := range []string{"", "   ", "🚀📈 ⚠️"} {
		if q.Speak(text) {
			t.Errorf("Speak(%q) accepted", text)
		}
	}
	if q.State() != StateIdle {
		t.Fatalf("state = %s, want idle", q.State())
	}
	if b.callCount() != 0 {
		t.Fatal("backend called for empty text")
	}
}

func TestDrainIsFIFOAndSequential(t *testing.T) {
	b := &fakeBackend{available: true, playFor: 5 * time.Millisecond}
	q := enabledQueue(t, b)

	q.Speak("one")
	q.Speak("two")
	q.Speak("three")

	waitFor(t, "three utterances", func() bool { return q.Stats().Spoken == 3 })
	waitFor(t, "idle", func() bool { return q.State() == StateIdle })

	if got, want := b.snapshot(), []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("spoken order = %v, want %v", got, want)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxActive != 1 {
		t.Fatalf("max concurrent playbacks = %d, want 1", b.maxActive)
	}
}

func TestDisableMidDrainClearsBacklog(t *testing.T) {
	b := &fakeBackend{available: true}
	q := enabledQueue(t, b)

	for _, s := range []string{"a", "b", "c", "d"} {
		q.Speak(s)
	}
	waitFor(t, "first call", func() bool { return b.callCount() == 1 })
	b.playback(0).finish(nil)
	waitFor(t, "second call", func() bool { return b.callCount() == 2 })

	q.Disable()

	if q.Pending() != 0 {
		t.Fatalf("backlog not cleared: %d pending", q.Pending())
	}
	if !b.playback(1).stopped.Load() {
		t.Fatal("in-flight playback was not stopped")
	}
	// A late completion from the stopped utterance must not start another.
	b.playback(1).finish(nil)
	time.Sleep(30 * time.Millisecond)

	if n := b.callCount(); n != 2 {
		t.Fatalf("backend called %d times after disable, want 2", n)
	}
	if got := q.Stats().Dropped; got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}
	if q.Speak("e") {
		t.Fatal("Speak accepted text after Disable")
	}
}

func TestReenableStartsFreshDrain(t *testing.T) {
	b := &fakeBackend{available: true}
	q := enabledQueue(t, b)

	q.Speak("old")
	waitFor(t, "first call", func() bool { return b.callCount() == 1 })
	q.Disable()

	if err := q.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	q.Speak("new")
	waitFor(t, "second call", func() bool { return b.callCount() == 2 })

	if got := b.snapshot()[1]; got != "new" {
		t.Fatalf("second utterance = %q", got)
	}
}

func TestFailuresDoNotStopDrain(t *testing.T) {
	b := &fakeBackend{
		available: true,
		playFor:   2 * time.Millisecond,
		failOn:    map[string]error{"bad": errors.New("401 unauthorized")},
	}
	q := enabledQueue(t, b)

	q.Speak("good one")
	q.Speak("bad")
	q.Speak("good two")

	waitFor(t, "drain", func() bool {
		s := q.Stats()
		return s.Spoken+s.Failed == 3
	})
	s := q.Stats()
	if s.Spoken != 2 || s.Failed != 1 {
		t.Fatalf("stats = %+v, want 2 spoken 1 failed", s)
	}
	if got := b.snapshot(); got[2] != "good two" {
		t.Fatalf("calls = %v", got)
	}
}

func TestPlaybackErrorCountsAsCompleted(t *testing.T) {
	b := &fakeBackend{available: true}
	q := enabledQueue(t, b)

	q.Speak("first")
	q.Speak("second")
	waitFor(t, "first call", func() bool { return b.callCount() == 1 })
	b.playback(0).finish(errors.New("device lost"))

	waitFor(t, "second call", func() bool { return b.callCount() == 2 })
	if q.Stats().Failed != 1 {
		t.Fatalf("stats = %+v", q.Stats())
	}
}

func TestSafetyTimeoutForcesAdvance(t *testing.T) {
	b := &fakeBackend{available: true} // playbacks never finish on their own
	q := enabledQueue(t, b, WithSafetyTimeout(20*time.Millisecond))

	q.Speak("stuck")
	q.Speak("next")

	waitFor(t, "second call", func() bool { return b.callCount() == 2 })
	if !b.playback(0).stopped.Load() {
		t.Fatal("timed-out playback was not stopped")
	}
	if q.Stats().TimedOut < 1 {
		t.Fatalf("stats = %+v, want a timeout", q.Stats())
	}
}

func TestUnsupportedBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend domain.SpeechBackend
	}{
		{"nil backend", nil},
		{"unavailable backend", &fakeBackend{available: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(tt.backend, testLogger(), WithEnabled(true))
			defer q.Close()

			if q.IsSupported() {
				t.Fatal("IsSupported = true")
			}
			if q.Enabled() {
				t.Fatal("unsupported queue started enabled")
			}
			if err := q.Enable(); !errors.Is(err, domain.ErrUnsupported) {
				t.Fatalf("Enable err = %v, want ErrUnsupported", err)
			}
			if _, err := q.Toggle(); !errors.Is(err, domain.ErrUnsupported) {
				t.Fatalf("Toggle err = %v, want ErrUnsupported", err)
			}
			if q.Speak("hello") {
				t.Fatal("Speak accepted text")
			}
		})
	}
}

func TestToggle(t *testing.T) {
	q := New(&fakeBackend{available: true}, testLogger())
	defer q.Close()

	on, err := q.Toggle()
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}
	on, err = q.Toggle()
	if err != nil || on {
		t.Fatalf("second toggle = %v, %v", on, err)
	}
}

func TestCloseRejectsSpeak(t *testing.T) {
	b := &fakeBackend{available: true}
	q := New(b, testLogger(), WithEnabled(true))
	q.Speak("x")
	q.Close()

	if q.Speak("y") {
		t.Fatal("Speak accepted text after Close")
	}
}
