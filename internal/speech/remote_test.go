package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
)

type countingSynth struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{} // if set, Synthesize blocks until closed
}

func (s *countingSynth) Name() string  { return "counting" }
func (s *countingSynth) Voice() string { return "v" }

func (s *countingSynth) Synthesize(ctx context.Context, text string, _ domain.SpeakOptions) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio:" + text), nil
}

func (s *countingSynth) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSink struct {
	mu     sync.Mutex
	played [][]byte
}

func (f *fakeSink) Start(audio []byte) (domain.Playback, error) {
	f.mu.Lock()
	f.played = append(f.played, audio)
	f.mu.Unlock()
	return finished(nil), nil
}

func TestRemoteCachesIdenticalUtterances(t *testing.T) {
	synth := &countingSynth{}
	sink := &fakeSink{}
	r := NewRemote(synth, sink, nil, testLogger())

	for i := 0; i < 3; i++ {
		pb, err := r.Speak(context.Background(), "same", narrationOpts)
		if err != nil {
			t.Fatalf("speak %d: %v", i, err)
		}
		<-pb.Done()
	}
	if synth.count() != 1 {
		t.Fatalf("synth calls = %d, want 1", synth.count())
	}
	if len(sink.played) != 3 {
		t.Fatalf("played %d times, want 3", len(sink.played))
	}

	other := narrationOpts
	other.Rate = 1.0
	if _, err := r.Speak(context.Background(), "same", other); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if synth.count() != 2 {
		t.Fatalf("different options should miss the cache; calls = %d", synth.count())
	}
}

func TestRemoteSharesInFlightSynthesis(t *testing.T) {
	synth := &countingSynth{release: make(chan struct{})}
	r := NewRemote(synth, &fakeSink{}, nil, testLogger())

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Synthesize(context.Background(), "hot line", narrationOpts)
			errs <- err
		}()
	}

	deadline := time.Now().Add(time.Second)
	for synth.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(synth.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
	}
	if synth.count() != 1 {
		t.Fatalf("synth calls = %d, want 1", synth.count())
	}
}

func TestRemoteSharedSynthesisSurvivesFirstCallerCancel(t *testing.T) {
	synth := &countingSynth{release: make(chan struct{})}
	r := NewRemote(synth, &fakeSink{}, nil, testLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Synthesize(firstCtx, "boost line", narrationOpts)
		firstErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for synth.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		audio []byte
		err   error
	}
	second := make(chan result, 1)
	go func() {
		audio, err := r.Synthesize(context.Background(), "boost line", narrationOpts)
		second <- result{audio, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	close(synth.release)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller: %v", got.err)
	}
	if string(got.audio) != "audio:boost line" {
		t.Fatalf("audio = %q", got.audio)
	}
	if synth.count() != 1 {
		t.Fatalf("synth calls = %d, want 1", synth.count())
	}
	if !r.Cache().Has(CacheKey(synth.Name(), synth.Voice(), narrationOpts, "boost line")) {
		t.Fatal("shared result was not cached")
	}
}

func TestRemoteFailureIsReturnedAndNotCached(t *testing.T) {
	synth := &countingSynth{err: errors.New("401 unauthorized")}
	r := NewRemote(synth, &fakeSink{}, nil, testLogger())

	for i := 0; i < 2; i++ {
		if _, err := r.Speak(context.Background(), "x", narrationOpts); err == nil {
			t.Fatal("expected error")
		}
	}
	if synth.count() != 2 {
		t.Fatalf("failures must not be cached; calls = %d", synth.count())
	}
}

func TestRemoteWithoutSink(t *testing.T) {
	r := NewRemote(&countingSynth{}, nil, nil, testLogger())
	if r.Available() {
		t.Fatal("Available = true without sink")
	}
	if _, err := r.Speak(context.Background(), "x", narrationOpts); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestRemotePrefetch(t *testing.T) {
	synth := &countingSynth{}
	cache := NewAudioCache(t.TempDir(), true, testLogger())
	r := NewRemote(synth, &fakeSink{}, cache, testLogger())

	texts := []string{"welcome", "", "lead", "boost"}
	if err := r.Prefetch(context.Background(), narrationOpts, texts...); err != nil {
		t.Fatalf("prefetch: %v", err)
	}
	if synth.count() != 3 {
		t.Fatalf("synth calls = %d, want 3", synth.count())
	}
	if err := r.Prefetch(context.Background(), narrationOpts, texts...); err != nil {
		t.Fatalf("prefetch again: %v", err)
	}
	if synth.count() != 3 {
		t.Fatalf("second prefetch hit the network; calls = %d", synth.count())
	}
}
