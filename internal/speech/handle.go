package speech

import (
	"sync"

	"github.com/hammamikhairi/moonrace/internal/domain"
)

// Compile-time interface check.
var _ domain.Playback = (*handle)(nil)

// handle is the Playback returned by every backend in this package.
// The backend calls end when playback finishes; Stop runs stopFn once
// and then ends the handle.
type handle struct {
	done     chan struct{}
	endOnce  sync.Once
	stopOnce sync.Once
	err      error
	stopFn   func()
}

func newHandle(stopFn func()) *handle {
	return &handle{done: make(chan struct{}), stopFn: stopFn}
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *handle) Stop() {
	h.stopOnce.Do(func() {
		if h.stopFn != nil {
			h.stopFn()
		}
	})
	h.end(nil)
}

// end records err and closes Done. Only the first call has an effect.
func (h *handle) end(err error) {
	h.endOnce.Do(func() {
		h.err = err
		close(h.done)
	})
}
