// Package feed holds the commentary feed: a capped, time-ordered log of
// messages plus the transient "composing" state shown while the next
// message is being typed.
package feed

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*Log)(nil)

// DefaultCapacity is how many messages the feed retains.
const DefaultCapacity = 10

// Option configures the log.
type Option func(*Log)

// WithCapacity sets the maximum number of retained messages.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithTypingDelay sets the randomized composing delay range for Post.
func WithTypingDelay(min, max time.Duration) Option {
	return func(l *Log) {
		if max < min {
			max = min
		}
		l.minDelay, l.maxDelay = min, max
	}
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// Log is the commentary feed. Safe for concurrent use.
//
// Append adds a message immediately. Post models typing latency: it
// raises the composing flag, waits a random delay, then appends.
// Subscribers see messages in id order.
type Log struct {
	log      *logger.Logger
	capacity int
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time

	// dispatchMu serializes append + subscriber fan-out so subscribers
	// observe ids in strictly increasing order.
	dispatchMu sync.Mutex

	mu          sync.Mutex
	messages    []domain.CommentaryMessage
	nextID      int64
	composing   int
	subscribers []func(domain.CommentaryMessage)
	pending     map[*time.Timer]struct{}
	closed      bool
}

// New creates an empty feed. The first message gets id 1.
func New(log *logger.Logger, opts ...Option) *Log {
	l := &Log{
		log:      log,
		capacity: DefaultCapacity,
		minDelay: 500 * time.Millisecond,
		maxDelay: 1000 * time.Millisecond,
		now:      time.Now,
		nextID:   1,
		pending:  make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers fn to be called after every append, outside the
// log's lock. fn must not call Append or Post synchronously.
func (l *Log) Subscribe(fn func(domain.CommentaryMessage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Append adds a message right away and returns it.
func (l *Log) Append(text string, tone domain.Tone) domain.CommentaryMessage {
	return l.add(text, tone, true)
}

// AppendQuiet adds a message right away without notifying subscribers.
// The message is shown in the feed but never narrated.
func (l *Log) AppendQuiet(text string, tone domain.Tone) domain.CommentaryMessage {
	return l.add(text, tone, false)
}

func (l *Log) add(text string, tone domain.Tone, notify bool) domain.CommentaryMessage {
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	l.mu.Lock()
	msg := l.appendLocked(text, tone)
	var subs []func(domain.CommentaryMessage)
	if notify {
		subs = l.subscribers
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
	return msg
}

// Post appends text after the typing delay. The composing flag is raised
// immediately and lowered once no posts are pending. If ctx ends before
// the delay elapses the message is dropped.
func (l *Log) Post(ctx context.Context, text string, tone domain.Tone) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.composing++

	var t *time.Timer
	t = time.AfterFunc(l.typingDelay(), func() {
		l.mu.Lock()
		delete(l.pending, t)
		l.mu.Unlock()
		l.finishPost(ctx, text, tone)
	})
	l.pending[t] = struct{}{}
}

// Notify posts text with typing latency. It never fails.
func (l *Log) Notify(ctx context.Context, text string, tone domain.Tone) error {
	l.Post(ctx, text, tone)
	return nil
}

func (l *Log) finishPost(ctx context.Context, text string, tone domain.Tone) {
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	l.mu.Lock()
	l.composing--
	if l.closed || ctx.Err() != nil {
		l.mu.Unlock()
		l.log.Debug("feed: dropped post (%s): %s", tone, logger.Clip(text, 40))
		return
	}
	msg := l.appendLocked(text, tone)
	subs := l.subscribers
	l.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
}

// appendLocked assigns the next id and trims the head past capacity.
// Must be called with l.mu held.
func (l *Log) appendLocked(text string, tone domain.Tone) domain.CommentaryMessage {
	msg := domain.CommentaryMessage{
		ID:        l.nextID,
		Text:      text,
		Tone:      tone,
		CreatedAt: l.now(),
	}
	l.nextID++

	l.messages = append(l.messages, msg)
	if over := len(l.messages) - l.capacity; over > 0 {
		// Copy so the dropped head can be collected.
		l.messages = append([]domain.CommentaryMessage(nil), l.messages[over:]...)
	}
	l.log.Debug("feed: #%d (%s) %s", msg.ID, tone, logger.Clip(text, 60))
	return msg
}

// typingDelay must be called with l.mu held.
func (l *Log) typingDelay() time.Duration {
	span := l.maxDelay - l.minDelay
	if span <= 0 {
		return l.minDelay
	}
	return l.minDelay + rand.N(span)
}

// Messages returns a copy of the retained messages, oldest first.
func (l *Log) Messages() []domain.CommentaryMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.CommentaryMessage(nil), l.messages...)
}

// Len returns the number of retained messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// IsComposing reports whether a posted message is still being typed.
func (l *Log) IsComposing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.composing > 0
}

// Close cancels pending posts. Retained messages stay readable.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for t := range l.pending {
		if t.Stop() {
			l.composing--
		}
		delete(l.pending, t)
	}
}
