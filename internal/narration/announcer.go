package narration

import (
	"sync"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// Speaker accepts text for narration.
type Speaker interface {
	Speak(text string) bool
}

// Announcer forwards new feed messages to a Speaker. Each message id is
// spoken at most once, and never an id older than the last one spoken.
type Announcer struct {
	speaker Speaker
	log     *logger.Logger

	mu     sync.Mutex
	lastID int64
}

// NewAnnouncer creates an announcer. Messages with id <= after are
// ignored, which keeps pre-seeded welcome lines silent.
func NewAnnouncer(speaker Speaker, after int64, log *logger.Logger) *Announcer {
	return &Announcer{speaker: speaker, log: log, lastID: after}
}

// Announce speaks msg if it is newer than anything seen so far. It has
// the shape of a feed subscriber.
func (a *Announcer) Announce(msg domain.CommentaryMessage) {
	a.mu.Lock()
	if msg.ID <= a.lastID {
		a.mu.Unlock()
		return
	}
	a.lastID = msg.ID
	a.mu.Unlock()

	if !a.speaker.Speak(msg.Text) {
		a.log.Debug("announcer: #%d not narrated", msg.ID)
	}
}

// LastID returns the id of the newest message seen.
func (a *Announcer) LastID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastID
}
