package domain

import "time"

// CommentaryMessage is one entry in the commentary feed. It is immutable
// once created; the ID is assigned by the message log and never reused.
type CommentaryMessage struct {
	ID        int64
	Text      string
	Tone      Tone
	CreatedAt time.Time
}
