package message

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is a relayed text that spawns a sphere on every viewer.
type Message struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
}

// New stamps text with the relay's receipt time and a fresh identifier.
// Client supplied timestamps are never used.
func New(text string, now time.Time) Message {
	return Message{
		Text:      text,
		Timestamp: now.UnixMilli(),
		ID:        NewID(now),
	}
}

// NewID returns a ULID: the receipt millisecond followed by 80 random bits.
// Uniqueness is probabilistic; the relay never checks it.
func NewID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// CreatedAt converts the millisecond timestamp back to a time.Time.
func (m Message) CreatedAt() time.Time {
	return time.UnixMilli(m.Timestamp)
}
