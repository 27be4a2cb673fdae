package message

import "time"

const (
	// Lifetime is how long a message stays live after receipt.
	Lifetime = 15 * time.Second
	// MaxActive bounds the number of tracked messages.
	MaxActive = 50
)

// IsLive reports whether m is younger than Lifetime at now.
func IsLive(m Message, now time.Time) bool {
	return now.UnixMilli()-m.Timestamp < Lifetime.Milliseconds()
}

// FilterLive returns the live subset of msgs, preserving order. The input is
// not modified.
func FilterLive(msgs []Message, now time.Time) []Message {
	live := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if IsLive(m, now) {
			live = append(live, m)
		}
	}
	return live
}
