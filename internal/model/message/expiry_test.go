package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLiveBoundary(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	cases := []struct {
		name string
		age  time.Duration
		live bool
	}{
		{"fresh", 0, true},
		{"one ms before lifetime", Lifetime - time.Millisecond, true},
		{"exactly lifetime", Lifetime, false},
		{"long expired", 20 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Message{Text: "x", Timestamp: now.Add(-tc.age).UnixMilli()}
			assert.Equal(t, tc.live, IsLive(m, now))
		})
	}
}

func TestFilterLiveKeepsOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	msgs := []Message{
		{Text: "a", Timestamp: now.Add(-1 * time.Second).UnixMilli()},
		{Text: "stale", Timestamp: now.Add(-16 * time.Second).UnixMilli()},
		{Text: "b", Timestamp: now.Add(-2 * time.Second).UnixMilli()},
	}

	live := FilterLive(msgs, now)

	require.Len(t, live, 2)
	assert.Equal(t, "a", live[0].Text)
	assert.Equal(t, "b", live[1].Text)
	assert.Len(t, msgs, 3, "input must not be modified")
}

func TestNewAssignsReceiptMetadata(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)

	a := New("hello", now)
	b := New("hello", now)

	assert.Equal(t, "hello", a.Text)
	assert.Equal(t, now.UnixMilli(), a.Timestamp)
	assert.Len(t, a.ID, 26)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.CreatedAt().Equal(now))
}
