package relay

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/metrics"
	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
	"github.com/zhouzirui/sphere-relay/backend/internal/service/messages"
)

// Peer is one connected session as seen by the hub. Send must not block; a
// transport that cannot queue the event returns an error and the event is
// dropped for that peer only.
type Peer interface {
	ID() string
	Send(evt Event) error
}

// Hub runs the per-session protocol: connect, submit and disconnect. All
// transitions are serialised by one mutex that also covers the store
// mutation and its snapshot write, so a clear on the last disconnect can
// never interleave with an append.
type Hub struct {
	mu      sync.Mutex
	store   *messages.Store
	viewers ViewerCount
	peers   map[string]Peer
}

// NewHub creates a hub backed by store.
func NewHub(store *messages.Store) *Hub {
	return &Hub{
		store: store,
		peers: make(map[string]Peer),
	}
}

// Connect registers p, sends it the viewer count, broadcasts the count to
// everyone (p included) and, when live messages exist, syncs p.
func (h *Hub) Connect(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[p.ID()]; ok {
		return
	}

	h.peers[p.ID()] = p
	count := h.viewers.Inc()
	metrics.Viewers.Set(float64(count))

	logrus.WithFields(logrus.Fields{
		"session": p.ID(),
		"viewers": count,
	}).Info("session connected")

	h.sendTo(p, countEvent(count))
	h.broadcast(countEvent(count), "")

	if live := h.store.Snapshot(); len(live) > 0 {
		h.sendTo(p, syncEvent(live))
		metrics.SyncPayloadsSent.Inc()
		logrus.WithFields(logrus.Fields{
			"session":  p.ID(),
			"messages": len(live),
		}).Info("sent message sync")
	}
}

// Submit accepts a {"text": string} payload from p, stores it with a relay
// timestamp and id, and relays the text to every other session.
func (h *Hub) Submit(ctx context.Context, p Peer, raw []byte) (message.Message, error) {
	text, err := ParseSubmission(raw)
	if err != nil {
		metrics.MessagesRejected.Inc()
		return message.Message{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[p.ID()]; !ok {
		metrics.MessagesRejected.Inc()
		return message.Message{}, ErrNotConnected
	}

	msg := message.New(text, h.store.Now())
	if err := h.store.Append(ctx, msg); err != nil {
		logrus.WithError(err).WithField("backend", h.store.Backend()).Error("error saving messages")
	}
	metrics.MessagesSubmitted.Inc()

	logrus.WithFields(logrus.Fields{
		"session": p.ID(),
		"id":      msg.ID,
		"active":  h.store.Len(),
	}).Debug("message accepted")

	h.broadcast(textEvent(text), p.ID())
	return msg, nil
}

// Disconnect removes p, broadcasts the new count to the remaining sessions
// and clears the store once nobody is left. Unknown peers are ignored.
func (h *Hub) Disconnect(p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[p.ID()]; !ok {
		return
	}

	delete(h.peers, p.ID())
	count := h.viewers.Dec()
	metrics.Viewers.Set(float64(count))

	logrus.WithFields(logrus.Fields{
		"session": p.ID(),
		"viewers": count,
	}).Info("session disconnected")

	h.broadcast(countEvent(count), "")

	if count == 0 {
		h.store.Clear()
		logrus.Info("all sessions disconnected, cleared message history")
	}
}

// ViewerCount returns the number of connected sessions.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers.Value()
}

// Snapshot returns the live messages a joining session would be synced with.
func (h *Hub) Snapshot() []message.Message {
	return h.store.Snapshot()
}

// Store exposes the backing message store for read-only callers.
func (h *Hub) Store() *messages.Store {
	return h.store
}

// RunJanitor prunes expired messages from memory every interval until ctx is
// done. It never writes the snapshot or emits events, so what sessions see is
// unchanged; only the in-memory footprint shrinks.
func (h *Hub) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := h.store.Prune(); removed > 0 {
				logrus.WithField("removed", removed).Debug("pruned expired messages")
			}
		}
	}
}

func (h *Hub) sendTo(p Peer, evt Event) {
	if err := p.Send(evt); err != nil {
		metrics.EventsDropped.WithLabelValues(evt.Type).Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"session": p.ID(),
			"event":   evt.Type,
		}).Warn("dropped outbound event")
	}
}

// broadcast sends evt to every connected peer except the one with skipID.
func (h *Hub) broadcast(evt Event, skipID string) {
	for id, p := range h.peers {
		if id == skipID {
			continue
		}
		h.sendTo(p, evt)
	}
}
