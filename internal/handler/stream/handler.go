package stream

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/service/relay"
	"github.com/zhouzirui/sphere-relay/backend/pkg/utils"
)

const (
	heartbeatInterval = 15 * time.Second
	sendBufSize       = 64
)

var (
	errObserverGone       = errors.New("observer gone")
	errObserverBufferFull = errors.New("observer buffer full")
)

// Handler serves receive-only viewers over Server-Sent Events. An observer is
// counted like any other session and gets the same events, but cannot submit.
type Handler struct {
	hub       *relay.Hub
	heartbeat time.Duration
}

// New creates a new stream handler
func New(hub *relay.Hub) *Handler {
	return &Handler{hub: hub, heartbeat: heartbeatInterval}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/stream", h.handleStream)
}

type observer struct {
	id     string
	events chan relay.Event
	mu     sync.RWMutex
	closed bool
}

func (o *observer) ID() string { return o.id }

func (o *observer) Send(evt relay.Event) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return errObserverGone
	}
	select {
	case o.events <- evt:
		return nil
	default:
		return errObserverBufferFull
	}
}

func (o *observer) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	obs := &observer{
		id:     uuid.NewString(),
		events: make(chan relay.Event, sendBufSize),
	}
	log := logrus.WithField("session", obs.id)
	log.Debug("[sse] opening observer stream")

	h.hub.Connect(obs)
	defer func() {
		h.hub.Disconnect(obs)
		obs.close()
		log.Debug("[sse] closing observer stream")
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-obs.events:
			if err := utils.SendSSEEvent(w, flusher, evt.Type, evt.Data); err != nil {
				log.WithError(err).Debug("[sse] write failed")
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
