package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/service/relay"
)

const (
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	writeWait     = 10 * time.Second
	sendBufSize   = 256
	maxFrameBytes = 1 << 20
)

var errClientClosed = errors.New("client closed")
var errSendBufferFull = errors.New("send buffer full")

// Handler upgrades viewers to WebSocket sessions on the relay hub.
type Handler struct {
	hub      *relay.Hub
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(hub *relay.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client is one WebSocket viewer. It implements relay.Peer; events are queued
// on send and written by writeLoop.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan relay.Event
	mu     sync.RWMutex
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan relay.Event, sendBufSize),
	}
}

func (c *client) ID() string { return c.id }

func (c *client) Send(evt relay.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- evt:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("[websocket] upgrade failed")
		return
	}
	defer conn.Close()

	c := newClient(conn)
	log := logrus.WithField("session", c.id)
	log.WithField("remote_addr", r.RemoteAddr).Debug("[websocket] new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		c.writeLoop(cancel)
		close(writerDone)
	}()

	h.hub.Connect(c)
	h.readLoop(ctx, c, log)
	h.hub.Disconnect(c)

	c.close()
	<-writerDone
}

func (h *Handler) readLoop(ctx context.Context, c *client, log *logrus.Entry) {
	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("[websocket] read error")
			}
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Debug("[websocket] dropping undecodable frame")
			continue
		}

		h.handleMessage(ctx, c, &msg, log)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *client, msg *inboundMessage, log *logrus.Entry) {
	switch msg.Type {
	case relay.EventNewMessage:
		if _, err := h.hub.Submit(ctx, c, msg.Data); err != nil {
			log.WithError(err).Debug("[websocket] submission dropped")
		}
	default:
		log.WithField("type", msg.Type).Debug("[websocket] unsupported message type")
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings.
// It calls stop when the connection can no longer be written to.
func (c *client) writeLoop(stop context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		stop()
		// Unblocks a pending ReadMessage once writing has failed.
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				logrus.WithError(err).WithField("session", c.id).Debug("[websocket] write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
