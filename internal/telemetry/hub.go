// Package telemetry streams status text and orbit frames to websocket
// clients, for dashboards watching a running spawner.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/orbit"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// StatusMessage carries the user-facing status text.
type StatusMessage struct {
	Type string `json:"type"` // "status"
	Text string `json:"text"`
}

// ObjectFrame is one object's position in a FrameMessage.
type ObjectFrame struct {
	ID    uint64  `json:"id"`
	State string  `json:"state"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Z     float32 `json:"z"`
}

// FrameMessage lists every object that has a position.
type FrameMessage struct {
	Type    string        `json:"type"` // "frame"
	Objects []ObjectFrame `json:"objects"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to connected clients. Slow clients miss messages
// rather than stall the publisher.
type Hub struct {
	upgrader      websocket.Upgrader
	frameInterval time.Duration

	mu        sync.Mutex
	clients   map[*client]struct{}
	lastFrame time.Time
	status    []byte

	log *zap.Logger
}

// NewHub creates a hub that sends at most one frame per frameInterval.
func NewHub(frameInterval time.Duration) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		frameInterval: frameInterval,
		clients:       make(map[*client]struct{}),
		log:           logger.Named("telemetry"),
	}
}

// ServeHTTP upgrades the request and streams messages until the client
// goes away. New clients get the latest status immediately.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.status != nil {
		c.send <- h.status
	}
	h.mu.Unlock()
	h.log.Debug("client connected", zap.String("remote", r.RemoteAddr))

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards client messages; it exists to notice disconnects and
// answer pings.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("dropping message for slow client")
		}
	}
}

// SetStatus broadcasts a status message. It satisfies acquire.StatusSink.
func (h *Hub) SetStatus(text string) {
	msg, err := json.Marshal(StatusMessage{Type: "status", Text: text})
	if err != nil {
		return
	}
	h.mu.Lock()
	h.status = msg
	h.mu.Unlock()
	h.broadcast(msg)
}

// PublishFrame broadcasts the positions of objs, unless a frame was sent
// less than the frame interval ago. It reports whether a frame was sent.
func (h *Hub) PublishFrame(objs []*orbit.Object) bool {
	now := time.Now()
	h.mu.Lock()
	if !h.lastFrame.IsZero() && now.Sub(h.lastFrame) < h.frameInterval {
		h.mu.Unlock()
		return false
	}
	h.lastFrame = now
	h.mu.Unlock()

	msg, err := json.Marshal(Frame(objs))
	if err != nil {
		return false
	}
	h.broadcast(msg)
	return true
}

// Frame builds the frame message for objs. Objects that have not been
// positioned yet are left out.
func Frame(objs []*orbit.Object) FrameMessage {
	frame := FrameMessage{Type: "frame", Objects: make([]ObjectFrame, 0, len(objs))}
	for _, o := range objs {
		p, ok := o.Position()
		if !ok || !o.Alive() {
			continue
		}
		frame.Objects = append(frame.Objects, ObjectFrame{
			ID: o.ID(), State: o.State().String(), X: p.X, Y: p.Y, Z: p.Z,
		})
	}
	return frame
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve exposes the hub at /ws on addr until ctx is done. Connected
// clients are closed on shutdown.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.log.Info("telemetry listening", zap.String("addr", ln.Addr().String()))
	return h.serve(ctx, ln)
}

func (h *Hub) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Shutdown does not touch hijacked connections.
		srv.Shutdown(shutdownCtx)
		h.closeAll()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// closeAll drops every client, stopping its write loop and unblocking its
// read loop.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
}
