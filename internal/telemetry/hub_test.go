package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/internal/orbit"
	"github.com/Faultbox/orbitforge/pkg/math"
)

type point struct {
	pos  math.Vec3
	dead bool
}

func (p *point) SetWorldPosition(v math.Vec3) { p.pos = v }
func (p *point) Alive() bool                  { return !p.dead }

func movingObject(t *testing.T) *orbit.Object {
	t.Helper()
	o, err := orbit.NewObject(&point{}, orbit.Params{
		TargetRadius: 4,
		TargetHeight: 1,
		SpiralSpeed:  1,
		OrbitSpeed:   30,
	})
	require.NoError(t, err)
	o.Step(1)
	return o
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, h.Clients())
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(v))
}

func TestLatestStatusOnConnect(t *testing.T) {
	h := NewHub(0)
	h.SetStatus("Loading GLB\nmodel...")
	conn := dial(t, h)

	var msg StatusMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, StatusMessage{Type: "status", Text: "Loading GLB\nmodel..."}, msg)
}

func TestPublishFrame(t *testing.T) {
	h := NewHub(0)
	conn := dial(t, h)

	waiting, err := orbit.NewObject(&point{}, orbit.Params{TargetRadius: 3, WaitTime: 10})
	require.NoError(t, err)
	moving := movingObject(t)

	require.True(t, h.PublishFrame([]*orbit.Object{waiting, moving}))

	var frame FrameMessage
	readJSON(t, conn, &frame)
	assert.Equal(t, "frame", frame.Type)
	require.Len(t, frame.Objects, 1, "unpositioned objects are skipped")
	pos, _ := moving.Position()
	assert.Equal(t, ObjectFrame{ID: moving.ID(), State: "spiraling", X: pos.X, Y: pos.Y, Z: pos.Z}, frame.Objects[0])
}

func TestPublishFrameThrottled(t *testing.T) {
	h := NewHub(time.Hour)
	assert.True(t, h.PublishFrame(nil))
	assert.False(t, h.PublishFrame(nil))
}

func TestFrameSkipsDead(t *testing.T) {
	target := &point{}
	o, err := orbit.NewObject(target, orbit.Params{TargetRadius: 3, SpiralSpeed: 1})
	require.NoError(t, err)
	o.Step(1)
	assert.Len(t, Frame([]*orbit.Object{o}).Objects, 1)

	target.dead = true
	assert.Empty(t, Frame([]*orbit.Object{o}).Objects)
}

func TestDisconnectRemovesClient(t *testing.T) {
	h := NewHub(0)
	conn := dial(t, h)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Zero(t, h.Clients())
}

func TestServeClosesClientsOnShutdown(t *testing.T) {
	h := NewHub(0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "client was left open")
	}
	assert.Zero(t, h.Clients())
}

func TestMessagesAreJSON(t *testing.T) {
	data, err := json.Marshal(Frame(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"frame","objects":[]}`, string(data))
}
