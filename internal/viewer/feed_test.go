package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/internal/telemetry"
)

func TestFeedReceivesStatus(t *testing.T) {
	hub := telemetry.NewHub(time.Millisecond)
	hub.SetStatus("Server Not Connected!")
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)

	out := make(chan []byte, 4)
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx, out) }()

	var v View
	select {
	case msg := <-out:
		require.NoError(t, v.Apply(msg))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
	assert.Equal(t, "Server Not Connected!", v.Status)

	cancel()
	assert.NoError(t, <-done)
}

func TestDialFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}

func TestFeedReleasesDroppedConnections(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// One long-lived context across reconnects, as orbitview uses it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		feed, err := Dial(ctx, url)
		require.NoError(t, err)
		out := make(chan []byte, 1)
		assert.Error(t, feed.Run(ctx, out))
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+3
	}, 2*time.Second, 10*time.Millisecond, "goroutines before=%d now=%d", before, runtime.NumGoroutine())
}
