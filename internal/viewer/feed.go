package viewer

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
)

// Feed reads raw messages from a telemetry websocket.
type Feed struct {
	conn *websocket.Conn
	log  *zap.Logger
}

// Dial connects to a telemetry endpoint such as ws://127.0.0.1:8765/ws.
func Dial(ctx context.Context, url string) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Feed{conn: conn, log: logger.Named("viewer")}, nil
}

// Run forwards each message to out until the connection drops or ctx is
// done. It closes out on return.
func (f *Feed) Run(ctx context.Context, out chan<- []byte) error {
	defer close(out)
	// Unblocks ReadMessage on cancel; released when the connection drops.
	stop := context.AfterFunc(ctx, func() { f.conn.Close() })
	defer stop()
	for {
		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.log.Debug("feed closed", zap.Error(err))
			return err
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close closes the connection.
func (f *Feed) Close() error {
	return f.conn.Close()
}
