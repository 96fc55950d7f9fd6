// Command orbitview shows a running spawner's telemetry feed as a
// top-down map in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/viewer"
)

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8765/ws", "Telemetry websocket URL")
	extent := flag.Float64("extent", 10, "World half-size shown, in units")
	logFile := flag.String("log", "", "Log file (the terminal is taken by the map)")
	flag.Parse()

	// Console output would draw over the map.
	if *logFile != "" {
		if err := logger.InitWithFileConfig("info", logger.DefaultFileConfig(*logFile), false); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	if err := run(*addr, float32(*extent)); err != nil {
		fmt.Fprintf(os.Stderr, "orbitview: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, extent float32) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	view := &viewer.View{}
	opts := viewer.Options{Extent: extent}
	var msgs chan []byte
	redial := time.NewTimer(0)
	defer redial.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
					return nil
				case ev.Rune() == '+':
					opts.Extent = max(opts.Extent/1.25, 1)
				case ev.Rune() == '-':
					opts.Extent = min(opts.Extent*1.25, 1000)
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-redial.C:
			feed, err := viewer.Dial(ctx, addr)
			if err != nil {
				logger.Debug("dial failed", zap.String("addr", addr), zap.Error(err))
				redial.Reset(2 * time.Second)
				continue
			}
			opts.Connected = true
			msgs = make(chan []byte, 16)
			go feed.Run(ctx, msgs)

		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				opts.Connected = false
				redial.Reset(2 * time.Second)
				continue
			}
			if err := view.Apply(msg); err != nil {
				logger.Warn("bad message", zap.Error(err))
			}

		case <-tick.C:
			viewer.Draw(screen, view, opts)
			screen.Show()
		}
	}
}
