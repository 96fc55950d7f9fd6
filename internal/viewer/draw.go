package viewer

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/Faultbox/orbitforge/internal/telemetry"
	"github.com/Faultbox/orbitforge/pkg/math"
)

var (
	styleText    = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleAnchor  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleByState = map[string]tcell.Style{
		"waiting":   tcell.StyleDefault.Foreground(tcell.ColorWhite),
		"spiraling": tcell.StyleDefault.Foreground(tcell.ColorGreen),
		"orbiting":  tcell.StyleDefault.Foreground(tcell.ColorAqua),
	}
)

// Options controls what Draw shows.
type Options struct {
	Extent    float32
	Center    math.Vec2 // world X, Z at the middle of the map
	Connected bool
}

// Draw paints the map, header and status into screen. The caller calls Show.
func Draw(screen tcell.Screen, v *View, opts Options) {
	screen.Clear()
	width, height := screen.Size()
	if width <= 0 || height <= 2 {
		return
	}

	conn := "disconnected"
	if opts.Connected {
		conn = "connected"
	}
	drawText(screen, 0, 0, styleText,
		fmt.Sprintf("orbitview  %s  objects=%d frames=%d  (q to quit, +/- zoom)", conn, len(v.Objects), v.Frames))

	// Status at the bottom, map in between.
	status := v.StatusLines()
	mapTop := 1
	mapHeight := height - 1 - len(status)
	if mapHeight < 1 {
		status = nil
		mapHeight = height - 1
	}
	for i, line := range status {
		drawText(screen, 0, mapTop+mapHeight+i, styleDim, line)
	}

	cells := Project([]telemetry.ObjectFrame{{X: opts.Center.X, Z: opts.Center.Y}}, opts.Center, opts.Extent, width, mapHeight)
	for _, c := range cells {
		screen.SetContent(c.X, mapTop+c.Y, '+', nil, styleAnchor)
	}
	for _, c := range Project(v.Objects, opts.Center, opts.Extent, width, mapHeight) {
		style, ok := styleByState[c.State]
		if !ok {
			style = styleText
		}
		screen.SetContent(c.X, mapTop+c.Y, c.Glyph, nil, style)
	}
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	width, _ := screen.Size()
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
