// Package viewer renders the telemetry feed as a top-down terminal map.
package viewer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/orbitforge/internal/telemetry"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// View is the latest state received from the feed.
type View struct {
	Status  string
	Objects []telemetry.ObjectFrame
	Frames  int
}

// Apply decodes one feed message into v. Unknown types are ignored.
func (v *View) Apply(raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}
	switch head.Type {
	case "status":
		var m telemetry.StatusMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decoding status: %w", err)
		}
		v.Status = m.Text
	case "frame":
		var m telemetry.FrameMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decoding frame: %w", err)
		}
		v.Objects = m.Objects
		v.Frames++
	}
	return nil
}

// StatusLines splits the status text for display.
func (v *View) StatusLines() []string {
	if v.Status == "" {
		return nil
	}
	return strings.Split(v.Status, "\n")
}

// Cell is one glyph on the map.
type Cell struct {
	X, Y  int
	Glyph rune
	State string
}

// Glyph returns the map symbol for an object state.
func Glyph(state string) rune {
	switch state {
	case "waiting":
		return 'o'
	case "spiraling":
		return '*'
	case "orbiting":
		return '@'
	default:
		return '?'
	}
}

// Project maps objects onto a width x height grid looking down the Y axis.
// extent is the world half-size shown; the anchor sits in the middle.
// Terminal cells are about twice as tall as wide, so X is stretched.
// Objects outside the grid are dropped.
func Project(objs []telemetry.ObjectFrame, center math.Vec2, extent float32, width, height int) []Cell {
	if width <= 0 || height <= 0 || extent <= 0 {
		return nil
	}
	cx, cy := float32(width-1)/2, float32(height-1)/2
	sx := cx / extent
	sy := cy / extent
	if sx > 2*sy {
		sx = 2 * sy
	} else {
		sy = sx / 2
	}

	cells := make([]Cell, 0, len(objs))
	for _, o := range objs {
		d := math.Vec3{X: o.X, Y: o.Y, Z: o.Z}.XZ().Sub(center)
		x := int(math32.Round(cx + d.X*sx))
		y := int(math32.Round(cy + d.Y*sy))
		if x < 0 || y < 0 || x >= width || y >= height {
			continue
		}
		cells = append(cells, Cell{X: x, Y: y, Glyph: Glyph(o.State), State: o.State})
	}
	return cells
}
