package renderer

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/orbit"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// floatsPerVertex is position (xyz) followed by color (rgba).
const floatsPerVertex = 7

// RingSegments is the number of line segments per orbit ring.
const RingSegments = 48

var (
	ColorAnchor    = [4]float32{1, 0.8, 0.2, 1}
	ColorRing      = [4]float32{0.3, 0.5, 0.8, 0.6}
	ColorWaiting   = [4]float32{0.9, 0.9, 0.9, 1}
	ColorMoving    = [4]float32{0.4, 1, 0.6, 1}
	ColorNoBounds  = [4]float32{1, 0.3, 0.3, 1}
	ColorGrid      = [4]float32{0.25, 0.25, 0.3, 1}
	defaultBoxTint = [4]float32{0.8, 0.8, 0.8, 1}
)

// Batch collects interleaved line and point vertices for one frame.
type Batch struct {
	Lines  []float32
	Points []float32
}

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() {
	b.Lines = b.Lines[:0]
	b.Points = b.Points[:0]
}

// LineVertices returns the number of line vertices (two per segment).
func (b *Batch) LineVertices() int { return len(b.Lines) / floatsPerVertex }

// PointVertices returns the number of points.
func (b *Batch) PointVertices() int { return len(b.Points) / floatsPerVertex }

func appendVertex(dst []float32, p math.Vec3, c [4]float32) []float32 {
	return append(dst, p.X, p.Y, p.Z, c[0], c[1], c[2], c[3])
}

// Line adds a segment from a to c.
func (b *Batch) Line(a, c math.Vec3, color [4]float32) {
	b.Lines = appendVertex(b.Lines, a, color)
	b.Lines = appendVertex(b.Lines, c, color)
}

// Point adds a single point.
func (b *Batch) Point(p math.Vec3, color [4]float32) {
	b.Points = appendVertex(b.Points, p, color)
}

// Box adds the 12 edges of box.
func (b *Batch) Box(box math.Box3, color [4]float32) {
	if box.IsEmpty() {
		return
	}
	lo, hi := box.Min, box.Max
	corner := func(i int) math.Vec3 {
		v := lo
		if i&1 != 0 {
			v.X = hi.X
		}
		if i&2 != 0 {
			v.Y = hi.Y
		}
		if i&4 != 0 {
			v.Z = hi.Z
		}
		return v
	}
	// Corners differing in exactly one bit share an edge.
	for i := 0; i < 8; i++ {
		for _, bit := range [3]int{1, 2, 4} {
			if i&bit == 0 {
				b.Line(corner(i), corner(i|bit), color)
			}
		}
	}
}

// Ring adds a horizontal circle around center.
func (b *Batch) Ring(center math.Vec3, radius float32, segments int, color [4]float32) {
	if segments < 3 || radius <= 0 {
		return
	}
	at := func(i int) math.Vec3 {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		return math.Vec3{X: center.X + radius*math32.Cos(a), Y: center.Y, Z: center.Z + radius*math32.Sin(a)}
	}
	prev := at(0)
	for i := 1; i <= segments; i++ {
		next := at(i)
		b.Line(prev, next, color)
		prev = next
	}
}

// Marker adds a three-axis cross of half-size size at p.
func (b *Batch) Marker(p math.Vec3, size float32, color [4]float32) {
	b.Line(p.Sub(math.Vec3{X: size}), p.Add(math.Vec3{X: size}), color)
	b.Line(p.Sub(math.Vec3{Y: size}), p.Add(math.Vec3{Y: size}), color)
	b.Line(p.Sub(math.Vec3{Z: size}), p.Add(math.Vec3{Z: size}), color)
}

// Grid adds a square ground grid of the given half extent at height y.
func (b *Batch) Grid(y, extent, step float32, color [4]float32) {
	if step <= 0 || extent <= 0 {
		return
	}
	for v := -extent; v <= extent+step/2; v += step {
		b.Line(math.Vec3{X: v, Y: y, Z: -extent}, math.Vec3{X: v, Y: y, Z: extent}, color)
		b.Line(math.Vec3{X: -extent, Y: y, Z: v}, math.Vec3{X: extent, Y: y, Z: v}, color)
	}
}

// BuildScene fills b with the anchor marker, one ring per object at its
// target orbit, each container's world bounds and a point at each
// container position.
func BuildScene(b *Batch, anchor math.Vec3, objs []*orbit.Object) {
	b.Reset()
	b.Grid(0, 10, 1, ColorGrid)
	b.Marker(anchor, 0.5, ColorAnchor)

	for _, o := range objs {
		if !o.Alive() {
			continue
		}
		a := o.Anchor()
		b.Ring(math.Vec3{X: a.X, Y: a.Y + o.TargetHeight(), Z: a.Z}, o.TargetRadius(), RingSegments, ColorRing)

		color := ColorMoving
		if o.State() == orbit.StateWaiting {
			color = ColorWaiting
		}
		node, ok := o.Target().(*scene.Node)
		if !ok {
			continue
		}
		b.Point(node.WorldPosition(), color)
		if bounds, ok := node.WorldBounds(); ok {
			b.Box(bounds, tint(node))
		} else {
			b.Marker(node.WorldPosition(), 0.2, ColorNoBounds)
		}
	}
}

// tint picks the first non-placeholder material color under n.
func tint(n *scene.Node) [4]float32 {
	for _, r := range n.Renderers() {
		if m := r.Renderer.Material; m != nil && !m.IsPlaceholder() {
			return m.Color
		}
	}
	return defaultBoxTint
}
