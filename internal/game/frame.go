package game

import (
	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/orbit"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// sceneBounds returns the box the Home key frames: the anchor plus every
// live container, using world bounds where a model is attached and the
// container position otherwise.
func sceneBounds(anchor math.Vec3, objs []*orbit.Object) math.Box3 {
	box := math.EmptyBox3().ExpandByPoint(anchor)
	for _, o := range objs {
		if !o.Alive() {
			continue
		}
		node, ok := o.Target().(*scene.Node)
		if !ok {
			continue
		}
		if bounds, ok := node.WorldBounds(); ok {
			box = box.Union(bounds)
		} else {
			box = box.ExpandByPoint(node.WorldPosition())
		}
	}
	return box
}
