package model

import (
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/pkg/math"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// localTransform converts a glTF node's TRS, or its matrix when one is set,
// into a scene transform. glTF matrices are column-major like math.Mat4.
func localTransform(n *gltf.Node) scene.Transform {
	if m := n.MatrixOrDefault(); m != identityMatrix {
		var mm math.Mat4
		for i, v := range m {
			mm[i] = float32(v)
		}
		t, r, s := mm.Decompose()
		return scene.Transform{Position: t, Rotation: r, Scale: s}
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // x, y, z, w
	s := n.ScaleOrDefault()
	return scene.Transform{
		Position: math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		Rotation: math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		Scale:    math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
	}
}

func readPositions(doc *gltf.Document, acr *gltf.Accessor) ([][3]float32, error) {
	return modeler.ReadPosition(doc, acr, nil)
}
