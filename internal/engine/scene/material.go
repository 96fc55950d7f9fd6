package scene

import "github.com/Faultbox/orbitforge/pkg/math"

// DefaultMaterialName is the name importers give to the placeholder
// material. Placement treats it the same as no material at all.
const DefaultMaterialName = "Default-Material"

// Material holds the surface properties a renderer draws with.
type Material struct {
	Name  string
	Color [4]float32 // RGBA, 0-1
}

// IsPlaceholder reports whether m is missing or still the generic default.
func (m *Material) IsPlaceholder() bool {
	return m == nil || m.Name == DefaultMaterialName
}

// Renderer draws one mesh (or sub-mesh) of a node.
type Renderer struct {
	Material *Material
	// Bounds is the mesh bounding box in the node's local space.
	Bounds math.Box3
}

// ContainerFactory creates the interaction wrapper a placed model is
// reparented under.
type ContainerFactory interface {
	NewContainer(name string) *Node
}

// GrabbableFactory creates plain nodes marked Interactive.
type GrabbableFactory struct{}

// NewContainer returns a detached interactive node.
func (GrabbableFactory) NewContainer(name string) *Node {
	n := NewNode(name)
	n.Interactive = true
	return n
}
