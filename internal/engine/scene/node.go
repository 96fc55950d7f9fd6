// Package scene is a minimal scene graph: named nodes with local TRS
// transforms, optional mesh renderers with materials, and explicit
// traversal helpers used by placement instead of engine-wide lookups.
package scene

import (
	"github.com/Faultbox/orbitforge/pkg/math"
)

// Transform is a local translation, rotation and scale.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// IdentityTransform returns position zero, rotation identity, scale one.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.One3}
}

// Matrix returns the local-to-parent matrix.
func (t Transform) Matrix() math.Mat4 {
	return math.FromTRS(t.Position, t.Rotation, t.Scale)
}

// Node is one element of the scene graph.
type Node struct {
	Name  string
	Local Transform

	// Renderer is set on nodes that draw a mesh.
	Renderer *Renderer

	// Interactive marks nodes the host lets the user grab.
	Interactive bool

	parent    *Node
	children  []*Node
	destroyed bool
}

// NewNode creates a detached node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Local: IdentityTransform()}
}

// Parent returns the parent node, or nil for roots.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the direct children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// AddChild attaches child under n, keeping the child's local transform.
func (n *Node) AddChild(child *Node) {
	child.SetParent(n)
}

// SetParent moves n under parent, keeping its local transform.
// A nil parent detaches n.
func (n *Node) SetParent(parent *Node) {
	if n.parent == parent {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// ResetLocal sets the local transform to identity.
func (n *Node) ResetLocal() {
	n.Local = IdentityTransform()
}

// WorldMatrix returns the local-to-world matrix.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.Local.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Local.Matrix().Mul(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldMatrix().Translation()
}

// SetWorldPosition moves the node origin to p in world space.
func (n *Node) SetWorldPosition(p math.Vec3) {
	if n.parent == nil {
		n.Local.Position = p
		return
	}
	n.Local.Position = n.parent.WorldMatrix().Inverse().TransformVec3(p)
}

// Alive reports whether the node has not been destroyed.
func (n *Node) Alive() bool {
	return n != nil && !n.destroyed
}

// Destroy detaches n and marks it and every descendant destroyed.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	n.Walk(func(c *Node) bool {
		c.destroyed = true
		return true
	})
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Renderers returns n and every descendant that has a Renderer.
func (n *Node) Renderers() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Renderer != nil {
			out = append(out, c)
		}
		return true
	})
	return out
}

// WorldBounds returns the union of all renderer bounds below n in world
// space. ok is false when nothing below n has visible bounds.
func (n *Node) WorldBounds() (bounds math.Box3, ok bool) {
	bounds = math.EmptyBox3()
	for _, r := range n.Renderers() {
		if r.Renderer.Bounds.IsEmpty() {
			continue
		}
		bounds = bounds.Union(r.Renderer.Bounds.Transform(r.WorldMatrix()))
	}
	return bounds, !bounds.IsEmpty()
}

// Find returns the first node named name below n, including n.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}
