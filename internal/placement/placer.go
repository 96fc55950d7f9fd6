// Package placement normalizes an imported model and places it into the
// scene inside an interaction container.
package placement

import (
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// DefaultChildScale shrinks each direct child of an imported model.
const DefaultChildScale = 0.2

// ContainerName is the name given to every interaction container.
const ContainerName = "Interaction"

// Options configures a Placer.
type Options struct {
	// Anchor is the spawn pose applied to the imported root before
	// normalization. The container starts at Anchor.Position.
	Anchor scene.Transform
	// ChildScale multiplies the local scale of the root's direct children.
	ChildScale float32
	// Fallback replaces missing or placeholder materials.
	Fallback *scene.Material
}

// DefaultOptions returns an identity anchor, DefaultChildScale and a
// neutral grey fallback material.
func DefaultOptions() Options {
	return Options{
		Anchor:     scene.IdentityTransform(),
		ChildScale: DefaultChildScale,
		Fallback:   &scene.Material{Name: "Fallback", Color: [4]float32{0.8, 0.8, 0.8, 1}},
	}
}

// Placed describes one placement.
type Placed struct {
	Container *scene.Node
	Model     *scene.Node
	// Recentered is false when the model had no renderers to measure.
	Recentered bool
	// MaterialsReplaced counts renderers that received the fallback.
	MaterialsReplaced int
}

// Placer owns the "assigned" slot: the most recent container that has not
// yet started moving. Placing a new model destroys a still-assigned one.
// It is not safe for concurrent use.
type Placer struct {
	graph    *scene.Graph
	factory  scene.ContainerFactory
	opts     Options
	assigned *scene.Node
	log      *zap.Logger
}

// NewPlacer creates a placer that adds containers to graph.
func NewPlacer(graph *scene.Graph, factory scene.ContainerFactory, opts Options) *Placer {
	if factory == nil {
		factory = scene.GrabbableFactory{}
	}
	if opts.ChildScale == 0 {
		opts.ChildScale = DefaultChildScale
	}
	if opts.Anchor.Scale == (math.Vec3{}) {
		opts.Anchor = scene.IdentityTransform()
	}
	return &Placer{graph: graph, factory: factory, opts: opts, log: logger.Named("placement")}
}

// Place normalizes root and puts it into a new container, which becomes
// the assigned object.
func (p *Placer) Place(root *scene.Node) *Placed {
	root.Local = p.opts.Anchor
	for _, child := range root.Children() {
		child.Local.Scale = child.Local.Scale.Scale(p.opts.ChildScale)
	}
	replaced := ApplyFallbackMaterial(root, p.opts.Fallback)

	if p.assigned.Alive() {
		p.log.Info("destroying unplaced model", zap.String("name", p.assigned.Name))
		p.assigned.Destroy()
	}
	p.assigned = nil

	container := p.factory.NewContainer(ContainerName)
	container.Local.Position = p.opts.Anchor.Position
	p.graph.Add(container)

	root.SetParent(container)
	root.ResetLocal()
	recentered := Recenter(root)

	p.assigned = container
	p.log.Debug("placed model",
		zap.Int("renderers", len(root.Renderers())),
		zap.Int("fallback_materials", replaced),
		zap.Bool("recentered", recentered))

	return &Placed{
		Container:         container,
		Model:             root,
		Recentered:        recentered,
		MaterialsReplaced: replaced,
	}
}

// Assigned returns the container waiting to start moving, or nil.
func (p *Placer) Assigned() *scene.Node {
	if !p.assigned.Alive() {
		return nil
	}
	return p.assigned
}

// Release empties the assigned slot without destroying anything. The
// spawner calls it once the assigned object starts moving.
func (p *Placer) Release(container *scene.Node) {
	if p.assigned == container {
		p.assigned = nil
	}
}

// ApplyFallbackMaterial gives fallback to every renderer below root whose
// material is missing or the importer's placeholder. Authored materials
// are never touched. It returns the number of renderers changed.
func ApplyFallbackMaterial(root *scene.Node, fallback *scene.Material) int {
	if fallback == nil {
		return 0
	}
	n := 0
	for _, r := range root.Renderers() {
		if r.Renderer.Material.IsPlaceholder() {
			r.Renderer.Material = fallback
			n++
		}
	}
	return n
}

// Recenter shifts model inside its parent so the centre of its world
// bounds lands where the model's origin was. It reports false, leaving model
// untouched, when nothing below model has bounds.
func Recenter(model *scene.Node) bool {
	bounds, ok := model.WorldBounds()
	if !ok {
		return false
	}
	offset := bounds.Center().Sub(model.WorldPosition())
	if parent := model.Parent(); parent != nil {
		offset = parent.WorldMatrix().Inverse().TransformDirection(offset)
	}
	model.Local.Position = model.Local.Position.Sub(offset)
	return true
}
