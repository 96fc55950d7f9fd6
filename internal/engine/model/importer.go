// Package model imports binary glTF (.glb) files into scene graph nodes.
package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// RootName is the name given to the node that wraps an imported model.
const RootName = "SpawnedModel"

var (
	// ErrUnsupportedFormat is returned when the payload is not a GLB container.
	ErrUnsupportedFormat = errors.New("model: unsupported format")
	// ErrMalformed is returned when the GLB parses but its node graph is invalid.
	ErrMalformed = errors.New("model: malformed document")
)

// glbType is registered with filetype so Match recognises the "glTF" magic.
var glbType = filetype.NewType("glb", "model/gltf-binary")

func init() {
	filetype.AddMatcher(glbType, func(buf []byte) bool {
		return len(buf) >= 12 && bytes.Equal(buf[:4], []byte("glTF"))
	})
}

// IsGLB reports whether buf starts with a binary glTF header.
func IsGLB(buf []byte) bool {
	kind, err := filetype.Match(buf)
	if err != nil {
		return false
	}
	return kind == glbType
}

// Kind returns the sniffed type of buf, for error messages.
func Kind(buf []byte) types.Type {
	kind, _ := filetype.Match(buf)
	return kind
}

// Importer turns a model file into a detached scene node.
type Importer interface {
	Import(ctx context.Context, path string) (*scene.Node, error)
}

// GLTFImporter imports GLB files with qmuntal/gltf.
type GLTFImporter struct {
	log *zap.Logger
}

// NewGLTFImporter creates the default importer.
func NewGLTFImporter() *GLTFImporter {
	return &GLTFImporter{log: logger.Named("model")}
}

type importResult struct {
	node *scene.Node
	err  error
}

// Import reads and converts path. The returned node is named RootName and
// is not attached to any graph. Parsing runs on its own goroutine so that a
// context deadline abandons it.
func (im *GLTFImporter) Import(ctx context.Context, path string) (*scene.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if !IsGLB(data) {
		return nil, fmt.Errorf("%w: %s sniffed as %q", ErrUnsupportedFormat, filepath.Base(path), Kind(data).Extension)
	}

	done := make(chan importResult, 1)
	go func() {
		node, err := decode(data)
		done <- importResult{node: node, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		im.log.Debug("imported model",
			zap.String("path", path),
			zap.Int("renderers", len(res.node.Renderers())))
		return res.node, nil
	}
}

func decode(data []byte) (*scene.Node, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	b := builder{doc: &doc, materials: make(map[int]*scene.Material), visiting: make(map[int]bool)}
	return b.build()
}

type builder struct {
	doc       *gltf.Document
	materials map[int]*scene.Material
	visiting  map[int]bool
}

func (b *builder) build() (*scene.Node, error) {
	root := scene.NewNode(RootName)
	if len(b.doc.Scenes) == 0 {
		// No scene: every parentless node is a root.
		for _, idx := range b.parentless() {
			if err := b.attach(root, idx); err != nil {
				return nil, err
			}
		}
		return root, nil
	}

	sceneIdx := 0
	if b.doc.Scene != nil {
		sceneIdx = *b.doc.Scene
	}
	if sceneIdx < 0 || sceneIdx >= len(b.doc.Scenes) {
		return nil, fmt.Errorf("%w: scene %d out of range", ErrMalformed, sceneIdx)
	}
	for _, idx := range b.doc.Scenes[sceneIdx].Nodes {
		if err := b.attach(root, idx); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (b *builder) parentless() []int {
	hasParent := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var out []int
	for i, p := range hasParent {
		if !p {
			out = append(out, i)
		}
	}
	return out
}

func (b *builder) attach(parent *scene.Node, idx int) error {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("%w: node %d out of range", ErrMalformed, idx)
	}
	if b.visiting[idx] {
		return fmt.Errorf("%w: node %d is its own ancestor", ErrMalformed, idx)
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node%d", idx)
	}
	node := scene.NewNode(name)
	node.Local = localTransform(src)
	parent.AddChild(node)

	if src.Mesh != nil {
		if err := b.attachMesh(node, *src.Mesh); err != nil {
			return err
		}
	}
	for _, c := range src.Children {
		if err := b.attach(node, c); err != nil {
			return err
		}
	}
	return nil
}

// attachMesh gives node one renderer per primitive. A single primitive
// renders on node itself; more than one get a child node each.
func (b *builder) attachMesh(node *scene.Node, meshIdx int) error {
	if meshIdx < 0 || meshIdx >= len(b.doc.Meshes) {
		return fmt.Errorf("%w: mesh %d out of range", ErrMalformed, meshIdx)
	}
	prims := b.doc.Meshes[meshIdx].Primitives
	if len(prims) == 1 {
		r, err := b.renderer(prims[0])
		if err != nil {
			return err
		}
		node.Renderer = r
		return nil
	}
	for i, p := range prims {
		r, err := b.renderer(p)
		if err != nil {
			return err
		}
		child := scene.NewNode(fmt.Sprintf("%s_primitive%d", node.Name, i))
		child.Renderer = r
		node.AddChild(child)
	}
	return nil
}

func (b *builder) renderer(p *gltf.Primitive) (*scene.Renderer, error) {
	r := &scene.Renderer{Bounds: math.EmptyBox3()}
	if p.Material != nil {
		m, err := b.material(*p.Material)
		if err != nil {
			return nil, err
		}
		r.Material = m
	}
	if idx, ok := p.Attributes["POSITION"]; ok {
		bounds, err := b.positionBounds(idx)
		if err != nil {
			return nil, err
		}
		r.Bounds = bounds
	}
	return r, nil
}

func (b *builder) material(idx int) (*scene.Material, error) {
	if m, ok := b.materials[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(b.doc.Materials) {
		return nil, fmt.Errorf("%w: material %d out of range", ErrMalformed, idx)
	}
	src := b.doc.Materials[idx]
	m := &scene.Material{Name: src.Name, Color: [4]float32{1, 1, 1, 1}}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.Color = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
	}
	b.materials[idx] = m
	return m, nil
}

// positionBounds prefers the accessor's declared min/max, which glTF
// requires for POSITION, and reads the vertices only when they are absent.
func (b *builder) positionBounds(idx int) (math.Box3, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return math.Box3{}, fmt.Errorf("%w: accessor %d out of range", ErrMalformed, idx)
	}
	acr := b.doc.Accessors[idx]
	if len(acr.Min) == 3 && len(acr.Max) == 3 {
		return math.Box3{
			Min: math.Vec3{X: float32(acr.Min[0]), Y: float32(acr.Min[1]), Z: float32(acr.Min[2])},
			Max: math.Vec3{X: float32(acr.Max[0]), Y: float32(acr.Max[1]), Z: float32(acr.Max[2])},
		}, nil
	}
	points, err := readPositions(b.doc, acr)
	if err != nil {
		return math.Box3{}, fmt.Errorf("%w: positions: %v", ErrMalformed, err)
	}
	box := math.EmptyBox3()
	for _, p := range points {
		box = box.ExpandByPoint(math.Vec3{X: p[0], Y: p[1], Z: p[2]})
	}
	return box, nil
}
