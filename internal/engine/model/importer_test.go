package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/pkg/math"
)

// writeTwoPartModel saves a GLB with one translated node whose mesh has an
// authored-material primitive and a material-less primitive.
func writeTwoPartModel(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	a := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	b := modeler.WritePosition(doc, [][3]float32{{-2, 0, 0}, {0, 0, 3}, {0, -1, 0}})
	doc.Materials = append(doc.Materials, &gltf.Material{Name: "Bronze"})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Body",
		Primitives: []*gltf.Primitive{
			{Attributes: map[string]int{"POSITION": a}, Material: gltf.Index(0)},
			{Attributes: map[string]int{"POSITION": b}},
		},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        "Body",
		Mesh:        gltf.Index(0),
		Translation: [3]float64{1, 2, 3},
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "two_part_model.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestImportBuildsGraph(t *testing.T) {
	path := writeTwoPartModel(t)

	root, err := NewGLTFImporter().Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, RootName, root.Name)
	assert.Nil(t, root.Parent())

	body := root.Find("Body")
	require.NotNil(t, body)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, body.Local.Position)
	assert.Nil(t, body.Renderer, "multi-primitive meshes render on child nodes")

	renderers := root.Renderers()
	require.Len(t, renderers, 2)
	require.NotNil(t, renderers[0].Renderer.Material)
	assert.Equal(t, "Bronze", renderers[0].Renderer.Material.Name)
	assert.Nil(t, renderers[1].Renderer.Material)

	assert.Equal(t, math.Vec3{X: 1, Y: 1}, renderers[0].Renderer.Bounds.Max)
	assert.Equal(t, math.Vec3{X: -2, Y: -1}, renderers[1].Renderer.Bounds.Min)

	bounds, ok := root.WorldBounds()
	require.True(t, ok)
	assert.Equal(t, math.Vec3{X: -1, Y: 1, Z: 3}, bounds.Min)
	assert.Equal(t, math.Vec3{X: 2, Y: 3, Z: 6}, bounds.Max)
}

func TestImportRejectsNonGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_model.glb")
	require.NoError(t, os.WriteFile(path, []byte("<html>server error</html>"), 0o644))

	_, err := NewGLTFImporter().Import(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportMissingFile(t *testing.T) {
	_, err := NewGLTFImporter().Import(context.Background(), filepath.Join(t.TempDir(), "missing.glb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportCanceled(t *testing.T) {
	path := writeTwoPartModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGLTFImporter().Import(ctx, path)
	if err != nil {
		// Decoding may win the race against the canceled context.
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestIsGLB(t *testing.T) {
	header := []byte{'g', 'l', 'T', 'F', 2, 0, 0, 0, 12, 0, 0, 0}
	assert.True(t, IsGLB(header))
	assert.False(t, IsGLB([]byte("glTF")))
	assert.False(t, IsGLB([]byte(`{"asset":{"version":"2.0"}}`)))
}

func TestLocalTransformFromMatrix(t *testing.T) {
	n := &gltf.Node{Matrix: [16]float64{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		5, 6, 7, 1,
	}}
	tr := localTransform(n)
	assert.Equal(t, math.Vec3{X: 5, Y: 6, Z: 7}, tr.Position)
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, tr.Scale)
	assert.True(t, tr.Rotation.IsIdentity())
}

func TestLocalTransformDefaults(t *testing.T) {
	tr := localTransform(&gltf.Node{})
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, tr.Scale)
	assert.True(t, tr.Rotation.IsIdentity())
}
