package viewer

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/internal/telemetry"
	"github.com/Faultbox/orbitforge/pkg/math"
)

func TestApply(t *testing.T) {
	var v View
	require.NoError(t, v.Apply([]byte(`{"type":"status","text":"Model Loaded\nSuccessfully!"}`)))
	assert.Equal(t, []string{"Model Loaded", "Successfully!"}, v.StatusLines())

	require.NoError(t, v.Apply([]byte(`{"type":"frame","objects":[{"id":1,"state":"orbiting","x":1,"y":2,"z":3}]}`)))
	require.Len(t, v.Objects, 1)
	assert.Equal(t, telemetry.ObjectFrame{ID: 1, State: "orbiting", X: 1, Y: 2, Z: 3}, v.Objects[0])
	assert.Equal(t, 1, v.Frames)

	require.NoError(t, v.Apply([]byte(`{"type":"hello"}`)))
	assert.Error(t, v.Apply([]byte(`not json`)))
	assert.Equal(t, 1, v.Frames)
}

func TestProject(t *testing.T) {
	objs := []telemetry.ObjectFrame{
		{ID: 1, State: "orbiting", X: 10},
		{ID: 2, State: "waiting", Z: 10},
		{ID: 3, State: "spiraling", X: -10},
		{ID: 4, State: "orbiting", X: 11},
	}
	cells := Project(objs, math.Vec2{}, 10, 21, 11)
	require.Len(t, cells, 3)
	assert.Equal(t, Cell{X: 20, Y: 5, Glyph: '@', State: "orbiting"}, cells[0])
	assert.Equal(t, Cell{X: 10, Y: 10, Glyph: 'o', State: "waiting"}, cells[1])
	assert.Equal(t, Cell{X: 0, Y: 5, Glyph: '*', State: "spiraling"}, cells[2])

	assert.Nil(t, Project(objs, math.Vec2{}, 0, 21, 11))
	assert.Nil(t, Project(objs, math.Vec2{}, 10, 0, 11))
}

func TestProjectOffCenter(t *testing.T) {
	objs := []telemetry.ObjectFrame{{State: "orbiting", X: 5, Y: 9, Z: -3}}
	cells := Project(objs, math.Vec2{X: 5, Y: -3}, 10, 21, 11)
	require.Len(t, cells, 1)
	assert.Equal(t, 10, cells[0].X)
	assert.Equal(t, 5, cells[0].Y)
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, '?', Glyph("unknown"))
}

func TestDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(21, 14)

	v := &View{
		Status:  "Processing: kite",
		Objects: []telemetry.ObjectFrame{{State: "orbiting", X: 10}},
	}
	Draw(screen, v, Options{Extent: 10, Connected: true})

	// Map rows 1..12, status on row 13.
	r, _, _, _ := screen.GetContent(0, 13)
	assert.Equal(t, 'P', r)
	r, _, _, _ = screen.GetContent(10, 1+6)
	assert.Equal(t, '+', r, "anchor in the middle of the map")
	r, _, _, _ = screen.GetContent(20, 1+6)
	assert.Equal(t, '@', r)
}
