package orbit

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitforge/pkg/math"
)

type fakeTarget struct {
	pos    math.Vec3
	writes int
	dead   bool
}

func (f *fakeTarget) SetWorldPosition(p math.Vec3) {
	f.pos = p
	f.writes++
}

func (f *fakeTarget) Alive() bool { return !f.dead }

func baseParams() Params {
	return Params{
		Anchor:       math.Vec3{},
		TargetRadius: 5,
		TargetHeight: 2,
		SpiralSpeed:  1,
		OrbitSpeed:   30,
		WaitTime:     0,
		PhaseAngle:   0,
	}
}

func TestNewObjectRejectsRadius(t *testing.T) {
	for _, r := range []float32{0, -1, math32.NaN(), math32.Inf(1)} {
		p := baseParams()
		p.TargetRadius = r
		_, err := NewObject(&fakeTarget{}, p)
		assert.ErrorIs(t, err, ErrInvalidOrbitRadius, "radius %v", r)
	}
}

func TestNewObjectRejectsParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative spiral speed", func(p *Params) { p.SpiralSpeed = -1 }},
		{"negative wait", func(p *Params) { p.WaitTime = -0.5 }},
		{"nan orbit speed", func(p *Params) { p.OrbitSpeed = math32.NaN() }},
		{"inf height", func(p *Params) { p.TargetHeight = math32.Inf(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			_, err := NewObject(&fakeTarget{}, p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}

	_, err := NewObject(nil, baseParams())
	assert.ErrorIs(t, err, ErrNilTarget)
}

func TestSingleStepReachesOrbit(t *testing.T) {
	target := &fakeTarget{}
	o, err := NewObject(target, baseParams())
	require.NoError(t, err)

	o.Step(5)

	assert.Equal(t, float32(5), o.Radius())
	assert.Equal(t, StateOrbiting, o.State())
	assert.Equal(t, float32(1), o.HeightBlend())
	assert.Equal(t, float32(2), o.Height())
	assert.Equal(t, float32(2), target.pos.Y)
	assert.Equal(t, 1, target.writes)
}

func TestWaitTimeDelaysMotion(t *testing.T) {
	p := baseParams()
	p.WaitTime = 1
	target := &fakeTarget{}
	o, err := NewObject(target, p)
	require.NoError(t, err)

	o.Step(0.4)
	assert.Equal(t, float32(0), o.Radius())
	assert.Equal(t, StateWaiting, o.State())
	o.Step(0.4)
	assert.Equal(t, float32(0), o.Radius())
	assert.Equal(t, 0, target.writes, "no position update while waiting")

	o.Step(0.4)
	assert.Greater(t, o.Radius(), float32(0))
	assert.InDelta(t, 0.2, o.Radius(), 1e-5, "only the time past the delay moves the object")
	assert.Equal(t, StateSpiraling, o.State())
	assert.Equal(t, float32(0), o.PendingDelay())
}

func TestDelayEndingExactlyDoesNotMove(t *testing.T) {
	p := baseParams()
	p.WaitTime = 0.5
	target := &fakeTarget{}
	o, err := NewObject(target, p)
	require.NoError(t, err)

	o.Step(0.5)
	assert.Equal(t, float32(0), o.Radius())
	assert.Equal(t, StateSpiraling, o.State())
	assert.Equal(t, 0, target.writes)
}

func TestZeroStepIsNoop(t *testing.T) {
	for _, warmup := range []float32{0, 0.3, 2.5, 10} {
		p := baseParams()
		p.WaitTime = 0.2
		target := &fakeTarget{}
		o, err := NewObject(target, p)
		require.NoError(t, err)
		o.Step(warmup)

		before := *o
		beforeTarget := *target
		o.Step(0)
		o.Step(-1)

		assert.Equal(t, before, *o, "state changed after zero step (warmup %v)", warmup)
		assert.Equal(t, beforeTarget, *target, "target written after zero step (warmup %v)", warmup)
	}
}

func TestRadiusMonotonicAndBounded(t *testing.T) {
	o, err := NewObject(&fakeTarget{}, baseParams())
	require.NoError(t, err)

	steps := []float32{0, 0.01, 0.5, 0, 1.3, 0.02, 2, 7, 0.1}
	prevRadius, prevBlend := o.Radius(), o.HeightBlend()
	for _, dt := range steps {
		o.Step(dt)
		assert.GreaterOrEqual(t, o.Radius(), prevRadius)
		assert.LessOrEqual(t, o.Radius(), o.TargetRadius())
		assert.GreaterOrEqual(t, o.HeightBlend(), prevBlend)
		assert.GreaterOrEqual(t, o.HeightBlend(), float32(0))
		assert.LessOrEqual(t, o.HeightBlend(), float32(1))
		prevRadius, prevBlend = o.Radius(), o.HeightBlend()
	}
}

func TestOrbitPinsRadiusAndHeight(t *testing.T) {
	p := baseParams()
	p.Anchor = math.Vec3{X: 10, Y: 1, Z: -4}
	p.TargetHeight = 3
	target := &fakeTarget{}
	o, err := NewObject(target, p)
	require.NoError(t, err)

	o.Step(6)
	require.Equal(t, StateOrbiting, o.State())

	for i := 0; i < 50; i++ {
		o.Step(0.137)
		assert.Equal(t, float32(5), o.Radius())
		assert.Equal(t, float32(3), o.Height())
		assert.Equal(t, float32(3), target.pos.Y)
		d := target.pos.Sub(p.Anchor)
		d.Y = 0
		assert.InDelta(t, 5, d.Length(), 1e-4)
	}
}

func TestOrbitAngularSpeedIsConstant(t *testing.T) {
	o, err := NewObject(&fakeTarget{}, baseParams())
	require.NoError(t, err)
	o.Step(5)

	start := o.Phase()
	o.Step(2)
	assert.InDelta(t, 60, o.Phase()-start, 1e-3)
}

func TestLongRunningOrbitKeepsAdvancing(t *testing.T) {
	p := baseParams()
	p.PhaseAngle = 1 << 24 // days of accumulated orbit
	o, err := NewObject(&fakeTarget{}, p)
	require.NoError(t, err)
	o.Step(5)
	require.Equal(t, StateOrbiting, o.State())

	start := o.Phase()
	var advanced float32
	prev := start
	for i := 0; i < 600; i++ {
		o.Step(1.0 / 60)
		d := o.Phase() - prev
		if d < 0 {
			d += 360
		}
		advanced += d
		prev = o.Phase()
		assert.Less(t, math32.Abs(o.Phase()), float32(360))
	}
	assert.InDelta(t, 300, advanced, 0.05, "10s at 30 deg/s")
}

func TestSpiralAngularRateScalesWithRadius(t *testing.T) {
	o, err := NewObject(&fakeTarget{}, baseParams())
	require.NoError(t, err)

	// After 1s the radius is 1/5 of target, so the angle advanced 30*0.2*1.
	o.Step(1)
	assert.InDelta(t, 6, o.Phase(), 1e-4)
	assert.InDelta(t, 0.4, o.Height(), 1e-5)
}

func TestPositionCounterClockwise(t *testing.T) {
	p := baseParams()
	p.PhaseAngle = 0
	target := &fakeTarget{}
	o, err := NewObject(target, p)
	require.NoError(t, err)

	o.Step(5)
	phase := o.Phase()
	rad := phase * math.DegToRad

	assert.InDelta(t, math32.Cos(rad)*5, target.pos.X, 1e-4)
	assert.InDelta(t, math32.Sin(rad)*5, target.pos.Z, 1e-4)

	// From +X, a quarter turn of positive phase lands on +Z.
	q := baseParams()
	q.PhaseAngle = 90
	q.OrbitSpeed = 0
	t2 := &fakeTarget{}
	o2, err := NewObject(t2, q)
	require.NoError(t, err)
	o2.Step(5)
	assert.InDelta(t, 0, t2.pos.X, 1e-4)
	assert.InDelta(t, 5, t2.pos.Z, 1e-4)
}

func TestDeterministicReplay(t *testing.T) {
	dts := []float32{0.016, 0.033, 0.5, 0, 0.016, 1.25, 3, 0.001, 0.9}

	run := func() []math.Vec3 {
		s := NewSeededSampler(42)
		target := &fakeTarget{}
		o, err := s.Spawn(target, DefaultTuning(), math.Vec3{X: 1, Y: 0.5, Z: 2})
		require.NoError(t, err)
		var out []math.Vec3
		for _, dt := range dts {
			o.Step(dt)
			out = append(out, target.pos)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestDeadTargetIsInert(t *testing.T) {
	target := &fakeTarget{}
	o, err := NewObject(target, baseParams())
	require.NoError(t, err)

	o.Step(1)
	target.dead = true
	writes := target.writes
	radius := o.Radius()

	o.Step(1)
	assert.False(t, o.Alive())
	assert.Equal(t, writes, target.writes)
	assert.Equal(t, radius, o.Radius())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "spiraling", StateSpiraling.String())
	assert.Equal(t, "orbiting", StateOrbiting.String())
	assert.Equal(t, "State(9)", State(9).String())
}
