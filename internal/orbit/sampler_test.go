package orbit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/orbitforge/pkg/math"
)

func TestSampleWithinTuning(t *testing.T) {
	s := NewSeededSampler(1)
	tune := DefaultTuning()
	anchor := math.Vec3{X: 2, Y: 1.5, Z: -3}

	for i := 0; i < 500; i++ {
		p := s.Sample(tune, anchor)
		assert.GreaterOrEqual(t, p.TargetRadius, tune.MinRadius)
		assert.LessOrEqual(t, p.TargetRadius, tune.MaxRadius)
		assert.GreaterOrEqual(t, p.TargetHeight, anchor.Y)
		assert.LessOrEqual(t, p.TargetHeight, anchor.Y+tune.DomeHeight)
		assert.GreaterOrEqual(t, p.PhaseAngle, float32(0))
		assert.Less(t, p.PhaseAngle, float32(360))
		assert.Equal(t, anchor, p.Anchor)
		assert.Equal(t, tune.SettleDelay, p.WaitTime)
	}
}

func TestSampleDeterministic(t *testing.T) {
	a := NewSeededSampler(99)
	b := NewSeededSampler(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Sample(DefaultTuning(), math.Vec3{}), b.Sample(DefaultTuning(), math.Vec3{}))
	}
}

func TestTuningValidate(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())

	tests := []struct {
		name   string
		mutate func(*Tuning)
		want   error
	}{
		{"zero min radius", func(tu *Tuning) { tu.MinRadius = 0 }, ErrInvalidOrbitRadius},
		{"max below min", func(tu *Tuning) { tu.MaxRadius = 1 }, ErrInvalidOrbitRadius},
		{"negative dome", func(tu *Tuning) { tu.DomeHeight = -1 }, ErrInvalidParams},
		{"negative spiral", func(tu *Tuning) { tu.SpiralSpeed = -2 }, ErrInvalidParams},
		{"negative delay", func(tu *Tuning) { tu.SettleDelay = -1 }, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu := DefaultTuning()
			tt.mutate(&tu)
			assert.ErrorIs(t, tu.Validate(), tt.want)
		})
	}
}

func TestFixedRadiusTuning(t *testing.T) {
	tune := DefaultTuning()
	tune.MinRadius, tune.MaxRadius = 4, 4
	assert.NoError(t, tune.Validate())
	assert.Equal(t, float32(4), NewSeededSampler(3).Sample(tune, math.Vec3{}).TargetRadius)
}
