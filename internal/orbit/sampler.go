package orbit

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Faultbox/orbitforge/pkg/math"
)

// Tuning is the configured range each new object's Params are drawn from.
type Tuning struct {
	MinRadius   float32 `yaml:"min_radius" toml:"min_radius"`
	MaxRadius   float32 `yaml:"max_radius" toml:"max_radius"`
	DomeHeight  float32 `yaml:"dome_height" toml:"dome_height"`   // max extra height above the anchor
	SpiralSpeed float32 `yaml:"spiral_speed" toml:"spiral_speed"` // units per second
	OrbitSpeed  float32 `yaml:"orbit_speed" toml:"orbit_speed"`   // degrees per second
	SettleDelay float32 `yaml:"settle_delay" toml:"settle_delay"` // seconds
}

// DefaultTuning returns the stock dome: radius 3-7, up to 2 units above the
// anchor, one unit per second outward, 30 degrees per second in orbit.
func DefaultTuning() Tuning {
	return Tuning{
		MinRadius:   3,
		MaxRadius:   7,
		DomeHeight:  2,
		SpiralSpeed: 1,
		OrbitSpeed:  30,
		SettleDelay: 1,
	}
}

// Validate rejects tunings that could produce an invalid object.
func (t Tuning) Validate() error {
	if !math.IsFinite(t.MinRadius) || t.MinRadius <= 0 {
		return fmt.Errorf("%w: min radius %v", ErrInvalidOrbitRadius, t.MinRadius)
	}
	if !math.IsFinite(t.MaxRadius) || t.MaxRadius < t.MinRadius {
		return fmt.Errorf("%w: max radius %v below min %v", ErrInvalidOrbitRadius, t.MaxRadius, t.MinRadius)
	}
	if !math.IsFinite(t.DomeHeight) || t.DomeHeight < 0 {
		return fmt.Errorf("%w: dome height %v", ErrInvalidParams, t.DomeHeight)
	}
	if !math.IsFinite(t.SpiralSpeed) || t.SpiralSpeed < 0 {
		return fmt.Errorf("%w: spiral speed %v", ErrInvalidParams, t.SpiralSpeed)
	}
	if !math.IsFinite(t.OrbitSpeed) {
		return fmt.Errorf("%w: orbit speed %v", ErrInvalidParams, t.OrbitSpeed)
	}
	if !math.IsFinite(t.SettleDelay) || t.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay %v", ErrInvalidParams, t.SettleDelay)
	}
	return nil
}

// Sampler draws per-object Params. All randomness comes from its generator,
// so a fixed seed reproduces the same dome.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps rng. A nil rng gets a time-seeded generator.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Sampler{rng: rng}
}

// NewSeededSampler returns a sampler with a deterministic generator.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample draws Params around anchor: radius uniform in [MinRadius, MaxRadius),
// height anchor.Y plus uniform [0, DomeHeight), phase uniform in [0, 360).
func (s *Sampler) Sample(t Tuning, anchor math.Vec3) Params {
	return Params{
		Anchor:       anchor,
		TargetRadius: t.MinRadius + s.rng.Float32()*(t.MaxRadius-t.MinRadius),
		TargetHeight: anchor.Y + s.rng.Float32()*t.DomeHeight,
		SpiralSpeed:  t.SpiralSpeed,
		OrbitSpeed:   t.OrbitSpeed,
		WaitTime:     t.SettleDelay,
		PhaseAngle:   s.rng.Float32() * 360,
	}
}

// Spawn samples Params and builds an object for target.
func (s *Sampler) Spawn(target Target, t Tuning, anchor math.Vec3) (*Object, error) {
	return NewObject(target, s.Sample(t, anchor))
}
