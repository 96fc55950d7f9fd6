// Package orbit implements the entrance animation for placed models: each
// object waits out a settle delay, spirals outward from its anchor while
// climbing to its orbit height, then revolves at constant angular speed.
//
// Time never comes from ambient state; every step receives an explicit dt
// in seconds, so identical parameters and dt sequences replay identically.
package orbit

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/orbitforge/pkg/math"
)

var (
	// ErrInvalidOrbitRadius is returned when an orbit radius is not a
	// positive finite number. A zero radius would divide by zero in the
	// angular-rate and height-blend formulas.
	ErrInvalidOrbitRadius = errors.New("invalid orbit radius")

	// ErrInvalidParams is returned for negative or non-finite speeds, delays
	// or heights.
	ErrInvalidParams = errors.New("invalid orbit parameters")

	// ErrNilTarget is returned when an object is created without a target.
	ErrNilTarget = errors.New("orbit target is nil")
)

// State is the motion phase of an object.
type State uint8

const (
	StateWaiting State = iota
	StateSpiraling
	StateOrbiting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateSpiraling:
		return "spiraling"
	case StateOrbiting:
		return "orbiting"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Target is the scene transform an object drives. The scene graph owns it;
// an object only holds a reference and stops touching it once Alive
// reports false.
type Target interface {
	SetWorldPosition(p math.Vec3)
	Alive() bool
}

// Params fixes the geometry and timing of one object.
type Params struct {
	Anchor       math.Vec3 // spiral/orbit center; Anchor.Y is the start height
	TargetRadius float32
	TargetHeight float32
	SpiralSpeed  float32 // radius units per second while spiraling
	OrbitSpeed   float32 // degrees per second at full radius
	WaitTime     float32 // seconds before any motion
	PhaseAngle   float32 // initial angle in degrees
}

// Validate checks that Params can be stepped without producing NaN.
func (p Params) Validate() error {
	if !math.IsFinite(p.TargetRadius) || p.TargetRadius <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidOrbitRadius, p.TargetRadius)
	}
	if !math.IsFinite(p.SpiralSpeed) || p.SpiralSpeed < 0 {
		return fmt.Errorf("%w: spiral speed %v", ErrInvalidParams, p.SpiralSpeed)
	}
	if !math.IsFinite(p.WaitTime) || p.WaitTime < 0 {
		return fmt.Errorf("%w: wait time %v", ErrInvalidParams, p.WaitTime)
	}
	for _, v := range []float32{p.OrbitSpeed, p.PhaseAngle, p.TargetHeight, p.Anchor.X, p.Anchor.Y, p.Anchor.Z} {
		if !math.IsFinite(v) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidParams, v)
		}
	}
	return nil
}

// Object is one animated model.
type Object struct {
	id     uint64
	target Target

	anchor       math.Vec3
	startHeight  float32
	targetRadius float32
	targetHeight float32
	spiralSpeed  float32
	orbitSpeed   float32

	phase         float32
	radius        float32
	heightBlend   float32
	pendingDelay  float32
	reachedOrbit  bool
	position      math.Vec3
	wrotePosition bool
}

// NewObject validates p and returns an object in the waiting state.
func NewObject(target Target, p Params) (*Object, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Object{
		target:       target,
		anchor:       p.Anchor,
		startHeight:  p.Anchor.Y,
		targetRadius: p.TargetRadius,
		targetHeight: p.TargetHeight,
		spiralSpeed:  p.SpiralSpeed,
		orbitSpeed:   p.OrbitSpeed,
		phase:        wrapDegrees(p.PhaseAngle),
		pendingDelay: p.WaitTime,
	}, nil
}

// Step advances the object by dt seconds and writes the target position.
// A non-positive dt changes nothing.
func (o *Object) Step(dt float32) {
	if !(dt > 0) || !o.Alive() {
		return
	}

	if o.pendingDelay > 0 {
		if dt < o.pendingDelay {
			o.pendingDelay -= dt
			return
		}
		// The delay runs out inside this step; only the remainder moves.
		dt -= o.pendingDelay
		o.pendingDelay = 0
		if dt <= 0 {
			return
		}
	}

	if o.reachedOrbit {
		o.phase = wrapDegrees(o.phase + o.orbitSpeed*dt)
		o.writePosition(o.targetHeight, o.targetRadius)
		return
	}

	o.radius = math32.Min(o.targetRadius, o.radius+o.spiralSpeed*dt)
	o.heightBlend = math.Clamp01(o.heightBlend + dt*o.spiralSpeed/o.targetRadius)
	height := math.Lerp(o.startHeight, o.targetHeight, o.heightBlend)

	// Angular rate grows with the radius ratio, so the spiral accelerates.
	o.phase = wrapDegrees(o.phase + o.orbitSpeed*(o.radius/o.targetRadius)*dt)

	if o.radius >= o.targetRadius {
		o.radius = o.targetRadius
		o.heightBlend = 1
		height = o.targetHeight
		o.reachedOrbit = true
	}

	o.writePosition(height, o.radius)
}

// wrapDegrees keeps an angle in (-360, 360) so float32 increments of a
// fraction of a degree never round away.
func wrapDegrees(a float32) float32 {
	return math32.Mod(a, 360)
}

func (o *Object) writePosition(height, radius float32) {
	rad := o.phase * math.DegToRad
	o.position = math.Vec3{
		X: o.anchor.X + math32.Cos(rad)*radius,
		Y: height,
		Z: o.anchor.Z + math32.Sin(rad)*radius,
	}
	o.wrotePosition = true
	o.target.SetWorldPosition(o.position)
}

// ID returns the identifier assigned by the Engine, or 0 if never added.
func (o *Object) ID() uint64 { return o.id }

// Target returns the driven scene target.
func (o *Object) Target() Target { return o.target }

// Alive reports whether the target still exists.
func (o *Object) Alive() bool { return o.target != nil && o.target.Alive() }

// State returns the current motion phase.
func (o *Object) State() State {
	switch {
	case o.reachedOrbit:
		return StateOrbiting
	case o.pendingDelay > 0:
		return StateWaiting
	default:
		return StateSpiraling
	}
}

// Position returns the last written world position and whether one was
// written yet.
func (o *Object) Position() (math.Vec3, bool) { return o.position, o.wrotePosition }

// Radius returns the current distance from the anchor axis.
func (o *Object) Radius() float32 { return o.radius }

// TargetRadius returns the terminal orbit radius.
func (o *Object) TargetRadius() float32 { return o.targetRadius }

// TargetHeight returns the terminal orbit height.
func (o *Object) TargetHeight() float32 { return o.targetHeight }

// HeightBlend returns the [0,1] progress from start height to target height.
func (o *Object) HeightBlend() float32 { return o.heightBlend }

// Height returns the effective height for the current state.
func (o *Object) Height() float32 {
	if o.reachedOrbit {
		return o.targetHeight
	}
	return math.Lerp(o.startHeight, o.targetHeight, o.heightBlend)
}

// Phase returns the orbit angle in degrees, wrapped into (-360, 360).
func (o *Object) Phase() float32 { return o.phase }

// PendingDelay returns the remaining settle delay in seconds.
func (o *Object) PendingDelay() float32 { return o.pendingDelay }

// Anchor returns the orbit center.
func (o *Object) Anchor() math.Vec3 { return o.anchor }
