package orbit

import (
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
)

// Engine owns every animating object and steps them together once per
// frame. It is not safe for concurrent use; the host's frame loop is its
// only caller.
type Engine struct {
	objects []*Object
	nextID  uint64
	log     *zap.Logger
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{log: logger.Named("orbit")}
}

// Add appends an object and returns its engine-assigned ID.
func (e *Engine) Add(o *Object) uint64 {
	e.nextID++
	o.id = e.nextID
	e.objects = append(e.objects, o)
	e.log.Debug("object added",
		zap.Uint64("id", o.id),
		zap.Float32("radius", o.targetRadius),
		zap.Float32("height", o.targetHeight),
		zap.Float32("delay", o.pendingDelay),
	)
	return o.id
}

// Remove drops an object. It reports whether the object was present.
func (e *Engine) Remove(o *Object) bool {
	for i, obj := range e.objects {
		if obj == o {
			e.objects = append(e.objects[:i], e.objects[i+1:]...)
			return true
		}
	}
	return false
}

// Step advances every live object by dt seconds, then sweeps objects whose
// target is gone. It returns the number of objects removed.
func (e *Engine) Step(dt float32) int {
	dead := 0
	for _, o := range e.objects {
		if !o.Alive() {
			dead++
			continue
		}
		o.Step(dt)
	}
	if dead == 0 {
		return 0
	}

	kept := e.objects[:0]
	for _, o := range e.objects {
		if o.Alive() {
			kept = append(kept, o)
			continue
		}
		e.log.Debug("object removed", zap.Uint64("id", o.id))
	}
	for i := len(kept); i < len(e.objects); i++ {
		e.objects[i] = nil
	}
	removed := len(e.objects) - len(kept)
	e.objects = kept
	return removed
}

// Len returns the number of tracked objects.
func (e *Engine) Len() int {
	return len(e.objects)
}

// Objects returns a snapshot of the tracked objects.
func (e *Engine) Objects() []*Object {
	out := make([]*Object, len(e.objects))
	copy(out, e.objects)
	return out
}

// CountByState returns how many objects are in each state.
func (e *Engine) CountByState() map[State]int {
	counts := make(map[State]int, 3)
	for _, o := range e.objects {
		counts[o.State()]++
	}
	return counts
}
