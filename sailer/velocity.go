package sailer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/smath"
)

// Integrator turns consecutive positions of the acting input into drag offsets.
type Integrator struct {
	exponent float32

	prev    mgl32.Vec3
	hasPrev bool
}

// NewIntegrator creates an integrator that shapes offsets with the given exponent.
func NewIntegrator(exponent float32) *Integrator {
	return &Integrator{exponent: exponent}
}

// Waft returns the shaped offset between the previous position and pos, which must be expressed in the
// stage frame. ok is false when nothing is acting, in which case the previous position is forgotten and
// zero is returned. The first position of a drag also yields zero.
func (i *Integrator) Waft(pos mgl32.Vec3, ok bool) mgl32.Vec3 {
	if !ok {
		i.hasPrev = false
		return mgl32.Vec3{}
	}
	prev, hadPrev := i.prev, i.hasPrev
	i.prev, i.hasPrev = pos, true
	if !hadPrev {
		return mgl32.Vec3{}
	}
	return smath.Shape(pos.Sub(prev), i.exponent)
}

// Reset forgets the previous position.
func (i *Integrator) Reset() {
	i.hasPrev = false
}

// Velocity is a velocity in the stage frame that decays geometrically every frame.
type Velocity struct {
	decay float32
	v     mgl32.Vec3
}

// NewVelocity creates a resting velocity with the given per-frame decay factor.
func NewVelocity(decay float32) *Velocity {
	return &Velocity{decay: decay}
}

// Step decays the velocity by one frame and adds offset to it.
func (v *Velocity) Step(offset mgl32.Vec3) {
	v.v = v.v.Mul(v.decay).Add(offset)
}

// Vec returns the current velocity.
func (v *Velocity) Vec() mgl32.Vec3 {
	return v.v
}

// Reset brings the velocity to rest.
func (v *Velocity) Reset() {
	v.v = mgl32.Vec3{}
}
