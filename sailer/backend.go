package sailer

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/xr"
)

// Backend realises the integrated velocity as movement.
type Backend interface {
	// Apply moves the user by velocity over dt seconds. velocity is expressed in the frame of stage. Apply
	// never fails; problems are logged and the frame is skipped.
	Apply(ctx context.Context, dt float32, stage xr.SpatialRef, velocity mgl32.Vec3)
	// ModeExit is called when the mode using this backend is switched away from. It must undo anything
	// that would otherwise outlive the mode before returning.
	ModeExit(ctx context.Context)
}

// Closer may be implemented by backends holding resources beyond a single mode activation.
type Closer interface {
	Close(ctx context.Context) error
}

// NopBackend is used for the disabled mode and for modes without a backend.
type NopBackend struct{}

func (NopBackend) Apply(context.Context, float32, xr.SpatialRef, mgl32.Vec3) {}
func (NopBackend) ModeExit(context.Context)                                   {}
