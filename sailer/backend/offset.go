package backend

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/serror"
	"github.com/oomph-ac/solarsail/smath"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
)

// GlobalOffset moves the whole tracked play space by rewriting the offset of every tracking origin of the
// XR runtime.
type GlobalOffset struct {
	log *logrus.Logger

	runtime   xr.Runtime
	playSpace xr.SpatialRef
	threshold float32
}

// NewGlobalOffset creates the backend. If runtime or playSpace is nil the backend is unavailable and every
// Apply does nothing.
func NewGlobalOffset(log *logrus.Logger, runtime xr.Runtime, playSpace xr.SpatialRef, threshold float32) *GlobalOffset {
	if runtime == nil || playSpace == nil {
		log.Warnf("global offset locomotion unavailable: %v", serror.ErrUnavailable)
		runtime, playSpace = nil, nil
	}
	return &GlobalOffset{
		log:       log,
		runtime:   runtime,
		playSpace: playSpace,
		threshold: threshold,
	}
}

// Available returns true if the backend has a runtime to move.
func (g *GlobalOffset) Available() bool {
	return g.runtime != nil
}

// Apply shifts every tracking origin against the velocity, so the world appears to move with the drag.
// All origins are shifted by the same delta to keep their frames in sync.
func (g *GlobalOffset) Apply(ctx context.Context, dt float32, stage xr.SpatialRef, velocity mgl32.Vec3) {
	if !g.Available() || smath.LenSqr(velocity) <= g.threshold {
		return
	}

	origins, err := g.runtime.TrackingOrigins(ctx)
	if err != nil {
		g.log.Errorf("unable to list tracking origins: %v", err)
		return
	}
	mat, err := stage.TransformTo(ctx, g.playSpace)
	if err != nil {
		g.log.Errorf("unable to get stage transform relative to play space: %v", err)
		return
	}
	delta := smath.TransformVector(mat, velocity.Mul(-dt))

	for _, origin := range origins {
		pose, err := origin.Offset(ctx)
		if err != nil {
			g.log.Errorf("unable to read offset of tracking origin %s: %v", origin.Name(), err)
			continue
		}
		pose.Position = pose.Position.Add(delta)
		if err := origin.SetOffset(ctx, pose); err != nil {
			g.log.Errorf("unable to set offset of tracking origin %s: %v", origin.Name(), err)
		}
	}
}

// ModeExit does nothing: origins keep the offset they were moved to.
func (g *GlobalOffset) ModeExit(context.Context) {}
