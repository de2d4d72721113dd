// Package xr declares the contracts solarsail consumes from the compositor and the XR runtime. Nothing in
// this package talks to a real server; implementations live with the connection code, or in package
// virtual for tests and offline runs.
package xr

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
)

// ReparentableCapability is the interface name advertised by objects that accept a new spatial parent.
const ReparentableCapability = "org.stardustxr.Reparentable"

// Frame is delivered once per rendered frame.
type Frame struct {
	// Delta is the time since the previous frame, in seconds.
	Delta float32
}

// AnchorID is a stable, externally addressable identity of an exported spatial.
type AnchorID uint64

// SpatialRef is a reference to a spatial node that may be owned by another client.
type SpatialRef interface {
	// TransformTo returns the matrix that maps coordinates in the frame of this spatial into the frame of
	// target.
	TransformTo(ctx context.Context, target SpatialRef) (mgl32.Mat4, error)
}

// Spatial is a spatial owned by this client.
type Spatial interface {
	SpatialRef
	// SetRelativeTranslation moves the spatial so that its origin sits at pos in the frame of relativeTo.
	// Rotation and scale are left as they are.
	SetRelativeTranslation(ctx context.Context, relativeTo SpatialRef, pos mgl32.Vec3) error
	// Export makes the spatial addressable by other clients and returns its identity.
	Export(ctx context.Context) (AnchorID, error)
}

// Pose is a position and orientation.
type Pose struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// Runtime is the control channel of the XR runtime.
type Runtime interface {
	// TrackingOrigins lists every tracking origin currently registered with the runtime.
	TrackingOrigins(ctx context.Context) ([]TrackingOrigin, error)
}

// TrackingOrigin is a runtime managed coordinate origin. Rewriting its offset shifts everything tracked
// relative to it.
type TrackingOrigin interface {
	Name() string
	Offset(ctx context.Context) (Pose, error)
	SetOffset(ctx context.Context, pose Pose) error
}

// Reparentable is a live handle to an external object that can be attached to one of our anchors.
type Reparentable interface {
	Parent(ctx context.Context, anchor AnchorID) error
	Unparent(ctx context.Context) error
}
