package virtual

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/atomic"
)

// Runtime is an XR runtime with a fixed set of tracking origins. It implements xr.Runtime.
type Runtime struct {
	mu      deadlock.RWMutex
	origins []*TrackingOrigin
	listErr error
}

// NewRuntime creates a runtime with one tracking origin per name, each with an identity offset.
func NewRuntime(names ...string) *Runtime {
	r := &Runtime{}
	for _, name := range names {
		r.origins = append(r.origins, &TrackingOrigin{
			name: name,
			pose: xr.Pose{Orientation: mgl32.QuatIdent()},
		})
	}
	return r
}

func (r *Runtime) TrackingOrigins(ctx context.Context) ([]xr.TrackingOrigin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	origins := make([]xr.TrackingOrigin, len(r.origins))
	for i, o := range r.origins {
		origins[i] = o
	}
	return origins, nil
}

// Origin returns the tracking origin with the given name, or nil if there is none.
func (r *Runtime) Origin(name string) *TrackingOrigin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.origins {
		if o.name == name {
			return o
		}
	}
	return nil
}

// FailListing makes TrackingOrigins fail with err until it is called again with nil.
func (r *Runtime) FailListing(err error) {
	r.mu.Lock()
	r.listErr = err
	r.mu.Unlock()
}

// TrackingOrigin is an origin of a Runtime. Reads and writes may be made to fail independently.
type TrackingOrigin struct {
	name string

	mu       deadlock.Mutex
	pose     xr.Pose
	readErr  error
	writeErr error

	writes atomic.Uint64
}

func (o *TrackingOrigin) Name() string {
	return o.name
}

func (o *TrackingOrigin) Offset(ctx context.Context) (xr.Pose, error) {
	if err := ctx.Err(); err != nil {
		return xr.Pose{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.readErr != nil {
		return xr.Pose{}, o.readErr
	}
	return o.pose, nil
}

func (o *TrackingOrigin) SetOffset(ctx context.Context, pose xr.Pose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.writeErr != nil {
		return o.writeErr
	}
	o.pose = pose
	o.writes.Inc()
	return nil
}

// Pose returns the current offset without going through a context.
func (o *TrackingOrigin) Pose() xr.Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose
}

// Writes returns the amount of successful SetOffset calls.
func (o *TrackingOrigin) Writes() uint64 {
	return o.writes.Load()
}

// Fail makes reads and writes of the offset fail with the given errors. nil restores normal operation.
func (o *TrackingOrigin) Fail(readErr, writeErr error) {
	o.mu.Lock()
	o.readErr, o.writeErr = readErr, writeErr
	o.mu.Unlock()
}
