package backend

import (
	"context"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/objects"
	"github.com/oomph-ac/solarsail/smath"
	"github.com/oomph-ac/solarsail/utils"
	"github.com/oomph-ac/solarsail/worker"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// ReparentOpts configures a Reparent backend.
type ReparentOpts struct {
	// ActivityThreshold is the squared speed above which the user counts as moving.
	ActivityThreshold float32
	// Capability is the interface reparentable objects are discovered by.
	Capability string
	// CleanupTimeout bounds the unparent calls made when an engagement ends.
	CleanupTimeout time.Duration
}

// ReparentStats counts what a Reparent backend has done since it was created.
type ReparentStats struct {
	Engagements uint64
	Parented    uint64
	Unparented  uint64
}

// Reparent moves an anchor of its own and, while the user is moving, parents every reparentable object
// to it so the objects ride along.
type Reparent struct {
	log  *logrus.Logger
	opts ReparentOpts

	anchor   xr.Spatial
	anchorID xr.AnchorID
	exported bool
	registry objects.Registry[xr.Reparentable]

	set  *objects.Set[xr.Reparentable]
	task *worker.Task
	// failing is set after an engagement fails and cleared by the next one that succeeds.
	failing bool

	engagements, parented, unparented atomic.Uint64
}

// NewReparent creates an idle backend moving anchor. The anchor is exported the first time the backend
// engages.
func NewReparent(log *logrus.Logger, anchor xr.Spatial, registry objects.Registry[xr.Reparentable], opts ReparentOpts) *Reparent {
	return &Reparent{
		log:      log,
		opts:     opts,
		anchor:   anchor,
		registry: registry,
	}
}

// Apply moves the anchor by velocity. The backend engages once the velocity rises above the activity
// threshold and disengages, unparenting everything, once it falls back under it.
func (r *Reparent) Apply(ctx context.Context, dt float32, stage xr.SpatialRef, velocity mgl32.Vec3) {
	if smath.LenSqr(velocity) <= r.opts.ActivityThreshold {
		if r.task != nil {
			r.disengage()
		}
		return
	}
	r.move(ctx, dt, stage, velocity)

	// A feed that ended on its own leaves objects found since then unparented.
	if r.task != nil && !r.task.Running() {
		r.disengage()
	}
	// Objects found by a new engagement ride along from the next frame on.
	if r.task == nil {
		if err := r.engage(ctx); err != nil {
			if r.failing {
				r.log.Debugf("unable to start reparenting: %v", err)
			} else {
				r.log.Errorf("unable to start reparenting: %v", err)
			}
			r.failing = true
			return
		}
		r.failing = false
	}
}

// move translates the anchor by velocity*dt, expressed in the frame of stage.
func (r *Reparent) move(ctx context.Context, dt float32, stage xr.SpatialRef, velocity mgl32.Vec3) {
	mat, err := r.anchor.TransformTo(ctx, stage)
	if err != nil {
		r.log.Errorf("unable to get anchor transform relative to stage: %v", err)
		return
	}
	pos := smath.Translation(mat).Add(velocity.Mul(dt))
	if err := r.anchor.SetRelativeTranslation(ctx, stage, pos); err != nil {
		r.log.Errorf("unable to set anchor transform: %v", err)
	}
}

// ModeExit unparents every object immediately, regardless of velocity.
func (r *Reparent) ModeExit(context.Context) {
	if r.task != nil {
		r.disengage()
	}
}

// Close unparents every object. The backend may still be used afterwards.
func (r *Reparent) Close(context.Context) error {
	if r.task != nil {
		r.disengage()
	}
	return nil
}

// Engaged returns true while objects are being discovered and parented.
func (r *Reparent) Engaged() bool {
	return r.task != nil && r.task.Running()
}

// Objects returns the objects currently parented to the anchor.
func (r *Reparent) Objects() []objects.Info {
	if r.set == nil {
		return nil
	}
	return r.set.Attached()
}

// Stats returns the counters of the backend.
func (r *Reparent) Stats() ReparentStats {
	return ReparentStats{
		Engagements: r.engagements.Load(),
		Parented:    r.parented.Load(),
		Unparented:  r.unparented.Load(),
	}
}

// engage starts discovering reparentable objects and parents each one to the anchor as it is found.
func (r *Reparent) engage(ctx context.Context) error {
	if !r.exported {
		id, err := r.anchor.Export(ctx)
		if err != nil {
			return err
		}
		r.anchorID, r.exported = id, true
	}
	feed, err := r.registry.Query(ctx, r.opts.Capability)
	if err != nil {
		return err
	}

	anchorID := r.anchorID
	r.set = objects.NewSet(r.log, objects.Hooks[xr.Reparentable]{
		Attach: func(ctx context.Context, info objects.Info, h xr.Reparentable) error {
			if err := h.Parent(ctx, anchorID); err != nil {
				return err
			}
			r.parented.Inc()
			return nil
		},
		Detach: func(ctx context.Context, info objects.Info, h xr.Reparentable) error {
			r.unparented.Inc()
			return h.Unparent(ctx)
		},
	}, r.opts.CleanupTimeout)

	set := r.set
	r.task = worker.Go(context.WithoutCancel(ctx), r.log, "reparent", func(ctx context.Context) error {
		return set.Listen(ctx, feed)
	})
	r.engagements.Inc()

	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("anchor", anchorID)
	data.Set("capability", r.opts.Capability)
	r.log.Debugf("reparenting engaged %s", utils.OrderedMapToString(data))
	return nil
}

// disengage stops discovery and waits until every parented object has been unparented.
func (r *Reparent) disengage() {
	if err := r.task.Stop(); err != nil {
		r.log.Errorf("reparent listener stopped with error: %v", err)
	}
	r.task, r.set = nil, nil
	r.log.Debugf("reparenting disengaged %s", utils.KeyValsToString("unparented", r.unparented.Load()))
}
