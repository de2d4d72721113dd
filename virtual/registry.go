package virtual

import (
	"context"
	"slices"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/oomph-ac/solarsail/objects"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const feedBuffer = 256

// Registry keeps the objects other clients export and serves discovery feeds for them. It implements
// objects.Registry[xr.Reparentable].
type Registry struct {
	log *logrus.Logger
	c   *Compositor

	mu       deadlock.Mutex
	objects  *orderedmap.OrderedMap[objects.Info, *Object]
	feeds    map[*feed]struct{}
	queryErr error
}

// NewRegistry creates an empty registry whose objects live in c.
func NewRegistry(log *logrus.Logger, c *Compositor) *Registry {
	return &Registry{
		log:     log,
		c:       c,
		objects: orderedmap.NewOrderedMap[objects.Info, *Object](),
		feeds:   make(map[*feed]struct{}),
	}
}

// Query opens a feed of objects advertising capability. Every object already registered is reported as a
// new match before any later change.
func (r *Registry) Query(ctx context.Context, capability string) (objects.Feed[xr.Reparentable], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}

	f := &feed{
		r:          r,
		capability: capability,
		events:     make(chan objects.Event[xr.Reparentable], feedBuffer),
		done:       make(chan struct{}),
	}
	for el := r.objects.Front(); el != nil; el = el.Next() {
		if el.Value.Has(capability) {
			f.send(objects.Event[xr.Reparentable]{Kind: objects.NewMatch, Info: el.Key, Handle: el.Value})
		}
	}
	r.feeds[f] = struct{}{}
	return f, nil
}

// Add creates an object named name under parent and announces it to every feed whose capability it has.
// The object is owned by a client with a fresh bus name.
func (r *Registry) Add(name string, parent *Spatial, local mgl32.Mat4, capabilities ...string) *Object {
	o := &Object{
		info: objects.Info{
			BusName: ":" + uuid.NewString(),
			Path:    "/item/" + name,
		},
		spatial:      r.c.CreateSpatial(name, parent, local),
		home:         parent,
		capabilities: capabilities,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects.Set(o.info, o)
	r.broadcast(objects.NewMatch, o)
	r.log.Debugf("virtual object %s added", o.info)
	return o
}

// Modify announces o again, as if its owner replaced the handle.
func (r *Registry) Modify(o *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects.Get(o.info); ok {
		r.broadcast(objects.Modified, o)
	}
}

// Remove drops o, as if its owner disconnected. Feeds report it as lost.
func (r *Registry) Remove(o *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.objects.Delete(o.info) {
		r.broadcast(objects.MatchLost, o)
		r.log.Debugf("virtual object %s removed", o.info)
	}
}

// FailQueries makes Query fail with err until it is called again with nil.
func (r *Registry) FailQueries(err error) {
	r.mu.Lock()
	r.queryErr = err
	r.mu.Unlock()
}

// Feeds returns the amount of feeds that are open.
func (r *Registry) Feeds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

// Close ends every open feed. Their event channels are closed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for f := range r.feeds {
		close(f.events)
		delete(r.feeds, f)
	}
}

// broadcast sends an event about o to every interested feed. The registry must be locked.
func (r *Registry) broadcast(kind objects.EventKind, o *Object) {
	for f := range r.feeds {
		if !o.Has(f.capability) {
			continue
		}
		ev := objects.Event[xr.Reparentable]{Kind: kind, Info: o.info}
		if kind != objects.MatchLost {
			ev.Handle = o
		}
		f.send(ev)
	}
}

// feed is a discovery feed served by a Registry.
type feed struct {
	r          *Registry
	capability string

	events    chan objects.Event[xr.Reparentable]
	done      chan struct{}
	closeOnce sync.Once
}

func (f *feed) Events() <-chan objects.Event[xr.Reparentable] {
	return f.events
}

func (f *feed) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)
		f.r.mu.Lock()
		delete(f.r.feeds, f)
		f.r.mu.Unlock()
	})
	return nil
}

// send delivers ev unless the feed has been closed by its consumer.
func (f *feed) send(ev objects.Event[xr.Reparentable]) {
	select {
	case f.events <- ev:
	case <-f.done:
	}
}

// Object is an object exported by another client. It implements xr.Reparentable and keeps its world
// transform whenever it changes parent.
type Object struct {
	info         objects.Info
	spatial      *Spatial
	home         *Spatial
	capabilities []string

	mu          deadlock.Mutex
	parentErr   error
	unparentErr error

	parents, unparents atomic.Uint64
}

// Info returns the identity of the object.
func (o *Object) Info() objects.Info {
	return o.info
}

// Spatial returns the spatial of the object.
func (o *Object) Spatial() *Spatial {
	return o.spatial
}

// Has returns true if the object advertises capability.
func (o *Object) Has(capability string) bool {
	return slices.Contains(o.capabilities, capability)
}

// Parent moves the object under the spatial exported as anchor.
func (o *Object) Parent(ctx context.Context, anchor xr.AnchorID) error {
	o.parents.Inc()
	if err := o.check(ctx, true); err != nil {
		return err
	}
	c := o.spatial.c
	c.Lock()
	defer c.Unlock()
	target, err := c.lookup(anchor)
	if err != nil {
		return err
	}
	return o.spatial.setParentInPlace(target)
}

// Unparent moves the object back under the spatial it was created under.
func (o *Object) Unparent(ctx context.Context) error {
	o.unparents.Inc()
	if err := o.check(ctx, false); err != nil {
		return err
	}
	c := o.spatial.c
	c.Lock()
	defer c.Unlock()
	return o.spatial.setParentInPlace(o.home)
}

// check returns the error a Parent (or Unparent) call should fail with, if any.
func (o *Object) check(ctx context.Context, parent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if parent {
		return o.parentErr
	}
	return o.unparentErr
}

// Fail makes Parent and Unparent fail with the given errors. nil restores normal operation.
func (o *Object) Fail(parentErr, unparentErr error) {
	o.mu.Lock()
	o.parentErr, o.unparentErr = parentErr, unparentErr
	o.mu.Unlock()
}

// Calls returns how many times Parent and Unparent have been called, including failed calls.
func (o *Object) Calls() (parents, unparents uint64) {
	return o.parents.Load(), o.unparents.Load()
}
