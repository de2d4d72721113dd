// Package virtual is an in-memory stand-in for the compositor and the XR runtime. It keeps a spatial tree,
// tracking origins and an object registry, and lets failures be injected, so locomotion can be exercised
// without a running server.
package virtual

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/serror"
	"github.com/oomph-ac/solarsail/smath"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Compositor owns a tree of spatials rooted at Root.
type Compositor struct {
	log *logrus.Logger

	deadlock.RWMutex
	root       *Spatial
	exported   map[xr.AnchorID]*Spatial
	nextAnchor xr.AnchorID

	transformErr error
}

// NewCompositor creates a compositor containing only a root spatial.
func NewCompositor(log *logrus.Logger) *Compositor {
	c := &Compositor{
		log:        log,
		exported:   make(map[xr.AnchorID]*Spatial),
		nextAnchor: 1,
	}
	c.root = &Spatial{c: c, name: "root", local: mgl32.Ident4()}
	return c
}

// Root returns the root spatial.
func (c *Compositor) Root() *Spatial {
	return c.root
}

// CreateSpatial creates a spatial under parent with the given local transform.
func (c *Compositor) CreateSpatial(name string, parent *Spatial, local mgl32.Mat4) *Spatial {
	c.Lock()
	defer c.Unlock()
	return &Spatial{c: c, name: name, parent: parent, local: local}
}

// FailTransforms makes every transform query fail with err until it is called again with nil.
func (c *Compositor) FailTransforms(err error) {
	c.Lock()
	c.transformErr = err
	c.Unlock()
}

// lookup returns the spatial exported under id.
func (c *Compositor) lookup(id xr.AnchorID) (*Spatial, error) {
	s, ok := c.exported[id]
	if !ok {
		return nil, serror.ErrNotExported
	}
	return s, nil
}

// Spatial is a node of the compositor's tree. It implements xr.Spatial.
type Spatial struct {
	c      *Compositor
	name   string
	parent *Spatial
	local  mgl32.Mat4
	id     xr.AnchorID
}

// Name returns the name the spatial was created with.
func (s *Spatial) Name() string {
	return s.name
}

// Parent returns the current parent of the spatial, or nil for the root.
func (s *Spatial) Parent() *Spatial {
	s.c.RLock()
	defer s.c.RUnlock()
	return s.parent
}

// world returns the transform from the spatial's frame into the root frame. The compositor must be locked.
func (s *Spatial) world() mgl32.Mat4 {
	if s.parent == nil {
		return s.local
	}
	return s.parent.world().Mul4(s.local)
}

// WorldPosition returns the origin of the spatial in the root frame.
func (s *Spatial) WorldPosition() mgl32.Vec3 {
	s.c.RLock()
	defer s.c.RUnlock()
	return smath.Translation(s.world())
}

// SetLocalTransform replaces the transform of the spatial relative to its parent.
func (s *Spatial) SetLocalTransform(m mgl32.Mat4) {
	s.c.Lock()
	s.local = m
	s.c.Unlock()
}

// TransformTo returns inv(world(target)) * world(s).
func (s *Spatial) TransformTo(ctx context.Context, target xr.SpatialRef) (mgl32.Mat4, error) {
	if err := ctx.Err(); err != nil {
		return mgl32.Mat4{}, err
	}
	t, err := s.sameCompositor(target)
	if err != nil {
		return mgl32.Mat4{}, err
	}

	s.c.RLock()
	defer s.c.RUnlock()
	if s.c.transformErr != nil {
		return mgl32.Mat4{}, s.c.transformErr
	}
	return t.world().Inv().Mul4(s.world()), nil
}

// SetRelativeTranslation keeps the rotation and scale of s relative to relativeTo and replaces its
// translation.
func (s *Spatial) SetRelativeTranslation(ctx context.Context, relativeTo xr.SpatialRef, pos mgl32.Vec3) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := s.sameCompositor(relativeTo)
	if err != nil {
		return err
	}

	s.c.Lock()
	defer s.c.Unlock()
	relWorld := rel.world()
	inRel := smath.WithTranslation(relWorld.Inv().Mul4(s.world()), pos)
	s.setWorld(relWorld.Mul4(inRel))
	return nil
}

// setWorld changes the local transform so that the world transform becomes w. The compositor must be locked.
func (s *Spatial) setWorld(w mgl32.Mat4) {
	if s.parent == nil {
		s.local = w
		return
	}
	s.local = s.parent.world().Inv().Mul4(w)
}

// Export registers the spatial under a new anchor id. Exporting again returns the same id.
func (s *Spatial) Export(ctx context.Context) (xr.AnchorID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.c.Lock()
	defer s.c.Unlock()
	if s.id == 0 {
		s.id = s.c.nextAnchor
		s.c.nextAnchor++
		s.c.exported[s.id] = s
		s.c.log.Debugf("exported spatial %s as anchor %d", s.name, s.id)
	}
	return s.id, nil
}

// setParentInPlace moves the spatial under parent without changing its world transform. The compositor must
// be locked.
func (s *Spatial) setParentInPlace(parent *Spatial) error {
	for p := parent; p != nil; p = p.parent {
		if p == s {
			return serror.New("cannot parent %s to its own descendant %s", s.name, parent.name)
		}
	}
	w := s.world()
	s.parent = parent
	s.setWorld(w)
	return nil
}

func (s *Spatial) sameCompositor(ref xr.SpatialRef) (*Spatial, error) {
	other, ok := ref.(*Spatial)
	if !ok || other == nil || other.c != s.c {
		return nil, serror.New("spatial %T is not part of this compositor", ref)
	}
	return other, nil
}
