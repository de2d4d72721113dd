package backend

import (
	"github.com/oomph-ac/solarsail/objects"
	"github.com/oomph-ac/solarsail/sailer"
	"github.com/oomph-ac/solarsail/settings"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
)

// Collaborators are the external handles the backends are built from. Runtime and PlaySpace may be nil when
// the XR runtime could not be reached.
type Collaborators struct {
	Runtime   xr.Runtime
	PlaySpace xr.SpatialRef
	Anchor    xr.Spatial
	Registry  objects.Registry[xr.Reparentable]
}

// Register creates the backends described by s and registers them on the sailer.
func Register(log *logrus.Logger, sl *sailer.Sailer, s settings.Settings, c Collaborators) {
	modes := sl.Modes()
	if s.GlobalOffset.Enabled {
		modes.SetBackend(sailer.ModeGlobalOffset, NewGlobalOffset(log, c.Runtime, c.PlaySpace, s.GlobalOffset.ActivityThreshold))
	}
	if c.Anchor != nil && c.Registry != nil {
		modes.SetBackend(sailer.ModeDynamicReparent, NewReparent(log, c.Anchor, c.Registry, ReparentOpts{
			ActivityThreshold: s.Reparent.ActivityThreshold,
			Capability:        s.Reparent.Capability,
			CleanupTimeout:    s.Reparent.CleanupTimeout,
		}))
	}
}
