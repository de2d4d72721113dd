package sailer

import (
	"context"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/serror"
	"github.com/oomph-ac/solarsail/utils"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
)

// Mode selects the backend that receives the velocity.
type Mode uint8

const (
	// ModeDisabled ignores all input.
	ModeDisabled Mode = iota
	// ModeGlobalOffset moves every tracking origin of the XR runtime.
	ModeGlobalOffset
	// ModeDynamicReparent attaches reparentable objects to a moving anchor.
	ModeDynamicReparent
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeGlobalOffset:
		return "global_offset"
	case ModeDynamicReparent:
		return "dynamic_reparent"
	}
	return "unknown"
}

// ParseMode parses the name returned by Mode.String.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeDisabled, ModeGlobalOffset, ModeDynamicReparent} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, serror.New("unknown mode %q", name)
}

// ParseCycle parses a list of mode names.
func ParseCycle(names []string) ([]Mode, error) {
	cycle := make([]Mode, 0, len(names))
	for _, name := range names {
		m, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		cycle = append(cycle, m)
	}
	if len(cycle) == 0 {
		return nil, serror.New("mode cycle is empty")
	}
	return cycle, nil
}

// ModeMachine holds the current mode, the velocity, and the backend of each mode.
type ModeMachine struct {
	log *logrus.Logger

	mode     Mode
	cycle    []Mode
	backends map[Mode]Backend
	velocity *Velocity
}

// NewModeMachine creates a machine starting in initial. cycle must not be empty.
func NewModeMachine(log *logrus.Logger, initial Mode, cycle []Mode, decay float32) *ModeMachine {
	return &ModeMachine{
		log:      log,
		mode:     initial,
		cycle:    cycle,
		backends: make(map[Mode]Backend),
		velocity: NewVelocity(decay),
	}
}

// SetBackend sets the backend used while in mode. Setting a backend for ModeDisabled has no effect.
func (m *ModeMachine) SetBackend(mode Mode, b Backend) {
	if mode == ModeDisabled {
		return
	}
	m.backends[mode] = b
}

// Backend returns the backend used while in mode.
func (m *ModeMachine) Backend(mode Mode) Backend {
	if b, ok := m.backends[mode]; ok && mode != ModeDisabled {
		return b
	}
	return NopBackend{}
}

// Current returns the active mode.
func (m *ModeMachine) Current() Mode {
	return m.mode
}

// Velocity returns the current velocity.
func (m *ModeMachine) Velocity() mgl32.Vec3 {
	return m.velocity.Vec()
}

// Next returns the mode following the current one in the cycle. A mode outside the cycle is followed by
// the first mode of the cycle.
func (m *ModeMachine) Next() Mode {
	for i, mode := range m.cycle {
		if mode == m.mode {
			return m.cycle[(i+1)%len(m.cycle)]
		}
	}
	return m.cycle[0]
}

// Switch leaves the current mode and enters to. The exit action of the current backend has completed by
// the time the new mode becomes active. The velocity is brought to rest.
func (m *ModeMachine) Switch(ctx context.Context, to Mode) {
	if to == m.mode {
		return
	}
	from := m.mode
	m.Backend(from).ModeExit(ctx)
	m.velocity.Reset()
	m.mode = to

	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("from", from)
	data.Set("to", to)
	m.log.Debugf("switched locomotion mode %s", utils.OrderedMapToString(data))
}

// Integrate adds a drag offset to the velocity. It does nothing while disabled.
func (m *ModeMachine) Integrate(offset mgl32.Vec3) {
	if m.mode == ModeDisabled {
		return
	}
	m.velocity.Step(offset)
}

// Apply hands the velocity to the backend of the current mode.
func (m *ModeMachine) Apply(ctx context.Context, dt float32, stage xr.SpatialRef) {
	if m.mode == ModeDisabled {
		return
	}
	m.Backend(m.mode).Apply(ctx, dt, stage, m.velocity.Vec())
}

// Close runs the exit action of the current mode and closes every backend that holds resources.
func (m *ModeMachine) Close(ctx context.Context) {
	m.Backend(m.mode).ModeExit(ctx)
	for mode, b := range m.backends {
		if c, ok := b.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				m.log.Errorf("unable to close %s backend: %v", mode, err)
			}
		}
	}
}
