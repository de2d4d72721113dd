package sailer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/input"
)

// Signifier describes the feedback shown on an input source that can grab. Drawing it is left to the
// caller.
type Signifier struct {
	SourceID uint64
	// Position is in the frame of the input handler.
	Position mgl32.Vec3
	Acting   bool
	Colour   mgl32.Vec4
}

var (
	colourIdle   = mgl32.Vec4{1, 1, 1, 0.25}
	colourActing = map[Mode]mgl32.Vec4{
		ModeGlobalOffset:    {0.2, 0.6, 1, 1},
		ModeDynamicReparent: {1, 0.65, 0.1, 1},
	}
)

// Signifiers returns one signifier per hovering source and one for the actor. Nothing is shown while
// locomotion is disabled.
func (s *Sailer) Signifiers() []Signifier {
	mode := s.modes.Current()
	if mode == ModeDisabled {
		return nil
	}
	return input.Signifiers(s.tracker, func(sample input.Sample, acting bool) Signifier {
		colour := colourIdle
		if acting {
			colour = colourActing[mode]
		}
		return Signifier{
			SourceID: sample.ID,
			Position: sample.Position(),
			Acting:   acting,
			Colour:   colour,
		}
	})
}
