package input

import (
	"github.com/oomph-ac/solarsail/settings"
	"github.com/oomph-ac/solarsail/smath"
)

// Policy decides when a sample starts and stops acting. Strength thresholds activate above Activate and
// release below Release; the pinch distance activates below Activate and releases above Release.
type Policy struct {
	HandGrab      settings.Threshold
	TipGrab       settings.Threshold
	Pinch         settings.Threshold
	PinchDistance settings.Threshold
	Precision     bool
	Exclude       map[Kind]struct{}
}

// DefaultPolicy returns the policy of the default settings.
func DefaultPolicy() Policy {
	return PolicyFromSettings(settings.DefaultSettings())
}

// PolicyFromSettings builds a policy from the grab section of s. Unknown kind names in the exclusion list
// are ignored.
func PolicyFromSettings(s settings.Settings) Policy {
	p := Policy{
		HandGrab:      s.Grab.HandGrab,
		TipGrab:       s.Grab.TipGrab,
		Pinch:         s.Grab.Pinch,
		PinchDistance: s.Grab.PinchDistance,
		Precision:     s.Grab.Precision,
		Exclude:       make(map[Kind]struct{}),
	}
	for _, name := range s.Grab.Exclude {
		if k, ok := ParseKind(name); ok {
			p.Exclude[k] = struct{}{}
		}
	}
	return p
}

// Eligible returns true if the sample may act at all.
func (p Policy) Eligible(s Sample) bool {
	if _, excluded := p.Exclude[s.Kind]; excluded {
		return false
	}
	switch s.Kind {
	case KindHand:
		return s.Hand != nil
	case KindTip:
		return s.Tip != nil
	}
	return false
}

// Activates returns true if an idle sample should start acting.
func (p Policy) Activates(s Sample) bool {
	switch s.Kind {
	case KindHand:
		if s.Data.Float(KeyGrabStrength) > p.HandGrab.Activate {
			return true
		}
		if !p.Precision {
			return false
		}
		return s.Data.Float(KeyPinchStrength) > p.Pinch.Activate ||
			pinchDistance(s.Hand) < p.PinchDistance.Activate
	case KindTip:
		if s.Data.Float(KeyGrab) > p.TipGrab.Activate {
			return true
		}
		return p.Precision && s.Data.Float(KeySelect) > p.Pinch.Activate
	}
	return false
}

// Holds returns true if an acting sample should keep acting. It only releases once every signal that
// could hold it has fallen past its release threshold.
func (p Policy) Holds(s Sample) bool {
	switch s.Kind {
	case KindHand:
		if s.Data.Float(KeyGrabStrength) >= p.HandGrab.Release {
			return true
		}
		if !p.Precision {
			return false
		}
		return s.Data.Float(KeyPinchStrength) >= p.Pinch.Release ||
			pinchDistance(s.Hand) <= p.PinchDistance.Release
	case KindTip:
		if s.Data.Float(KeyGrab) >= p.TipGrab.Release {
			return true
		}
		return p.Precision && s.Data.Float(KeySelect) >= p.Pinch.Release
	}
	return false
}

func pinchDistance(h *Hand) float32 {
	return smath.Distance(h.ThumbTip.Position, h.IndexTip.Position)
}
