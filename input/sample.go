package input

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/assert"
)

// Kind is the kind of device an input sample was produced by.
type Kind uint8

const (
	KindHand Kind = iota
	KindTip
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindHand:
		return "hand"
	case KindTip:
		return "tip"
	case KindPointer:
		return "pointer"
	}
	return "unknown"
}

// ParseKind parses the name returned by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for _, k := range []Kind{KindHand, KindTip, KindPointer} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Joint is a single tracked joint of a hand.
type Joint struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// Hand is a tracked hand.
type Hand struct {
	Palm     Joint
	ThumbTip Joint
	IndexTip Joint
}

// Tip is the tip of a controller or pen.
type Tip struct {
	Origin      mgl32.Vec3
	Orientation mgl32.Quat
}

// Pointer is a far-pointing ray, such as a mouse or gaze.
type Pointer struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Datamap holds auxiliary named values sent with a sample, such as grab strength.
type Datamap map[string]float32

// Float returns the value stored under key, or zero if there is none.
func (d Datamap) Float(key string) float32 {
	return d[key]
}

// Keys used in the datamap of samples.
const (
	KeyGrabStrength  = "grab_strength"
	KeyPinchStrength = "pinch_strength"
	KeyGrab          = "grab"
	KeySelect        = "select"
)

// Sample is one input source as seen during a single frame. Exactly one of Hand, Tip and Pointer is set,
// matching Kind. Positions are in the frame of the input handler that received the sample.
type Sample struct {
	// ID stays the same for a source across frames.
	ID   uint64
	Kind Kind

	Hand    *Hand
	Tip     *Tip
	Pointer *Pointer

	Data Datamap
}

// Position returns the point of the sample that is dragged through space: the palm of a hand or the
// origin of a tip. Pointers are never grabbed, and passing one is a programming error.
func (s Sample) Position() mgl32.Vec3 {
	switch s.Kind {
	case KindHand:
		assert.IsTrue(s.Hand != nil, "hand sample %d has no hand data", s.ID)
		return s.Hand.Palm.Position
	case KindTip:
		assert.IsTrue(s.Tip != nil, "tip sample %d has no tip data", s.ID)
		return s.Tip.Origin
	}
	assert.IsTrue(false, "sample %d of kind %s has no grab position", s.ID, s.Kind)
	return mgl32.Vec3{}
}
