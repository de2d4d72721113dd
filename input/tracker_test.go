package input

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func hand(id uint64, grab float32) Sample {
	return Sample{
		ID:   id,
		Kind: KindHand,
		Hand: &Hand{
			Palm:     Joint{Position: mgl32.Vec3{float32(id), 0, 0}},
			ThumbTip: Joint{Position: mgl32.Vec3{0, 0, 0}},
			IndexTip: Joint{Position: mgl32.Vec3{0.1, 0, 0}},
		},
		Data: Datamap{KeyGrabStrength: grab},
	}
}

func tip(id uint64, grab float32) Sample {
	return Sample{
		ID:   id,
		Kind: KindTip,
		Tip:  &Tip{Origin: mgl32.Vec3{0, float32(id), 0}, Orientation: mgl32.QuatIdent()},
		Data: Datamap{KeyGrab: grab},
	}
}

func pointer(id uint64) Sample {
	return Sample{
		ID:      id,
		Kind:    KindPointer,
		Pointer: &Pointer{Direction: mgl32.Vec3{0, 0, -1}},
		Data:    Datamap{KeyGrab: 1, KeyGrabStrength: 1},
	}
}

func TestTrackerStartAndStop(t *testing.T) {
	tr := NewTracker(DefaultPolicy())

	tr.Update([]Sample{hand(1, 0.2)})
	require.False(t, tr.Acting())
	require.Len(t, tr.Hovering(), 1)

	tr.Update([]Sample{hand(1, 0.95)})
	require.True(t, tr.ActorStarted())
	require.False(t, tr.ActorStopped())
	actor, ok := tr.Actor()
	require.True(t, ok)
	require.Equal(t, uint64(1), actor.ID)
	require.Empty(t, tr.Hovering())

	tr.Update([]Sample{hand(1, 0.95)})
	require.True(t, tr.Acting())
	require.False(t, tr.ActorStarted(), "started is an edge, not a level")

	tr.Update([]Sample{hand(1, 0.1)})
	require.False(t, tr.Acting())
	require.True(t, tr.ActorStopped())
}

func TestTrackerHysteresis(t *testing.T) {
	p := DefaultPolicy()
	require.Greater(t, p.HandGrab.Activate, p.HandGrab.Release)

	tr := NewTracker(p)
	between := (p.HandGrab.Activate + p.HandGrab.Release) / 2

	// A value between the thresholds does not activate an idle source.
	tr.Update([]Sample{hand(1, between)})
	require.False(t, tr.Acting())

	tr.Update([]Sample{hand(1, 0.95)})
	require.True(t, tr.Acting())

	// Dipping below activation but staying above release keeps the actor.
	for i := 0; i < 10; i++ {
		tr.Update([]Sample{hand(1, between)})
		require.True(t, tr.Acting())
		require.False(t, tr.ActorStopped())
	}

	tr.Update([]Sample{hand(1, p.HandGrab.Release-0.01)})
	require.False(t, tr.Acting())
	require.True(t, tr.ActorStopped())
}

func TestTrackerActorIsSticky(t *testing.T) {
	tr := NewTracker(DefaultPolicy())
	tr.Update([]Sample{hand(1, 0.95), tip(2, 0.1)})
	actor, _ := tr.Actor()
	require.Equal(t, uint64(1), actor.ID)

	// The second source now qualifies too, but the first keeps acting.
	tr.Update([]Sample{hand(1, 0.8), tip(2, 0.99)})
	actor, _ = tr.Actor()
	require.Equal(t, uint64(1), actor.ID)
	require.Len(t, tr.Hovering(), 1)
	require.Equal(t, uint64(2), tr.Hovering()[0].ID)
}

func TestTrackerActorDisappears(t *testing.T) {
	tr := NewTracker(DefaultPolicy())
	tr.Update([]Sample{tip(7, 1)})
	require.True(t, tr.Acting())

	tr.Update(nil)
	require.False(t, tr.Acting())
	require.True(t, tr.ActorStopped())
}

func TestTrackerNoRestartOnStopFrame(t *testing.T) {
	tr := NewTracker(DefaultPolicy())
	tr.Update([]Sample{hand(1, 1), tip(2, 0)})
	tr.Update([]Sample{hand(1, 0), tip(2, 1)})
	require.True(t, tr.ActorStopped())
	require.False(t, tr.Acting())

	tr.Update([]Sample{hand(1, 0), tip(2, 1)})
	require.True(t, tr.ActorStarted())
	actor, _ := tr.Actor()
	require.Equal(t, uint64(2), actor.ID)
}

func TestTrackerExcludesPointers(t *testing.T) {
	tr := NewTracker(DefaultPolicy())
	tr.Update([]Sample{pointer(3)})
	require.False(t, tr.Acting())
	require.Empty(t, tr.Hovering())
}

func TestTrackerPrecisionPinch(t *testing.T) {
	p := DefaultPolicy()
	p.Precision = true
	tr := NewTracker(p)

	s := hand(1, 0)
	s.Hand.IndexTip.Position = mgl32.Vec3{0.02, 0, 0}
	tr.Update([]Sample{s})
	require.True(t, tr.Acting(), "thumb and index closer than the activation distance")

	s.Hand.IndexTip.Position = mgl32.Vec3{0.04, 0, 0}
	tr.Update([]Sample{s})
	require.True(t, tr.Acting(), "distance between activation and release keeps acting")

	s.Hand.IndexTip.Position = mgl32.Vec3{0.05, 0, 0}
	tr.Update([]Sample{s})
	require.False(t, tr.Acting())

	// Without precision grab, pinching does nothing.
	tr = NewTracker(DefaultPolicy())
	s.Hand.IndexTip.Position = mgl32.Vec3{0.01, 0, 0}
	s.Data[KeyPinchStrength] = 1
	tr.Update([]Sample{s})
	require.False(t, tr.Acting())
}

func TestTrackerNeverMoreThanOneActor(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := NewTracker(DefaultPolicy())

	for frame := 0; frame < 2000; frame++ {
		var samples []Sample
		for id := uint64(0); id < 4; id++ {
			if rng.Intn(5) == 0 {
				continue
			}
			switch id % 3 {
			case 0:
				samples = append(samples, hand(id, rng.Float32()))
			case 1:
				samples = append(samples, tip(id, rng.Float32()))
			default:
				samples = append(samples, pointer(id))
			}
		}
		tr.Update(samples)

		acting := 0
		signifiers := Signifiers(tr, func(s Sample, a bool) bool { return a })
		for _, a := range signifiers {
			if a {
				acting++
			}
		}
		require.LessOrEqual(t, acting, 1)
		require.False(t, tr.ActorStarted() && tr.ActorStopped())
		if actor, ok := tr.Actor(); ok {
			for _, h := range tr.Hovering() {
				require.NotEqual(t, actor.ID, h.ID)
			}
		}
	}
}

func TestSignifiersOrder(t *testing.T) {
	tr := NewTracker(DefaultPolicy())
	tr.Update([]Sample{hand(1, 0.95), tip(2, 0), pointer(3)})

	ids := Signifiers(tr, func(s Sample, acting bool) uint64 { return s.ID })
	require.Equal(t, []uint64{2, 1}, ids)
}

func TestPositionOfPointerPanics(t *testing.T) {
	require.Equal(t, mgl32.Vec3{1, 0, 0}, hand(1, 0).Position())
	require.Equal(t, mgl32.Vec3{0, 2, 0}, tip(2, 0).Position())
	require.Panics(t, func() { _ = pointer(3).Position() })
}

func TestPolicyFromSettingsExclusions(t *testing.T) {
	p := DefaultPolicy()
	_, excluded := p.Exclude[KindPointer]
	require.True(t, excluded)
	require.False(t, p.Eligible(pointer(1)))
	require.True(t, p.Eligible(hand(1, 0)))

	p.Exclude[KindTip] = struct{}{}
	require.False(t, p.Eligible(tip(1, 1)))
}
