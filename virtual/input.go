package virtual

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/input"
)

// HandSample returns a hand with its palm at palm and the given grab strength. Thumb and index tips are kept
// far apart so the hand never pinches.
func HandSample(id uint64, palm mgl32.Vec3, grab float32) input.Sample {
	return input.Sample{
		ID:   id,
		Kind: input.KindHand,
		Hand: &input.Hand{
			Palm:     input.Joint{Position: palm, Orientation: mgl32.QuatIdent()},
			ThumbTip: input.Joint{Position: palm.Add(mgl32.Vec3{-0.05, 0, 0}), Orientation: mgl32.QuatIdent()},
			IndexTip: input.Joint{Position: palm.Add(mgl32.Vec3{0.05, 0, 0}), Orientation: mgl32.QuatIdent()},
		},
		Data: input.Datamap{input.KeyGrabStrength: grab},
	}
}

// Drag scripts a hand that closes at from, moves to to in a straight line over the given amount of frames and
// then opens. The result holds the samples of each frame, frames+2 in total.
func Drag(id uint64, from, to mgl32.Vec3, frames int) [][]input.Sample {
	script := make([][]input.Sample, 0, frames+2)
	script = append(script, []input.Sample{HandSample(id, from, 1)})
	for i := 1; i <= frames; i++ {
		t := float32(i) / float32(frames)
		pos := from.Add(to.Sub(from).Mul(t))
		script = append(script, []input.Sample{HandSample(id, pos, 1)})
	}
	return append(script, []input.Sample{HandSample(id, to, 0)})
}
