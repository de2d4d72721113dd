package smath

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LenSqr returns the squared length of v.
func LenSqr(v mgl32.Vec3) float32 {
	return v.Dot(v)
}

// Shape compresses the magnitude of raw to |raw|^exponent while keeping its direction. A zero vector is
// returned unchanged, since it has no direction to normalize.
func Shape(raw mgl32.Vec3, exponent float32) mgl32.Vec3 {
	length := raw.Len()
	if length == 0 {
		return mgl32.Vec3{}
	}
	return raw.Mul(math32.Pow(length, exponent) / length)
}

// Float32ApproxEq determines whether two floating point numbers are close enough to each other
// by a threshold of 1e-5.
func Float32ApproxEq(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-5
}

// Vec3ApproxEq determines whether every component of a and b is within the given threshold.
func Vec3ApproxEq(a, b mgl32.Vec3, threshold float32) bool {
	return math32.Abs(a[0]-b[0]) <= threshold &&
		math32.Abs(a[1]-b[1]) <= threshold &&
		math32.Abs(a[2]-b[2]) <= threshold
}

// Distance returns the distance between two points.
func Distance(a, b mgl32.Vec3) float32 {
	return math32.Sqrt(LenSqr(a.Sub(b)))
}
