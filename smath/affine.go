package smath

import "github.com/go-gl/mathgl/mgl32"

// FromScaleRotationTranslation builds an affine matrix that scales, then rotates, then translates.
func FromScaleRotationTranslation(scale mgl32.Vec3, rotation mgl32.Quat, translation mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(translation.X(), translation.Y(), translation.Z()).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// FromRotationTranslation builds a rigid transform with unit scale.
func FromRotationTranslation(rotation mgl32.Quat, translation mgl32.Vec3) mgl32.Mat4 {
	return FromScaleRotationTranslation(mgl32.Vec3{1, 1, 1}, rotation, translation)
}

// TransformPoint transforms a position by the matrix, translation included.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformVector transforms a direction by the matrix, ignoring translation.
func TransformVector(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// Translation returns the translation component of an affine matrix.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// WithTranslation returns m with its translation component replaced by t.
func WithTranslation(m mgl32.Mat4, t mgl32.Vec3) mgl32.Mat4 {
	m.SetCol(3, t.Vec4(1))
	return m
}
