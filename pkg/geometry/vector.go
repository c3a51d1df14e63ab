// Package geometry provides the mesh data model shared by all model codecs.
package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Tolerance is the absolute epsilon used by every ApproxEqual method.
const Tolerance float32 = 1e-3

// approxEqual reports whether a and b differ by at most Tolerance.
func approxEqual(a, b float32) bool {
	return math32.Abs(a-b) <= Tolerance
}

// Vector3D is a 3D vector used for both positions and normals.
type Vector3D struct {
	X, Y, Z float32
}

// Vec3 converts v to an mgl32 vector.
func (v Vector3D) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// FromVec3 converts an mgl32 vector to a Vector3D.
func FromVec3(v mgl32.Vec3) Vector3D {
	return Vector3D{X: v[0], Y: v[1], Z: v[2]}
}

// ApproxEqual reports whether every component of v is within Tolerance of other.
func (v Vector3D) ApproxEqual(other Vector3D) bool {
	return approxEqual(v.X, other.X) && approxEqual(v.Y, other.Y) && approxEqual(v.Z, other.Z)
}

// TexCoord is a texture coordinate.
type TexCoord struct {
	U, V float32
}

// ApproxEqual reports whether both components of t are within Tolerance of other.
func (t TexCoord) ApproxEqual(other TexCoord) bool {
	return approxEqual(t.U, other.U) && approxEqual(t.V, other.V)
}

// Color is an RGBA color.
type Color [4]float32

// ApproxEqual reports whether every channel of c is within Tolerance of other.
func (c Color) ApproxEqual(other Color) bool {
	for i := range c {
		if !approxEqual(c[i], other[i]) {
			return false
		}
	}
	return true
}
