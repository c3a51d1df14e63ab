package formats

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// Axis mirroring parameters. Presence of the key mirrors the axis.
const (
	ParamFlipX = "flipX"
	ParamFlipY = "flipY"
	ParamFlipZ = "flipZ"
)

// mirror negates selected axes of positions and normals.
type mirror struct {
	m mgl32.Mat4
}

// newMirror builds the mirror transform selected by params.
func newMirror(params Params) mirror {
	return mirror{m: mgl32.Scale3D(
		axisSign(params, ParamFlipX),
		axisSign(params, ParamFlipY),
		axisSign(params, ParamFlipZ),
	)}
}

func axisSign(params Params, key string) float32 {
	if params.Has(key) {
		return -1
	}
	return 1
}

// flipOrder reports whether an odd number of axes is mirrored, in which case
// triangle winding must be reversed.
func (mr mirror) flipOrder() bool {
	return mr.m.Det() < 0
}

func (mr mirror) position(v geometry.Vector3D) geometry.Vector3D {
	return geometry.FromVec3(mgl32.TransformCoordinate(v.Vec3(), mr.m))
}

func (mr mirror) normal(v geometry.Vector3D) geometry.Vector3D {
	return geometry.FromVec3(mgl32.TransformNormal(v.Vec3(), mr.m))
}
