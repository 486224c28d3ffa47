package sdfx

import (
	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// matrixTransform applies an affine sdf.M44 to points.
type matrixTransform struct {
	m      sdf.M44
	mirror bool
}

func (t matrixTransform) Apply(p geometry.Vec3) geometry.Vec3 {
	return fromV3(t.m.MulPosition(toV3(p)))
}

func (t matrixTransform) Mirrors() bool {
	return t.mirror
}

// about conjugates m so it acts around origin instead of the world origin.
func about(m sdf.M44, origin geometry.Vec3) sdf.M44 {
	o := toV3(origin)
	return sdf.Translate3d(o).Mul(m).Mul(sdf.Translate3d(o.MulScalar(-1)))
}

// Translation moves points by v.
func (k *SdfxKernel) Translation(v geometry.Vec3) geometry.Transformer {
	return matrixTransform{m: sdf.Translate3d(toV3(v))}
}

// Rotation rotates points counterclockwise by angle degrees around an axis
// through origin.
func (k *SdfxKernel) Rotation(axis geometry.Vec3, angle float64, origin geometry.Vec3) geometry.Transformer {
	r := sdf.Rotate3d(toV3(axis).Normalize(), radians(angle))
	return matrixTransform{m: about(r, origin)}
}

// RotationXY rotates points counterclockwise by angle degrees in the XY
// plane around origin.
func (k *SdfxKernel) RotationXY(angle float64, origin geometry.Vec3) geometry.Transformer {
	return matrixTransform{m: about(sdf.RotateZ(radians(angle)), origin)}
}

// Scaling scales points uniformly by factor around origin. A negative
// factor inverts through origin and mirrors.
func (k *SdfxKernel) Scaling(factor float64, origin geometry.Vec3) geometry.Transformer {
	s := sdf.Scale3d(v3.Vec{X: factor, Y: factor, Z: factor})
	return matrixTransform{m: about(s, origin), mirror: factor < 0}
}

// reflection mirrors points across a plane.
type reflection struct {
	n, o v3.Vec
}

func (r reflection) Apply(p geometry.Vec3) geometry.Vec3 {
	q := toV3(p)
	d := q.Sub(r.o).Dot(r.n)
	return fromV3(q.Sub(r.n.MulScalar(2 * d)))
}

func (r reflection) Mirrors() bool {
	return true
}

// Reflection mirrors points across the plane with the given normal through
// origin.
func (k *SdfxKernel) Reflection(normal, origin geometry.Vec3) geometry.Transformer {
	return reflection{n: toV3(normal).Normalize(), o: toV3(origin)}
}
