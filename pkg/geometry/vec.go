package geometry

import (
	"fmt"
	"math"
)

// Vec3 is a point or vector in model space.
type Vec3 struct {
	X, Y, Z float64
}

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Common axes.
var (
	XAxis = Vec3{X: 1}
	YAxis = Vec3{Y: 1}
	ZAxis = Vec3{Z: 1}
)

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector in the direction of v. The zero vector
// is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// DistanceTo returns the Euclidean distance between two points.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// IsEquivalent reports whether two points coincide within tol.
func (v Vec3) IsEquivalent(o Vec3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// AngleTo returns the angle between two vectors in degrees.
func (v Vec3) AngleTo(o Vec3) float64 {
	d := v.Length() * o.Length()
	if d == 0 {
		return 0
	}
	c := v.Dot(o) / d
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Array returns the coordinates as a 3-element array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Plane is an infinite plane through Origin with unit Normal.
type Plane struct {
	Normal Vec3
	Origin Vec3
}

// NewPlane returns a plane with a normalized normal.
func NewPlane(normal, origin Vec3) Plane {
	return Plane{Normal: normal.Normalize(), Origin: origin}
}

// DistanceTo returns the signed distance from the plane to p.
func (p Plane) DistanceTo(pt Vec3) float64 {
	return pt.Sub(p.Origin).Dot(p.Normal)
}

// Project returns the closest point on the plane to pt.
func (p Plane) Project(pt Vec3) Vec3 {
	return pt.Sub(p.Normal.Scale(p.DistanceTo(pt)))
}

// Transformer maps points of model space. Mirrors reports whether the map
// reverses handedness, in which case polygon winding must be reversed to
// keep normals pointing the same way relative to the geometry.
type Transformer interface {
	Apply(p Vec3) Vec3
	Mirrors() bool
}
