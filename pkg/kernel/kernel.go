// Package kernel defines the geometry kernel interface consumed by the
// object model. Implementations (sdfx) provide polygon measures, spatial
// relations, and affine transforms behind this interface so the model never
// touches a geometry library directly.
package kernel

import "github.com/chazu/hbcore/pkg/geometry"

// Kernel is the geometry kernel interface. Angles are in degrees. Tolerances
// are absolute distances in model units.
type Kernel interface {
	// Measures
	Normal(f geometry.Face3D) geometry.Vec3
	Area(f geometry.Face3D) float64
	Centroid(f geometry.Face3D) geometry.Vec3
	Plane(f geometry.Face3D) geometry.Plane
	IsPlanar(f geometry.Face3D, tol float64) bool
	IsSelfIntersecting(f geometry.Face3D, tol float64) bool

	// Relations
	IsCoplanar(a, b geometry.Face3D, tol, angleTol float64) bool
	Contains(outer, inner geometry.Face3D, tol, angleTol float64) bool
	OverlapArea(a, b geometry.Face3D, tol, angleTol float64) float64

	// Transforms
	Translation(v geometry.Vec3) geometry.Transformer
	Rotation(axis geometry.Vec3, angle float64, origin geometry.Vec3) geometry.Transformer
	RotationXY(angle float64, origin geometry.Vec3) geometry.Transformer
	Reflection(normal, origin geometry.Vec3) geometry.Transformer
	Scaling(factor float64, origin geometry.Vec3) geometry.Transformer

	// Solids and meshes
	IsClosed(faces []geometry.Face3D, tol float64) bool
	IsConsistentlyOriented(faces []geometry.Face3D, tol float64) bool
	Volume(faces []geometry.Face3D) float64
	Triangulate(f geometry.Face3D) (*geometry.Mesh3D, error)
}
