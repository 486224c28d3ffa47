// Package sdfx implements the kernel.Kernel interface on top of the
// github.com/deadsy/sdfx vector and matrix types. Polygon measures work in a
// 2D frame on the polygon's own plane; transforms are sdf.M44 matrices.
package sdfx

import (
	"math"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func toV3(p geometry.Vec3) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func fromV3(p v3.Vec) geometry.Vec3 {
	return geometry.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// newell returns the Newell vector of a loop. Its direction is the loop
// normal and its length is twice the enclosed area.
func newell(loop []geometry.Vec3) v3.Vec {
	var n v3.Vec
	for i := range loop {
		a := toV3(loop[i])
		b := toV3(loop[(i+1)%len(loop)])
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Normal returns the unit normal of the boundary, or the zero vector for
// degenerate polygons.
func (k *SdfxKernel) Normal(f geometry.Face3D) geometry.Vec3 {
	n := newell(f.Boundary)
	if n.Length() == 0 {
		return geometry.Vec3{}
	}
	return fromV3(n.Normalize())
}

// Area returns the boundary area minus the hole areas.
func (k *SdfxKernel) Area(f geometry.Face3D) float64 {
	if len(f.Boundary) < 3 {
		return 0
	}
	area := newell(f.Boundary).Length() / 2
	for _, h := range f.Holes {
		area -= newell(h).Length() / 2
	}
	return math.Max(area, 0)
}

// Centroid returns the area centroid of the face.
func (k *SdfxKernel) Centroid(f geometry.Face3D) geometry.Vec3 {
	if len(f.Boundary) == 0 {
		return geometry.Vec3{}
	}
	fr, ok := frameOf(f)
	if !ok {
		return f.Center()
	}
	cx, cy, a := loopMoments(fr.projectLoop(f.Boundary))
	for _, h := range f.Holes {
		hx, hy, ha := loopMoments(fr.projectLoop(h))
		// Hole moments always subtract from the boundary's.
		if (ha > 0) == (a > 0) {
			hx, hy, ha = -hx, -hy, -ha
		}
		cx, cy, a = cx+hx, cy+hy, a+ha
	}
	if math.Abs(a) < 1e-12 {
		return f.Center()
	}
	return fr.lift(cx/(3*a), cy/(3*a))
}

// Plane returns the plane of the face, anchored at its first vertex.
func (k *SdfxKernel) Plane(f geometry.Face3D) geometry.Plane {
	if len(f.Boundary) == 0 {
		return geometry.Plane{Normal: geometry.ZAxis}
	}
	return geometry.Plane{Normal: k.Normal(f), Origin: f.Boundary[0]}
}

// IsPlanar reports whether every vertex lies within tol of the face plane.
func (k *SdfxKernel) IsPlanar(f geometry.Face3D, tol float64) bool {
	pl := k.Plane(f)
	if pl.Normal == (geometry.Vec3{}) {
		return false
	}
	for _, p := range f.Vertices() {
		if math.Abs(pl.DistanceTo(p)) > tol {
			return false
		}
	}
	return true
}

// IsSelfIntersecting reports whether any two non-adjacent edges of the
// face's loops cross each other.
func (k *SdfxKernel) IsSelfIntersecting(f geometry.Face3D, tol float64) bool {
	fr, ok := frameOf(f)
	if !ok {
		return false
	}
	var edges []segment
	for li, loop := range f.Loops() {
		pts := fr.projectLoop(loop)
		for i := range pts {
			edges = append(edges, segment{a: pts[i], b: pts[(i+1)%len(pts)], loop: li, index: i, size: len(pts)})
		}
	}
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if edges[i].adjacent(edges[j]) {
				continue
			}
			if properIntersect(edges[i].a, edges[i].b, edges[j].a, edges[j].b, tol) {
				return true
			}
		}
	}
	return false
}

// IsCoplanar reports whether b lies in the plane of a. Normals may point
// the same way or opposite ways.
func (k *SdfxKernel) IsCoplanar(a, b geometry.Face3D, tol, angleTol float64) bool {
	na, nb := k.Normal(a), k.Normal(b)
	if na == (geometry.Vec3{}) || nb == (geometry.Vec3{}) {
		return false
	}
	ang := na.AngleTo(nb)
	if ang > angleTol && ang < 180-angleTol {
		return false
	}
	pl := geometry.Plane{Normal: na, Origin: a.Boundary[0]}
	for _, p := range b.Vertices() {
		if math.Abs(pl.DistanceTo(p)) > tol {
			return false
		}
	}
	return true
}

// Contains reports whether inner is coplanar with outer and lies inside its
// boundary and outside its holes, within tol.
func (k *SdfxKernel) Contains(outer, inner geometry.Face3D, tol, angleTol float64) bool {
	if len(inner.Boundary) < 3 || !k.IsCoplanar(outer, inner, tol, angleTol) {
		return false
	}
	fr, ok := frameOf(outer)
	if !ok {
		return false
	}
	ob := fr.projectLoop(outer.Boundary)
	holes := make([][]vec2, len(outer.Holes))
	for i, h := range outer.Holes {
		holes[i] = fr.projectLoop(h)
	}
	ib := fr.projectLoop(inner.Boundary)
	for _, p := range ib {
		if !pointInPolygon(p, ob) && distanceToLoop(p, ob) > tol {
			return false
		}
		for _, h := range holes {
			if pointInPolygon(p, h) && distanceToLoop(p, h) > tol {
				return false
			}
		}
	}
	for i := range ib {
		a, b := ib[i], ib[(i+1)%len(ib)]
		for _, loop := range append([][]vec2{ob}, holes...) {
			for j := range loop {
				if properIntersect(a, b, loop[j], loop[(j+1)%len(loop)], tol) {
					return false
				}
			}
		}
	}
	return true
}

// OverlapArea returns the area shared by two coplanar faces, or zero when
// they are not coplanar.
func (k *SdfxKernel) OverlapArea(a, b geometry.Face3D, tol, angleTol float64) float64 {
	if !k.IsCoplanar(a, b, tol, angleTol) {
		return 0
	}
	fr, ok := frameOf(a)
	if !ok {
		return 0
	}
	ta := triangles2D(fr, a)
	tb := triangles2D(fr, b)
	var total float64
	for _, x := range ta {
		for _, y := range tb {
			total += math.Abs(signedArea(clipConvex(x[:], y[:])))
		}
	}
	return total
}

// Triangulate splits the face into triangles that wind the same way as the
// face boundary. Holes are bridged into the boundary before ear clipping.
func (k *SdfxKernel) Triangulate(f geometry.Face3D) (*geometry.Mesh3D, error) {
	fr, ok := frameOf(f)
	if !ok {
		return nil, errDegenerate
	}
	pts3, pts2 := bridgeHoles(fr, f)
	tris, err := earClip(pts2)
	if err != nil {
		return nil, err
	}
	mesh := &geometry.Mesh3D{Vertices: pts3}
	for _, t := range tris {
		mesh.Faces = append(mesh.Faces, []int{t[0], t[1], t[2]})
	}
	return mesh, nil
}

// Volume returns the signed volume enclosed by the faces. It is positive
// when the faces point outward.
func (k *SdfxKernel) Volume(faces []geometry.Face3D) float64 {
	var total float64
	for _, f := range faces {
		mesh, err := k.Triangulate(f)
		if err != nil {
			continue
		}
		for i := range mesh.Faces {
			vs := mesh.FaceVertices(i)
			a, b, c := toV3(vs[0]), toV3(vs[1]), toV3(vs[2])
			total += a.Dot(b.Cross(c)) / 6
		}
	}
	return total
}
