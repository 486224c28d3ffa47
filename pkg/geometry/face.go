package geometry

import "math"

// Face3D is a planar polygon described by an outer boundary and optional
// holes. Boundary vertices wind counterclockwise when viewed from the side
// the face normal points to; holes wind the opposite way.
type Face3D struct {
	Boundary []Vec3
	Holes    [][]Vec3
}

// NewFace3D copies the given loops into a new Face3D.
func NewFace3D(boundary []Vec3, holes ...[]Vec3) Face3D {
	f := Face3D{Boundary: append([]Vec3(nil), boundary...)}
	for _, h := range holes {
		f.Holes = append(f.Holes, append([]Vec3(nil), h...))
	}
	return f
}

// Rectangle returns a rectangular face with one corner at origin spanned by
// the edge vectors u and v.
func Rectangle(origin, u, v Vec3) Face3D {
	return Face3D{Boundary: []Vec3{
		origin,
		origin.Add(u),
		origin.Add(u).Add(v),
		origin.Add(v),
	}}
}

// Clone returns a deep copy of f.
func (f Face3D) Clone() Face3D {
	return NewFace3D(f.Boundary, f.Holes...)
}

// HasHoles reports whether the face has at least one hole.
func (f Face3D) HasHoles() bool {
	return len(f.Holes) > 0
}

// Vertices returns the boundary vertices followed by all hole vertices.
func (f Face3D) Vertices() []Vec3 {
	out := append([]Vec3(nil), f.Boundary...)
	for _, h := range f.Holes {
		out = append(out, h...)
	}
	return out
}

// Loops returns the boundary followed by each hole.
func (f Face3D) Loops() [][]Vec3 {
	loops := make([][]Vec3, 0, 1+len(f.Holes))
	loops = append(loops, f.Boundary)
	return append(loops, f.Holes...)
}

// Flip returns the face with reversed winding, which flips its normal.
func (f Face3D) Flip() Face3D {
	out := Face3D{Boundary: reversed(f.Boundary)}
	for _, h := range f.Holes {
		out.Holes = append(out.Holes, reversed(h))
	}
	return out
}

// Transform applies t to every vertex. Mirroring transforms also reverse
// the winding so the face keeps facing the same side of its geometry.
func (f Face3D) Transform(t Transformer) Face3D {
	out := Face3D{Boundary: transformLoop(f.Boundary, t)}
	for _, h := range f.Holes {
		out.Holes = append(out.Holes, transformLoop(h, t))
	}
	if t.Mirrors() {
		return out.Flip()
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the boundary.
func (f Face3D) Bounds() (min, max Vec3) {
	return bounds(f.Boundary)
}

// Center returns the center of the bounding box.
func (f Face3D) Center() Vec3 {
	lo, hi := f.Bounds()
	return lo.Add(hi).Scale(0.5)
}

// Perimeter returns the total length of all loops.
func (f Face3D) Perimeter() float64 {
	var total float64
	for _, loop := range f.Loops() {
		for i := range loop {
			total += loop[i].DistanceTo(loop[(i+1)%len(loop)])
		}
	}
	return total
}

// IsEquivalent reports whether two faces have the same vertices in the same
// cyclic order within tol. The starting vertex may differ.
func (f Face3D) IsEquivalent(o Face3D, tol float64) bool {
	if len(f.Holes) != len(o.Holes) {
		return false
	}
	if !loopEquivalent(f.Boundary, o.Boundary, tol) {
		return false
	}
	for i := range f.Holes {
		if !loopEquivalent(f.Holes[i], o.Holes[i], tol) {
			return false
		}
	}
	return true
}

// Mesh3D is an indexed polygon mesh. Each face lists 3 or 4 vertex indices.
type Mesh3D struct {
	Vertices []Vec3
	Faces    [][]int
}

// Clone returns a deep copy of m.
func (m *Mesh3D) Clone() *Mesh3D {
	out := &Mesh3D{Vertices: append([]Vec3(nil), m.Vertices...)}
	for _, f := range m.Faces {
		out.Faces = append(out.Faces, append([]int(nil), f...))
	}
	return out
}

// Transform applies t to every vertex, reversing face winding for mirrors.
func (m *Mesh3D) Transform(t Transformer) *Mesh3D {
	out := &Mesh3D{Vertices: transformLoop(m.Vertices, t)}
	for _, f := range m.Faces {
		idx := append([]int(nil), f...)
		if t.Mirrors() {
			for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
		out.Faces = append(out.Faces, idx)
	}
	return out
}

// FaceVertices returns the vertex positions of face i.
func (m *Mesh3D) FaceVertices(i int) []Vec3 {
	out := make([]Vec3, len(m.Faces[i]))
	for j, idx := range m.Faces[i] {
		out[j] = m.Vertices[idx]
	}
	return out
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh3D) Bounds() (min, max Vec3) {
	return bounds(m.Vertices)
}

func reversed(loop []Vec3) []Vec3 {
	out := make([]Vec3, len(loop))
	for i, p := range loop {
		out[len(loop)-1-i] = p
	}
	return out
}

func transformLoop(loop []Vec3, t Transformer) []Vec3 {
	out := make([]Vec3, len(loop))
	for i, p := range loop {
		out[i] = t.Apply(p)
	}
	return out
}

func bounds(pts []Vec3) (min, max Vec3) {
	if len(pts) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		min = Vec3{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = Vec3{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max
}

func loopEquivalent(a, b []Vec3, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	for shift := range b {
		if !a[0].IsEquivalent(b[shift], tol) {
			continue
		}
		match := true
		for i := range a {
			if !a[i].IsEquivalent(b[(i+shift)%len(b)], tol) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
