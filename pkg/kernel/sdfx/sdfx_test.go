package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/hbcore/pkg/geometry"
)

const tol = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func square(x0, y0, size, z float64) geometry.Face3D {
	return geometry.Rectangle(geometry.V(x0, y0, z), geometry.V(size, 0, 0), geometry.V(0, size, 0))
}

// unitBox returns the six outward-facing faces of a unit cube.
func unitBox() []geometry.Face3D {
	v := geometry.V
	return []geometry.Face3D{
		{Boundary: []geometry.Vec3{v(0, 0, 0), v(0, 1, 0), v(1, 1, 0), v(1, 0, 0)}},
		{Boundary: []geometry.Vec3{v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1)}},
		{Boundary: []geometry.Vec3{v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1)}},
		{Boundary: []geometry.Vec3{v(0, 1, 0), v(0, 1, 1), v(1, 1, 1), v(1, 1, 0)}},
		{Boundary: []geometry.Vec3{v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), v(0, 1, 0)}},
		{Boundary: []geometry.Vec3{v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1)}},
	}
}

func TestMeasures(t *testing.T) {
	k := New()
	f := geometry.Rectangle(geometry.V(0, 0, 0), geometry.V(4, 0, 0), geometry.V(0, 2, 0))

	if got := k.Area(f); !approx(got, 8) {
		t.Errorf("Area = %v, want 8", got)
	}
	if got := k.Normal(f); got != geometry.ZAxis {
		t.Errorf("Normal = %v, want +Z", got)
	}
	if got := k.Centroid(f); !got.IsEquivalent(geometry.V(2, 1, 0), tol) {
		t.Errorf("Centroid = %v, want (2, 1, 0)", got)
	}
	if got := k.Normal(f.Flip()); got != geometry.ZAxis.Neg() {
		t.Errorf("flipped Normal = %v, want -Z", got)
	}
	if !k.IsPlanar(f, tol) {
		t.Error("rectangle should be planar")
	}
}

func TestAreaAndCentroidWithHole(t *testing.T) {
	k := New()
	outer := square(0, 0, 4, 0)
	hole := square(0, 0, 2, 0).Flip()
	f := geometry.NewFace3D(outer.Boundary, hole.Boundary)

	if got := k.Area(f); !approx(got, 12) {
		t.Errorf("Area = %v, want 12", got)
	}
	// Removing the lower-left quarter pulls the centroid up and right.
	c := k.Centroid(f)
	want := (2.0*16 - 1.0*4) / 12
	if !approx(c.X, want) || !approx(c.Y, want) {
		t.Errorf("Centroid = %v, want (%v, %v)", c, want, want)
	}
}

func TestDegenerateFace(t *testing.T) {
	k := New()
	line := geometry.Face3D{Boundary: []geometry.Vec3{geometry.V(0, 0, 0), geometry.V(1, 0, 0), geometry.V(2, 0, 0)}}
	if got := k.Area(line); got != 0 {
		t.Errorf("Area = %v, want 0", got)
	}
	if k.IsPlanar(line, tol) {
		t.Error("collinear points should not report a plane")
	}
	if _, err := k.Triangulate(line); err == nil {
		t.Error("Triangulate should fail on a degenerate face")
	}
}

func TestNonPlanar(t *testing.T) {
	k := New()
	f := geometry.Face3D{Boundary: []geometry.Vec3{
		geometry.V(0, 0, 0), geometry.V(1, 0, 0), geometry.V(1, 1, 0.5), geometry.V(0, 1, 0),
	}}
	if k.IsPlanar(f, 0.01) {
		t.Error("warped quad should not be planar")
	}
}

func TestIsSelfIntersecting(t *testing.T) {
	k := New()
	crossed := geometry.Face3D{Boundary: []geometry.Vec3{
		geometry.V(0, 0, 0), geometry.V(2, 0, 0), geometry.V(0, 1, 0), geometry.V(1, -1, 0),
	}}
	if !k.IsSelfIntersecting(crossed, tol) {
		t.Error("crossed polygon should self-intersect")
	}
	if k.IsSelfIntersecting(square(0, 0, 1, 0), tol) {
		t.Error("square should not self-intersect")
	}
}

func TestTransforms(t *testing.T) {
	k := New()
	p := geometry.V(1, 0, 0)

	tests := []struct {
		name   string
		xf     geometry.Transformer
		want   geometry.Vec3
		mirror bool
	}{
		{"translation", k.Translation(geometry.V(1, 2, 3)), geometry.V(2, 2, 3), false},
		{"rotation about z", k.Rotation(geometry.ZAxis, 90, geometry.Vec3{}), geometry.V(0, 1, 0), false},
		{"rotation about offset axis", k.Rotation(geometry.ZAxis, 180, geometry.V(2, 0, 0)), geometry.V(3, 0, 0), false},
		{"rotation xy", k.RotationXY(-90, geometry.Vec3{}), geometry.V(0, -1, 0), false},
		{"reflection", k.Reflection(geometry.XAxis, geometry.V(2, 0, 0)), geometry.V(3, 0, 0), true},
		{"scaling", k.Scaling(3, geometry.V(0, 0, 0)), geometry.V(3, 0, 0), false},
		{"scaling about origin", k.Scaling(2, geometry.V(2, 0, 0)), geometry.V(0, 0, 0), false},
		{"negative scaling", k.Scaling(-1, geometry.Vec3{}), geometry.V(-1, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.xf.Apply(p); !got.IsEquivalent(tt.want, tol) {
				t.Errorf("Apply(%v) = %v, want %v", p, got, tt.want)
			}
			if tt.xf.Mirrors() != tt.mirror {
				t.Errorf("Mirrors() = %v, want %v", tt.xf.Mirrors(), tt.mirror)
			}
		})
	}
}

func TestReflectionKeepsNormalRelative(t *testing.T) {
	k := New()
	f := square(0, 0, 1, 1)
	mirrored := f.Transform(k.Reflection(geometry.ZAxis, geometry.Vec3{}))
	// A face above the mirror facing up ends below it facing down.
	if got := k.Normal(mirrored); !got.IsEquivalent(geometry.ZAxis.Neg(), tol) {
		t.Errorf("mirrored normal = %v, want -Z", got)
	}
	if !approx(mirrored.Boundary[0].Z, -1) {
		t.Errorf("mirrored z = %v, want -1", mirrored.Boundary[0].Z)
	}
}

func TestIsCoplanar(t *testing.T) {
	k := New()
	a := square(0, 0, 2, 0)

	if !k.IsCoplanar(a, square(5, 5, 1, 0), tol, 1) {
		t.Error("faces in the same plane should be coplanar")
	}
	if !k.IsCoplanar(a, square(5, 5, 1, 0).Flip(), tol, 1) {
		t.Error("opposite normals in the same plane should be coplanar")
	}
	if k.IsCoplanar(a, square(0, 0, 2, 0.5), tol, 1) {
		t.Error("offset plane should not be coplanar")
	}
}

func TestContains(t *testing.T) {
	k := New()
	outer := square(0, 0, 4, 0)
	withHole := geometry.NewFace3D(outer.Boundary, square(1, 1, 2, 0).Flip().Boundary)

	tests := []struct {
		name  string
		outer geometry.Face3D
		inner geometry.Face3D
		want  bool
	}{
		{"inside", outer, square(1, 1, 1, 0), true},
		{"touching boundary", outer, square(0, 0, 1, 0), true},
		{"sticking out", outer, square(3, 3, 2, 0), false},
		{"other plane", outer, square(1, 1, 1, 1), false},
		{"inside hole", withHole, square(1.5, 1.5, 0.5, 0), false},
		{"beside hole", withHole, square(0, 0, 0.5, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Contains(tt.outer, tt.inner, 0.01, 1); got != tt.want {
				t.Errorf("Contains = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlapArea(t *testing.T) {
	k := New()
	a := square(0, 0, 2, 0)
	b := square(1, 1, 2, 0).Flip()

	if got := k.OverlapArea(a, b, tol, 1); !approx(got, 1) {
		t.Errorf("OverlapArea = %v, want 1", got)
	}
	if got := k.OverlapArea(a, square(5, 5, 1, 0), tol, 1); got > tol {
		t.Errorf("disjoint OverlapArea = %v, want 0", got)
	}
	if got := k.OverlapArea(a, a.Flip(), tol, 1); !approx(got, 4) {
		t.Errorf("identical OverlapArea = %v, want 4", got)
	}
}

func TestTriangulate(t *testing.T) {
	k := New()
	f := geometry.NewFace3D(square(0, 0, 4, 0).Boundary, square(1, 1, 2, 0).Flip().Boundary)

	mesh, err := k.Triangulate(f)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	var total float64
	for i := range mesh.Faces {
		tri := geometry.Face3D{Boundary: mesh.FaceVertices(i)}
		if n := k.Normal(tri); !n.IsEquivalent(geometry.ZAxis, tol) {
			t.Errorf("triangle %d normal = %v, want +Z", i, n)
		}
		total += k.Area(tri)
	}
	if !approx(total, 12) {
		t.Errorf("triangle area sum = %v, want 12", total)
	}
}

func TestClosedSolid(t *testing.T) {
	k := New()
	box := unitBox()

	if !k.IsClosed(box, tol) {
		t.Error("unit box should be closed")
	}
	if !k.IsConsistentlyOriented(box, tol) {
		t.Error("unit box should be consistently oriented")
	}
	if got := k.Volume(box); !approx(got, 1) {
		t.Errorf("Volume = %v, want 1", got)
	}

	open := box[:5]
	if k.IsClosed(open, tol) {
		t.Error("box without a side should not be closed")
	}

	flipped := append([]geometry.Face3D(nil), box...)
	flipped[0] = flipped[0].Flip()
	if k.IsConsistentlyOriented(flipped, tol) {
		t.Error("box with one reversed face should be inconsistent")
	}

	inward := make([]geometry.Face3D, len(box))
	for i, f := range box {
		inward[i] = f.Flip()
	}
	if got := k.Volume(inward); !approx(got, -1) {
		t.Errorf("inward Volume = %v, want -1", got)
	}
}

func TestClosedSolidWithSplitFace(t *testing.T) {
	k := New()
	box := unitBox()
	v := geometry.V
	// Replace the top with two halves; the side edges meet them at T-junctions.
	split := append([]geometry.Face3D(nil), box[0])
	split = append(split,
		geometry.Face3D{Boundary: []geometry.Vec3{v(0, 0, 1), v(0.5, 0, 1), v(0.5, 1, 1), v(0, 1, 1)}},
		geometry.Face3D{Boundary: []geometry.Vec3{v(0.5, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0.5, 1, 1)}},
	)
	split = append(split, box[2:]...)
	if !k.IsClosed(split, tol) {
		t.Error("box with split top should still be closed")
	}
}
