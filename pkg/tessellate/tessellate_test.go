package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/kernel"
	"github.com/chazu/hbcore/pkg/kernel/sdfx"
	"github.com/chazu/hbcore/pkg/model"
	"github.com/chazu/hbcore/pkg/tessellate"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New()
}

// newOffice returns a model with one 4 x 5 x 3 room whose front wall has a
// single aperture.
func newOffice(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.NewModel("Office_Model")
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	r, err := model.NewRoomFromBox("Office", 4, 5, 3, 0, geometry.V(0, 0, 0))
	if err != nil {
		t.Fatalf("NewRoomFromBox: %v", err)
	}
	if err := m.AddRoom(r); err != nil {
		t.Fatalf("AddRoom: %v", err)
	}
	front, _ := r.Face("Office_Front")
	if err := front.AperturesByRatio(0.25); err != nil {
		t.Fatalf("AperturesByRatio: %v", err)
	}
	return m
}

// meshArea sums the triangle areas of a flat mesh.
func meshArea(m *kernel.Mesh) float64 {
	var total float64
	for i := 0; i < len(m.Indices); i += 3 {
		p := func(k int) geometry.Vec3 {
			j := int(m.Indices[i+k]) * 3
			return geometry.V(float64(m.Vertices[j]), float64(m.Vertices[j+1]), float64(m.Vertices[j+2]))
		}
		a, b, c := p(0), p(1), p(2)
		total += b.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	return total
}

func byID(meshes []*kernel.Mesh) map[string]*kernel.Mesh {
	out := make(map[string]*kernel.Mesh, len(meshes))
	for _, m := range meshes {
		out[m.Identifier] = m
	}
	return out
}

func TestOneMeshPerObject(t *testing.T) {
	meshes, err := tessellate.Tessellate(newOffice(t), newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 7 {
		t.Fatalf("expected 7 meshes, got %d", len(meshes))
	}

	got := byID(meshes)
	for _, id := range []string{"Office_Bottom", "Office_Front", "Office_Right", "Office_Back", "Office_Left", "Office_Top"} {
		m, ok := got[id]
		if !ok {
			t.Errorf("missing mesh for %s", id)
			continue
		}
		if m.ObjectType != model.KindFace {
			t.Errorf("%s: ObjectType = %q", id, m.ObjectType)
		}
		if m.TriangleCount() != 2 {
			t.Errorf("%s: expected 2 triangles, got %d", id, m.TriangleCount())
		}
	}
	ap := got["Office_Front_Glz0"]
	if ap == nil || ap.ObjectType != model.KindAperture {
		t.Fatalf("missing aperture mesh")
	}
	if a := meshArea(ap); math.Abs(a-3) > 1e-4 {
		t.Errorf("aperture area = %g, want 3", a)
	}
}

func TestNormalsPointOutward(t *testing.T) {
	meshes, err := tessellate.Tessellate(newOffice(t), newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	want := map[string][3]float32{
		"Office_Bottom": {0, 0, -1},
		"Office_Top":    {0, 0, 1},
		"Office_Front":  {0, -1, 0},
		"Office_Back":   {0, 1, 0},
		"Office_Right":  {1, 0, 0},
		"Office_Left":   {-1, 0, 0},
	}
	for id, m := range byID(meshes) {
		w, ok := want[id]
		if !ok {
			continue
		}
		for i := 0; i < len(m.Normals); i += 3 {
			for c := 0; c < 3; c++ {
				if math.Abs(float64(m.Normals[i+c]-w[c])) > 1e-5 {
					t.Fatalf("%s: normal %v, want %v", id, m.Normals[i:i+3], w)
				}
			}
		}
	}
}

func TestPunchedFaces(t *testing.T) {
	m := newOffice(t)
	meshes, err := tessellate.Tessellate(m, newKernel(), tessellate.Options{Punched: true})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	front := byID(meshes)["Office_Front"]
	if front == nil {
		t.Fatal("missing front wall mesh")
	}
	if a := meshArea(front); math.Abs(a-9) > 1e-4 {
		t.Errorf("punched wall area = %g, want 12 - 3", a)
	}

	f, _ := m.FindByID("Office_Front")
	if got := len(f.(*model.Face).Geometry().Holes); got != 0 {
		t.Errorf("tessellation must not modify the face, got %d holes", got)
	}
}

func TestShadesAndShadeMeshes(t *testing.T) {
	m := newOffice(t)
	s, err := model.NewShade("Canopy", geometry.Rectangle(geometry.V(0, -2, 3), geometry.V(4, 0, 0), geometry.V(0, 2, 0)))
	if err != nil {
		t.Fatalf("NewShade: %v", err)
	}
	if err := m.AddOrphanedShade(s); err != nil {
		t.Fatalf("AddOrphanedShade: %v", err)
	}
	terrain, err := model.NewShadeMesh("Terrain", &geometry.Mesh3D{
		Vertices: []geometry.Vec3{geometry.V(-10, -10, 0), geometry.V(10, -10, 0), geometry.V(10, 10, 0), geometry.V(-10, 10, 0)},
		Faces:    [][]int{{0, 1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("NewShadeMesh: %v", err)
	}
	if err := m.AddShadeMesh(terrain); err != nil {
		t.Fatalf("AddShadeMesh: %v", err)
	}

	k := newKernel()
	meshes, err := tessellate.Tessellate(m, k, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	got := byID(meshes)
	if got["Canopy"] == nil || got["Canopy"].ObjectType != model.KindShade {
		t.Error("missing shade mesh")
	}
	tm := got["Terrain"]
	if tm == nil {
		t.Fatal("missing terrain mesh")
	}
	if tm.TriangleCount() != 2 {
		t.Errorf("quad should split into 2 triangles, got %d", tm.TriangleCount())
	}
	if a := meshArea(tm); math.Abs(a-400) > 1e-3 {
		t.Errorf("terrain area = %g, want 400", a)
	}

	meshes, err = tessellate.Tessellate(m, k, tessellate.Options{SkipShades: true})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 7 {
		t.Errorf("expected 7 meshes without shades, got %d", len(meshes))
	}
}

func TestMerge(t *testing.T) {
	meshes, err := tessellate.Tessellate(newOffice(t), newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	merged := tessellate.Merge(meshes)
	var tris, verts int
	for _, m := range meshes {
		tris += m.TriangleCount()
		verts += m.VertexCount()
	}
	if merged.TriangleCount() != tris || merged.VertexCount() != verts {
		t.Errorf("merged mesh has %d triangles and %d vertices, want %d and %d",
			merged.TriangleCount(), merged.VertexCount(), tris, verts)
	}
	for _, i := range merged.Indices {
		if int(i) >= merged.VertexCount() {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestNilModel(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}
}
