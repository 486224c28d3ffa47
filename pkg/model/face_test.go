package model

import (
	"testing"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frontWindow returns a 1 x 1 window in the front wall of a box at the
// origin, offset by dx along X.
func frontWindow(dx float64) geometry.Face3D {
	return geometry.Rectangle(v(1+dx, 0, 1), geometry.XAxis, geometry.ZAxis)
}

func TestNewFaceDefaults(t *testing.T) {
	wall, err := NewFace("Wall", geometry.Rectangle(v(0, 0, 0), geometry.XAxis, geometry.ZAxis), "", nil)
	require.NoError(t, err)
	assert.Equal(t, Wall, wall.Type())
	assert.IsType(t, Outdoors{}, wall.BoundaryCondition())

	floor, err := NewFace("Floor", geometry.Rectangle(v(0, 0, 0), geometry.YAxis, geometry.XAxis), "", nil)
	require.NoError(t, err)
	assert.Equal(t, Floor, floor.Type())
	assert.IsType(t, Ground{}, floor.BoundaryCondition())

	air, err := NewFace("Air", geometry.Rectangle(v(0, 0, 0), geometry.YAxis, geometry.XAxis), AirBoundary, nil)
	require.NoError(t, err)
	assert.IsType(t, Outdoors{}, air.BoundaryCondition())

	_, err = NewFace("Bad", geometry.Rectangle(v(0, 0, 0), geometry.XAxis, geometry.ZAxis), FaceType("Window"), nil)
	assert.Error(t, err)
}

func TestFaceBoundaryConditionRules(t *testing.T) {
	g := geometry.Rectangle(v(0, 0, 0), geometry.YAxis, geometry.XAxis)

	_, err := NewFace("Air", g, AirBoundary, Ground{})
	assert.ErrorIs(t, err, ErrInvalidBoundaryCondition)

	_, err = NewFace("Self", g, Floor, Surface{Objects: []string{"Self"}})
	assert.ErrorIs(t, err, ErrInvalidBoundaryCondition)

	_, err = NewFace("Empty", g, Floor, Surface{})
	assert.ErrorIs(t, err, ErrInvalidBoundaryCondition)

	_, err = NewFace("TooMany", g, Floor, Surface{Objects: []string{"a", "b", "c", "d"}})
	assert.ErrorIs(t, err, ErrInvalidBoundaryCondition)

	f, err := NewFace("Ok", g, Floor, Surface{Objects: []string{"Other", "OtherRoom"}})
	require.NoError(t, err)
	s, ok := f.BoundaryCondition().(Surface)
	require.True(t, ok)
	assert.Equal(t, "Other", s.Counterpart())

	// The returned condition is a copy.
	s.Objects[0] = "Changed"
	assert.Equal(t, "Other", f.BoundaryCondition().(Surface).Counterpart())

	require.NoError(t, f.SetBoundaryCondition(Adiabatic{}))
	assert.Equal(t, BCAdiabatic, f.BoundaryCondition().Name())
}

func TestSubFaceBoundaryConditionRules(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	front := mustFace(t, r, "A_Front")

	ap, err := NewAperture("Win", frontWindow(0))
	require.NoError(t, err)
	assert.IsType(t, Outdoors{}, ap.BoundaryCondition())
	assert.ErrorIs(t, ap.SetBoundaryCondition(Ground{}), ErrInvalidBoundaryCondition)
	assert.ErrorIs(t, ap.SetBoundaryCondition(Adiabatic{}), ErrInvalidBoundaryCondition)
	require.NoError(t, front.AddAperture(ap))

	assert.ErrorIs(t, front.SetBoundaryCondition(Ground{}), ErrInvalidBoundaryCondition)
	assert.ErrorIs(t, front.SetType(AirBoundary), ErrInvalidBoundaryCondition)
	assert.IsType(t, Outdoors{}, front.BoundaryCondition(), "rejected change leaves the face as it was")

	floor := mustFace(t, r, "A_Bottom")
	d, err := NewDoor("Hatch", geometry.Rectangle(v(1, 1, 0), geometry.YAxis, geometry.XAxis))
	require.NoError(t, err)
	assert.ErrorIs(t, floor.AddDoor(d), ErrInvalidBoundaryCondition, "Ground faces cannot hold doors")
}

func TestAddApertureGeometryRules(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)
	front := mustFace(t, r, "A_Front")

	outside, err := NewAperture("Outside", geometry.Rectangle(v(2.5, 0, 1), geometry.XAxis, geometry.ZAxis))
	require.NoError(t, err)
	assert.ErrorIs(t, front.AddAperture(outside), ErrGeometry)

	offPlane, err := NewAperture("OffPlane", geometry.Rectangle(v(1, 0.5, 1), geometry.XAxis, geometry.ZAxis))
	require.NoError(t, err)
	assert.ErrorIs(t, front.AddAperture(offPlane), ErrGeometry)

	backwards, err := NewAperture("Backwards", frontWindow(0).Flip())
	require.NoError(t, err)
	assert.ErrorIs(t, front.AddAperture(backwards), ErrGeometry)

	first, err := NewAperture("First", frontWindow(0))
	require.NoError(t, err)
	require.NoError(t, front.AddAperture(first))

	overlapping, err := NewAperture("Overlap", frontWindow(0.5))
	require.NoError(t, err)
	assert.ErrorIs(t, front.AddAperture(overlapping), ErrGeometry)

	door, err := NewDoor("Door", geometry.Rectangle(v(0.1, 0, 0.1), v(0.5, 0, 0), v(0, 0, 2)))
	require.NoError(t, err)
	require.NoError(t, front.AddDoor(door))

	assert.Len(t, front.Apertures(), 1)
	assert.Len(t, front.Doors(), 1)
	assert.False(t, m.HasIdentifier("Outside"))
	assert.True(t, m.HasIdentifier("First"))
	assert.True(t, m.HasIdentifier("Door"))
	assert.Same(t, front, first.Parent())
	pf, ok := door.ParentFace()
	require.True(t, ok)
	assert.Same(t, front, pf)

	front.RemoveSubFaces()
	assert.Empty(t, front.Apertures())
	assert.False(t, m.HasIdentifier("First"))
	assert.Nil(t, door.Parent())
}

func TestAirBoundaryRefusesSubFaces(t *testing.T) {
	f, err := NewFace("Air", geometry.Rectangle(v(0, 0, 0), v(3, 0, 0), v(0, 0, 3)), AirBoundary, nil)
	require.NoError(t, err)
	ap, err := NewAperture("Win", frontWindow(0))
	require.NoError(t, err)
	assert.ErrorIs(t, f.AddAperture(ap), ErrInvalidBoundaryCondition)
}

func TestAperturesByRatio(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	front := mustFace(t, r, "A_Front")

	require.NoError(t, front.AperturesByRatio(0.4))
	require.Len(t, front.Apertures(), 1)
	assert.InDelta(t, 0.4, front.ApertureRatio(), 1e-9)
	assert.InDelta(t, 9*0.4, front.ApertureArea(), 1e-9)
	assert.True(t, front.Center().IsEquivalent(front.Apertures()[0].Center(), 1e-9))

	require.NoError(t, front.AperturesByRatio(0.2), "replaces the existing aperture")
	require.Len(t, front.Apertures(), 1)
	assert.InDelta(t, 0.2, front.ApertureRatio(), 1e-9)

	assert.ErrorIs(t, front.AperturesByRatio(1), ErrGeometry)
	assert.ErrorIs(t, front.AperturesByRatio(0), ErrGeometry)
	assert.InDelta(t, 0.2, front.ApertureRatio(), 1e-9, "failed call keeps apertures")

	assert.Error(t, mustFace(t, r, "A_Bottom").AperturesByRatio(0.3), "Ground floor")
	assert.InDelta(t, 9*0.2, r.ExteriorApertureArea(), 1e-9)
}

func TestShades(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)
	front := mustFace(t, r, "A_Front")

	out, err := NewShade("Overhang", geometry.Rectangle(v(0, -1, 3), geometry.XAxis, geometry.YAxis))
	require.NoError(t, err)
	in, err := NewShade("Shelf", geometry.Rectangle(v(0, 0.5, 2), geometry.XAxis, geometry.YAxis))
	require.NoError(t, err)
	require.NoError(t, front.AddOutdoorShade(out))
	require.NoError(t, r.AddIndoorShade(in))

	assert.False(t, out.IsIndoor())
	assert.True(t, in.IsIndoor())
	assert.Len(t, front.Shades(), 1)
	assert.True(t, m.HasIdentifier("Overhang"))
	assert.InDelta(t, 1, out.Area(), 1e-9)

	require.True(t, front.RemoveShade("Overhang"))
	assert.False(t, m.HasIdentifier("Overhang"))

	mesh, err := NewShadeMesh("Tree", &geometry.Mesh3D{
		Vertices: []geometry.Vec3{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0), v(0, 0, 1)},
		Faces:    [][]int{{0, 1, 2, 3}, {0, 1, 4}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, mesh.Area(), 1e-9)
	require.NoError(t, m.AddShadeMesh(mesh))

	_, err = NewShadeMesh("Broken", &geometry.Mesh3D{Vertices: []geometry.Vec3{v(0, 0, 0)}, Faces: [][]int{{0, 1, 2}}})
	assert.ErrorIs(t, err, ErrGeometry)
}
