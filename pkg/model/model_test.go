package model

import (
	"math"
	"os"
	"testing"

	"github.com/chazu/hbcore/pkg/extension"
	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type energyProps struct {
	Construction string `json:"construction"`
}

func TestMain(m *testing.M) {
	extension.MustRegister("energy", extension.JSONCodec[energyProps]{
		Default: func(host string) energyProps { return energyProps{Construction: "Generic " + host} },
	})
	os.Exit(m.Run())
}

func v(x, y, z float64) geometry.Vec3 { return geometry.V(x, y, z) }

// newBox returns a 3 x 3 x 3 room with its corner at origin.
func newBox(t *testing.T, id string, origin geometry.Vec3) *Room {
	t.Helper()
	r, err := NewRoomFromBox(id, 3, 3, 3, 0, origin)
	require.NoError(t, err)
	return r
}

func newModel(t *testing.T, rooms ...*Room) *Model {
	t.Helper()
	m, err := NewModel("TestModel")
	require.NoError(t, err)
	for _, r := range rooms {
		require.NoError(t, m.AddRoom(r))
	}
	return m
}

func mustFace(t *testing.T, r *Room, id string) *Face {
	t.Helper()
	f, ok := r.Face(id)
	require.True(t, ok, "face %s", id)
	return f
}

func TestNewRoomFromBox(t *testing.T) {
	r := newBox(t, "Office", v(0, 0, 0))

	faces := r.Faces()
	require.Len(t, faces, 6)
	wantTypes := map[string]FaceType{
		"Office_Bottom": Floor,
		"Office_Front":  Wall,
		"Office_Right":  Wall,
		"Office_Back":   Wall,
		"Office_Left":   Wall,
		"Office_Top":    RoofCeiling,
	}
	for _, f := range faces {
		assert.Equal(t, wantTypes[f.Identifier()], f.Type(), f.Identifier())
		assert.Same(t, r, f.Parent())
	}

	assert.True(t, r.IsSolid())
	assert.InDelta(t, 27, r.Volume(), 1e-9)
	assert.InDelta(t, 9, r.FloorArea(), 1e-9)
	assert.IsType(t, Ground{}, mustFace(t, r, "Office_Bottom").BoundaryCondition())
	assert.IsType(t, Outdoors{}, mustFace(t, r, "Office_Front").BoundaryCondition())
	assert.Equal(t, 1, r.Multiplier)

	_, err := NewRoomFromBox("Bad", 0, 3, 3, 0, v(0, 0, 0))
	assert.ErrorIs(t, err, ErrGeometry)
}

func TestBoxOrientation(t *testing.T) {
	r, err := NewRoomFromBox("Rotated", 4, 2, 3, 90, v(0, 0, 0))
	require.NoError(t, err)
	assert.True(t, r.IsSolid())
	assert.InDelta(t, 24, r.Volume(), 1e-9)

	az, ok := mustFace(t, r, "Rotated_Front").Azimuth(0)
	require.True(t, ok)
	assert.InDelta(t, 270, az, 1e-6)
}

func TestInvalidIdentifiers(t *testing.T) {
	_, err := NewModel("bad id")
	assert.ErrorIs(t, err, ident.ErrInvalidIdentifier)

	_, err = NewShade("", geometry.Rectangle(v(0, 0, 0), geometry.XAxis, geometry.YAxis))
	assert.ErrorIs(t, err, ident.ErrInvalidIdentifier)

	_, err = NewRoomFromBox("room/1", 1, 1, 1, 0, v(0, 0, 0))
	assert.ErrorIs(t, err, ident.ErrInvalidIdentifier)
}

func TestTooFewVertices(t *testing.T) {
	_, err := NewFace("Line", geometry.NewFace3D([]geometry.Vec3{v(0, 0, 0), v(1, 0, 0)}), Wall, nil)
	assert.ErrorIs(t, err, ErrGeometry)
}

func TestRoomRejectsRepeatedFaceIdentifiers(t *testing.T) {
	g := geometry.Rectangle(v(0, 0, 0), geometry.XAxis, geometry.ZAxis)
	a, err := NewFace("Same", g, "", nil)
	require.NoError(t, err)
	b, err := NewFace("Same", g, "", nil)
	require.NoError(t, err)

	_, err = NewRoom("Room", []*Face{a, b})
	assert.ErrorIs(t, err, ident.ErrDuplicateIdentifier)
	assert.Nil(t, a.Parent(), "failed construction must not adopt faces")
}

func TestModelRejectsDuplicateIdentifier(t *testing.T) {
	m := newModel(t, newBox(t, "A", v(0, 0, 0)))

	clash, err := NewFace("A_Top", geometry.Rectangle(v(0, 0, 5), geometry.XAxis, geometry.YAxis), "", nil)
	require.NoError(t, err)
	fresh, err := NewFace("C_Other", geometry.Rectangle(v(0, 0, 6), geometry.XAxis, geometry.YAxis), "", nil)
	require.NoError(t, err)
	c, err := NewRoom("C", []*Face{fresh, clash})
	require.NoError(t, err)

	err = m.AddRoom(c)
	require.ErrorIs(t, err, ident.ErrDuplicateIdentifier)
	assert.Len(t, m.Rooms(), 1)
	assert.False(t, m.HasIdentifier("C"))
	assert.False(t, m.HasIdentifier("C_Other"))
	assert.Nil(t, c.Parent())

	// The same id in a nested position is also rejected.
	sh, err := NewShade("A_Front", geometry.Rectangle(v(0, -1, 3), geometry.XAxis, geometry.YAxis))
	require.NoError(t, err)
	require.ErrorIs(t, m.AddOrphanedShade(sh), ident.ErrDuplicateIdentifier)
	assert.Empty(t, m.OrphanedShades())
}

func TestObjectHasOneParent(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)

	other, err := NewModel("Other")
	require.NoError(t, err)
	assert.Error(t, other.AddRoom(r))

	f := mustFace(t, r, "A_Front")
	assert.Error(t, m.AddOrphanedFace(f))
}

func TestRemoveReleasesIdentifiers(t *testing.T) {
	m := newModel(t, newBox(t, "A", v(0, 0, 0)))
	require.True(t, m.HasIdentifier("A_Front"))

	require.True(t, m.Remove("A"))
	assert.False(t, m.HasIdentifier("A"))
	assert.False(t, m.HasIdentifier("A_Front"))
	assert.False(t, m.Remove("A"))

	require.NoError(t, m.AddRoom(newBox(t, "A", v(0, 0, 0))))
}

func TestRemoveNestedObject(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)
	f := mustFace(t, r, "A_Front")
	require.NoError(t, f.AperturesByRatio(0.4))
	require.True(t, m.HasIdentifier("A_Front_Glz0"))

	require.True(t, f.RemoveAperture("A_Front_Glz0"))
	assert.False(t, m.HasIdentifier("A_Front_Glz0"))
	assert.Empty(t, f.Apertures())
}

func TestWalkAndFindByID(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)
	require.NoError(t, mustFace(t, r, "A_Front").AperturesByRatio(0.5))
	sh, err := NewShade("Canopy", geometry.Rectangle(v(0, -1, 3), geometry.XAxis, geometry.YAxis))
	require.NoError(t, err)
	require.NoError(t, m.AddOrphanedShade(sh))

	var ids []string
	m.Walk(func(o Object) bool {
		ids = append(ids, o.Identifier())
		return true
	})
	assert.Equal(t, []string{
		"A", "A_Bottom", "A_Front", "A_Front_Glz0", "A_Right", "A_Back", "A_Left", "A_Top", "Canopy",
	}, ids)

	var visited int
	m.Walk(func(o Object) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)

	o, ok := m.FindByID("A_Front_Glz0")
	require.True(t, ok)
	assert.Equal(t, KindAperture, o.Kind())
	assert.Equal(t, "A_Front", o.Parent().Identifier())
	assert.Same(t, m, modelOf(o))

	_, ok = m.FindByID("Nope")
	assert.False(t, ok)

	assert.Len(t, m.Faces(), 6)
	assert.Len(t, m.Apertures(), 1)
	assert.Len(t, m.Shades(), 1)
}

func TestDisplayNameAndUserData(t *testing.T) {
	r := newBox(t, "Office_1", v(0, 0, 0))
	assert.Equal(t, "Office_1", r.DisplayName())
	r.SetDisplayName("Open Office")
	assert.Equal(t, "Open Office", r.DisplayName())
	assert.Equal(t, "Office_1", r.Identifier())

	r.SetUserData(map[string]any{"tags": []any{"a", "b"}})
	assert.Equal(t, []any{"a", "b"}, r.UserData()["tags"])
}

func TestDuplicateIsDeep(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 0))
	m := newModel(t, r)
	r.SetUserData(map[string]any{"nested": map[string]any{"k": "v"}})
	pl, err := r.Properties().GetOrCreate("energy")
	require.NoError(t, err)
	pl.(*extension.Value[energyProps]).Data.Construction = "Heavy"

	d := r.Duplicate()
	assert.Nil(t, d.Parent())
	assert.Equal(t, r.Identifier(), d.Identifier())
	assert.Len(t, d.Faces(), 6)
	for _, f := range d.Faces() {
		assert.Same(t, d, f.Parent())
	}

	d.Move(v(10, 0, 0))
	assert.InDelta(t, 1.5, r.Center().X, 1e-9, "original must not move")
	assert.InDelta(t, 11.5, d.Center().X, 1e-9)

	d.UserData()["nested"].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", r.UserData()["nested"].(map[string]any)["k"])

	dpl, ok := d.Properties().Get("energy")
	require.True(t, ok)
	dpl.(*extension.Value[energyProps]).Data.Construction = "Light"
	assert.Equal(t, "Heavy", pl.(*extension.Value[energyProps]).Data.Construction)

	dm := m.Duplicate()
	assert.True(t, dm.HasIdentifier("A_Front"))
	require.True(t, dm.Remove("A"))
	assert.True(t, m.HasIdentifier("A_Front"), "duplicate must own its identifier index")
}

func TestDefaultExtensionPayload(t *testing.T) {
	f := mustFace(t, newBox(t, "A", v(0, 0, 0)), "A_Front")
	assert.Equal(t, "FaceProperties", f.Properties().TypeName())
	pl, err := f.Properties().GetOrCreate("energy")
	require.NoError(t, err)
	assert.Equal(t, "Generic Face", pl.(*extension.Value[energyProps]).Data.Construction)

	_, err = f.Properties().GetOrCreate("radiance")
	assert.ErrorIs(t, err, extension.ErrNotRegistered)
}

func TestModelAggregates(t *testing.T) {
	a := newBox(t, "A", v(0, 0, 0))
	b := newBox(t, "B", v(3, 0, 0))
	b.Multiplier = 2
	m := newModel(t, a, b)

	assert.InDelta(t, 27, m.FloorArea(), 1e-9)
	assert.InDelta(t, 81, m.Volume(), 1e-9)

	b.ExcludeFloorArea = true
	assert.InDelta(t, 9, m.FloorArea(), 1e-9)
}

func TestAddModelConvertsUnits(t *testing.T) {
	m := newModel(t, newBox(t, "A", v(0, 0, 0)))

	mm, err := NewModel("Imported")
	require.NoError(t, err)
	mm.Units = Millimeters
	mm.Tolerance = 1
	r, err := NewRoomFromBox("B", 3000, 3000, 3000, 0, v(3000, 0, 0))
	require.NoError(t, err)
	require.NoError(t, mm.AddRoom(r))

	require.NoError(t, m.AddModel(mm))
	require.Len(t, m.Rooms(), 2)
	added := m.Rooms()[1]
	assert.InDelta(t, 27, added.Volume(), 1e-6)
	assert.InDelta(t, 4.5, added.Center().X, 1e-9)
	assert.InDelta(t, 3000*3000*3000, r.Volume(), 1e-3, "source model is untouched")

	err = m.AddModel(mm)
	require.ErrorIs(t, err, ident.ErrDuplicateIdentifier)
	assert.Len(t, m.Rooms(), 2)
}

func TestConvertToUnits(t *testing.T) {
	m := newModel(t, newBox(t, "A", v(0, 0, 0)))
	require.NoError(t, m.ConvertToUnits(Feet))
	assert.Equal(t, Feet, m.Units)

	side := 3 / 0.3048
	assert.InDelta(t, side*side*side, m.Volume(), 1e-6)
	assert.InDelta(t, 0.01/0.3048, m.Tolerance, 1e-12)

	assert.Error(t, m.ConvertToUnits(Units("Furlongs")))
}

func TestUnits(t *testing.T) {
	f, err := ConversionFactor(Meters, Millimeters)
	require.NoError(t, err)
	assert.InDelta(t, 1000, f, 1e-9)

	f, err = ConversionFactor(Feet, Inches)
	require.NoError(t, err)
	assert.InDelta(t, 12, f, 1e-9)

	_, err = ParseUnits("Parsecs")
	assert.Error(t, err)
	u, err := ParseUnits("Centimeters")
	require.NoError(t, err)
	assert.Equal(t, 1.0, u.DefaultTolerance())
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		n     geometry.Vec3
		north float64
		want  float64
		dir   string
	}{
		{v(0, 1, 0), 0, 0, "North"},
		{v(1, 0, 0), 0, 90, "East"},
		{v(0, -1, 0), 0, 180, "South"},
		{v(-1, 0, 0), 0, 270, "West"},
		{v(0, 1, 0), 90, 90, "East"},
	}
	for _, tt := range tests {
		az, ok := Azimuth(tt.n, tt.north)
		require.True(t, ok)
		assert.InDelta(t, tt.want, az, 1e-9, "%v north=%g", tt.n, tt.north)
		assert.Equal(t, tt.dir, CardinalDirection(az))
	}

	_, ok := Azimuth(v(0, 0, 1), 0)
	assert.False(t, ok)

	assert.Equal(t, []float64{45, 135, 225, 315}, OrientationAngles(4))
	assert.Equal(t, 0, OrientationIndex(350, OrientationAngles(4)))
	assert.Nil(t, OrientationAngles(0))
}

func TestFaceTypes(t *testing.T) {
	for _, s := range []string{"roof_ceiling", "Roof Ceiling", "ROOFCEILING"} {
		ft, err := ParseFaceType(s)
		require.NoError(t, err, s)
		assert.Equal(t, RoofCeiling, ft)
	}
	_, err := ParseFaceType("Window")
	assert.Error(t, err)

	assert.Equal(t, RoofCeiling, FaceTypeFromNormal(v(0.1, 0, 1)))
	assert.Equal(t, Wall, FaceTypeFromNormal(v(1, 0, 0)))
	assert.Equal(t, Floor, FaceTypeFromNormal(v(0, 0, -1)))
	assert.Equal(t, Wall, FaceTypeFromNormalAngles(v(0.5, 0, 1), 10, 170))
}

func TestSearch(t *testing.T) {
	items := []string{"Office West", "Corridor", "office east", "Lab"}
	assert.Equal(t, []string{"Office West", "office east"}, FilterByKeywords(items, []string{"office"}, false))
	assert.Equal(t, []string{"Office West", "Lab"}, FilterByKeywords(items, []string{"lab west"}, true))
	assert.Empty(t, FilterByKeywords(items, []string{"lab west"}, false))

	a := newBox(t, "A", v(0, 0, 0))
	a.SetDisplayName("Kitchen")
	b := newBox(t, "B", v(3, 0, 0))
	b.SetDisplayName("Bedroom")
	got := FilterObjects([]*Room{a, b}, []string{"kitch"}, false)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])
	assert.True(t, AnyKeywordIn("Bedroom 2", []string{"BED"}))
}

func TestAverageFloorHeight(t *testing.T) {
	r := newBox(t, "A", v(0, 0, 2))
	h, ok := r.AverageFloorHeight()
	require.True(t, ok)
	assert.InDelta(t, 2, h, 1e-9)
	assert.False(t, math.IsNaN(r.ExposedArea()))
}
