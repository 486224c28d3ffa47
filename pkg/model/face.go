package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/ident"
)

// Face is a planar polygon of a Room, or an orphaned Face of a Model.
type Face struct {
	base
	shades
	geometry  geometry.Face3D
	faceType  FaceType
	bc        BoundaryCondition
	apertures []*Aperture
	doors     []*Door
}

// NewFace returns a face. An empty face type is inferred from the normal
// and a nil boundary condition from the vertex heights.
func NewFace(id string, geom geometry.Face3D, t FaceType, bc BoundaryCondition) (*Face, error) {
	b, err := newBase(KindFace, id)
	if err != nil {
		return nil, err
	}
	if err := checkPolygon(id, geom); err != nil {
		return nil, err
	}
	if t == "" {
		t = FaceTypeFromNormal(geo.Normal(geom))
	} else if !t.Valid() {
		return nil, fmt.Errorf("face %q: unknown face type %q", id, t)
	}
	if bc == nil {
		bc = BoundaryConditionFromPosition(geom.Vertices())
		if t == AirBoundary {
			bc = Outdoors{}
		}
	}
	if err := checkFaceBC(id, t, bc, false); err != nil {
		return nil, err
	}
	f := &Face{base: b, geometry: geom.Clone(), faceType: t, bc: bc.clone()}
	f.owner = f
	return f, nil
}

func (f *Face) Kind() string { return KindFace }

// Geometry returns a copy of the polygon.
func (f *Face) Geometry() geometry.Face3D {
	return f.geometry.Clone()
}

func (f *Face) Type() FaceType { return f.faceType }

// SetType changes the face type. AirBoundary is refused for faces with
// apertures or doors and for Ground faces.
func (f *Face) SetType(t FaceType) error {
	if !t.Valid() {
		return fmt.Errorf("face %q: unknown face type %q", f.id, t)
	}
	if t == AirBoundary && f.hasSubFaces() {
		return bcErrorf("%q: AirBoundary faces cannot have apertures or doors", f.id)
	}
	if err := checkFaceBC(f.id, t, f.bc, f.hasSubFaces()); err != nil {
		return err
	}
	f.faceType = t
	return nil
}

// BoundaryCondition returns a copy of the boundary condition.
func (f *Face) BoundaryCondition() BoundaryCondition {
	return f.bc.clone()
}

// SetBoundaryCondition assigns bc after checking it against the face type
// and sub-faces.
func (f *Face) SetBoundaryCondition(bc BoundaryCondition) error {
	if err := checkFaceBC(f.id, f.faceType, bc, f.hasSubFaces()); err != nil {
		return err
	}
	f.bc = bc.clone()
	return nil
}

func (f *Face) Apertures() []*Aperture { return slices.Clone(f.apertures) }
func (f *Face) Doors() []*Door         { return slices.Clone(f.doors) }

func (f *Face) hasSubFaces() bool {
	return len(f.apertures) > 0 || len(f.doors) > 0
}

// Room returns the owning Room, if any.
func (f *Face) Room() (*Room, bool) {
	r, ok := f.parent.(*Room)
	return r, ok
}

// AddAperture inserts a, which must be coplanar with, contained in and
// facing the same way as the face, and must not overlap the other
// apertures and doors.
func (f *Face) AddAperture(a *Aperture) error {
	if err := f.checkSubFace(a.id, a.geometry); err != nil {
		return err
	}
	if err := attach(f, a); err != nil {
		return err
	}
	f.apertures = append(f.apertures, a)
	return nil
}

// AddDoor inserts d under the same rules as AddAperture.
func (f *Face) AddDoor(d *Door) error {
	if err := f.checkSubFace(d.id, d.geometry); err != nil {
		return err
	}
	if err := attach(f, d); err != nil {
		return err
	}
	f.doors = append(f.doors, d)
	return nil
}

func (f *Face) RemoveAperture(id string) bool {
	_, ok := removeByID(&f.apertures, id)
	return ok
}

func (f *Face) RemoveDoor(id string) bool {
	_, ok := removeByID(&f.doors, id)
	return ok
}

// RemoveSubFaces removes every aperture and door.
func (f *Face) RemoveSubFaces() {
	for _, a := range f.apertures {
		detach(a)
	}
	for _, d := range f.doors {
		detach(d)
	}
	f.apertures, f.doors = nil, nil
}

func (f *Face) checkSubFace(id string, g geometry.Face3D) error {
	if f.faceType == AirBoundary {
		return bcErrorf("%q: AirBoundary faces cannot have apertures or doors", f.id)
	}
	switch f.bc.(type) {
	case Outdoors, Surface:
	default:
		return bcErrorf("%q: a %s face cannot have apertures or doors", f.id, f.bc.Name())
	}
	tol, angTol := tolerances(f)
	if !geo.Contains(f.geometry, g, tol, angTol) {
		return geometryErrorf("%q is not coplanar with and contained in face %q", id, f.id)
	}
	if geo.Normal(f.geometry).AngleTo(geo.Normal(g)) > 90 {
		return geometryErrorf("%q faces the opposite way to face %q", id, f.id)
	}
	for _, a := range f.apertures {
		if geo.OverlapArea(a.geometry, g, tol, angTol) > tol*tol {
			return geometryErrorf("%q overlaps aperture %q", id, a.id)
		}
	}
	for _, d := range f.doors {
		if geo.OverlapArea(d.geometry, g, tol, angTol) > tol*tol {
			return geometryErrorf("%q overlaps door %q", id, d.id)
		}
	}
	return nil
}

// AperturesByRatio replaces the apertures of the face with a single one
// covering ratio of the face area, made by scaling the face about its
// centroid. The face is left unchanged on error.
func (f *Face) AperturesByRatio(ratio float64) error {
	if ratio <= 0 || ratio >= 1 {
		return geometryErrorf("%q: aperture ratio %g is not between 0 and 1", f.id, ratio)
	}
	g := f.geometry.Transform(geo.Scaling(math.Sqrt(ratio), geo.Centroid(f.geometry)))
	ap, err := NewAperture(ident.Clean(f.id+"_Glz0"), g)
	if err != nil {
		return err
	}

	old := f.apertures
	for _, a := range old {
		detach(a)
	}
	f.apertures = nil
	if err := f.AddAperture(ap); err != nil {
		for _, a := range old {
			_ = attach(f, a)
		}
		f.apertures = old
		return err
	}
	return nil
}

func (f *Face) Area() float64             { return geo.Area(f.geometry) }
func (f *Face) Center() geometry.Vec3     { return geo.Centroid(f.geometry) }
func (f *Face) Normal() geometry.Vec3     { return geo.Normal(f.geometry) }
func (f *Face) Plane() geometry.Plane     { return geo.Plane(f.geometry) }
func (f *Face) Vertices() []geometry.Vec3 { return f.geometry.Vertices() }

// ApertureArea returns the total area of the apertures.
func (f *Face) ApertureArea() float64 {
	var a float64
	for _, ap := range f.apertures {
		a += ap.Area()
	}
	return a
}

// ApertureRatio returns aperture area over face area.
func (f *Face) ApertureRatio() float64 {
	area := f.Area()
	if area == 0 {
		return 0
	}
	return f.ApertureArea() / area
}

// Azimuth returns the compass orientation of the normal in degrees, with
// 0 = North and 90 = East. It reports false for horizontal faces.
func (f *Face) Azimuth(northAngle float64) (float64, bool) {
	return Azimuth(f.Normal(), northAngle)
}

// Duplicate returns a deep copy with no parent.
func (f *Face) Duplicate() *Face {
	c := &Face{
		base:     f.cloneBase(),
		geometry: f.geometry.Clone(),
		faceType: f.faceType,
		bc:       f.bc.clone(),
	}
	c.shades = f.shades.cloneFor(c)
	for _, a := range f.apertures {
		d := a.Duplicate()
		d.parent = c
		c.apertures = append(c.apertures, d)
	}
	for _, dr := range f.doors {
		d := dr.Duplicate()
		d.parent = c
		c.doors = append(c.doors, d)
	}
	return c
}

func (f *Face) identifiers() []string {
	ids := append([]string{f.id}, f.shadeIDs()...)
	for _, a := range f.apertures {
		ids = append(ids, a.identifiers()...)
	}
	for _, d := range f.doors {
		ids = append(ids, d.identifiers()...)
	}
	return ids
}

func (f *Face) transform(t geometry.Transformer) {
	f.geometry = f.geometry.Transform(t)
	f.geomExtra = nil
	for _, a := range f.apertures {
		a.transform(t)
	}
	for _, d := range f.doors {
		d.transform(t)
	}
	f.transformShades(t)
}

// flip reverses the face and its sub-faces.
func (f *Face) flip() {
	f.geometry = f.geometry.Flip()
	f.geomExtra = nil
	for _, a := range f.apertures {
		a.flip()
	}
	for _, d := range f.doors {
		d.flip()
	}
}

func (f *Face) Move(v geometry.Vec3) {
	f.transform(geo.Translation(v))
}

func (f *Face) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	f.transform(geo.Rotation(axis, angle, origin))
}

func (f *Face) RotateXY(angle float64, origin geometry.Vec3) {
	f.transform(geo.RotationXY(angle, origin))
}

func (f *Face) Reflect(plane geometry.Plane) {
	f.transform(geo.Reflection(plane.Normal, plane.Origin))
}

func (f *Face) Scale(factor float64, origin geometry.Vec3) {
	f.transform(geo.Scaling(factor, origin))
}
