package model

import "github.com/chazu/hbcore/pkg/geometry"

// subFace is the part shared by Aperture and Door.
type subFace struct {
	base
	shades
	geometry geometry.Face3D
	bc       BoundaryCondition
}

func newSubFace(kind, id string, geom geometry.Face3D) (subFace, error) {
	b, err := newBase(kind, id)
	if err != nil {
		return subFace{}, err
	}
	if err := checkPolygon(id, geom); err != nil {
		return subFace{}, err
	}
	return subFace{base: b, geometry: geom.Clone(), bc: Outdoors{}}, nil
}

// Geometry returns a copy of the polygon.
func (sf *subFace) Geometry() geometry.Face3D {
	return sf.geometry.Clone()
}

// BoundaryCondition returns a copy of the boundary condition.
func (sf *subFace) BoundaryCondition() BoundaryCondition {
	return sf.bc.clone()
}

// SetBoundaryCondition sets an Outdoors or Surface condition.
func (sf *subFace) SetBoundaryCondition(bc BoundaryCondition) error {
	if err := checkSubFaceBC(sf.id, bc); err != nil {
		return err
	}
	sf.bc = bc.clone()
	return nil
}

// ParentFace returns the owning Face, if any.
func (sf *subFace) ParentFace() (*Face, bool) {
	f, ok := sf.parent.(*Face)
	return f, ok
}

func (sf *subFace) Area() float64         { return geo.Area(sf.geometry) }
func (sf *subFace) Center() geometry.Vec3 { return geo.Centroid(sf.geometry) }
func (sf *subFace) Normal() geometry.Vec3 { return geo.Normal(sf.geometry) }

// Azimuth returns the compass orientation of the normal in degrees, with
// 0 = North and 90 = East. It reports false for horizontal objects.
func (sf *subFace) Azimuth(northAngle float64) (float64, bool) {
	return Azimuth(sf.Normal(), northAngle)
}

func (sf *subFace) identifiers() []string {
	return append([]string{sf.id}, sf.shadeIDs()...)
}

func (sf *subFace) transform(t geometry.Transformer) {
	sf.geometry = sf.geometry.Transform(t)
	sf.geomExtra = nil
	sf.transformShades(t)
}

func (sf *subFace) flip() {
	sf.geometry = sf.geometry.Flip()
	sf.geomExtra = nil
}

func (sf *subFace) cloneFor(owner Object) subFace {
	return subFace{
		base:     sf.cloneBase(),
		shades:   sf.shades.cloneFor(owner),
		geometry: sf.geometry.Clone(),
		bc:       sf.bc.clone(),
	}
}

func (sf *subFace) Move(v geometry.Vec3) {
	sf.transform(geo.Translation(v))
}

func (sf *subFace) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	sf.transform(geo.Rotation(axis, angle, origin))
}

func (sf *subFace) RotateXY(angle float64, origin geometry.Vec3) {
	sf.transform(geo.RotationXY(angle, origin))
}

func (sf *subFace) Reflect(plane geometry.Plane) {
	sf.transform(geo.Reflection(plane.Normal, plane.Origin))
}

func (sf *subFace) Scale(factor float64, origin geometry.Vec3) {
	sf.transform(geo.Scaling(factor, origin))
}

// Aperture is a window in a Face.
type Aperture struct {
	subFace
	IsOperable bool
}

// NewAperture returns an Outdoors aperture with the given geometry.
func NewAperture(id string, geom geometry.Face3D) (*Aperture, error) {
	sf, err := newSubFace(KindAperture, id, geom)
	if err != nil {
		return nil, err
	}
	a := &Aperture{subFace: sf}
	a.owner = a
	return a, nil
}

func (a *Aperture) Kind() string { return KindAperture }

// Duplicate returns a deep copy with no parent.
func (a *Aperture) Duplicate() *Aperture {
	c := &Aperture{IsOperable: a.IsOperable}
	c.subFace = a.cloneFor(c)
	return c
}

// Door is an opaque or glass door in a Face.
type Door struct {
	subFace
	IsGlass bool
}

// NewDoor returns an Outdoors door with the given geometry.
func NewDoor(id string, geom geometry.Face3D) (*Door, error) {
	sf, err := newSubFace(KindDoor, id, geom)
	if err != nil {
		return nil, err
	}
	d := &Door{subFace: sf}
	d.owner = d
	return d, nil
}

func (d *Door) Kind() string { return KindDoor }

// Duplicate returns a deep copy with no parent.
func (d *Door) Duplicate() *Door {
	c := &Door{IsGlass: d.IsGlass}
	c.subFace = d.cloneFor(c)
	return c
}
