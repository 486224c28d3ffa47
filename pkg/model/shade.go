package model

import (
	"slices"

	"github.com/chazu/hbcore/pkg/geometry"
)

// Shade is a single planar shading surface. It has no children and no
// boundary condition.
type Shade struct {
	base
	geometry geometry.Face3D

	// IsDetached marks shades that do not move with the building, such as
	// neighboring buildings or trees.
	IsDetached bool
}

// NewShade returns a shade with the given geometry.
func NewShade(id string, geom geometry.Face3D) (*Shade, error) {
	b, err := newBase(KindShade, id)
	if err != nil {
		return nil, err
	}
	if err := checkPolygon(id, geom); err != nil {
		return nil, err
	}
	return &Shade{base: b, geometry: geom.Clone()}, nil
}

func (s *Shade) Kind() string { return KindShade }

// Geometry returns a copy of the shade polygon.
func (s *Shade) Geometry() geometry.Face3D {
	return s.geometry.Clone()
}

func (s *Shade) Area() float64         { return geo.Area(s.geometry) }
func (s *Shade) Center() geometry.Vec3 { return geo.Centroid(s.geometry) }
func (s *Shade) Normal() geometry.Vec3 { return geo.Normal(s.geometry) }

// IsIndoor reports whether the shade is held in the indoor shades of its
// parent.
func (s *Shade) IsIndoor() bool {
	h, ok := s.parent.(interface{ isIndoor(*Shade) bool })
	return ok && h.isIndoor(s)
}

// Duplicate returns a deep copy with no parent.
func (s *Shade) Duplicate() *Shade {
	return &Shade{base: s.cloneBase(), geometry: s.geometry.Clone(), IsDetached: s.IsDetached}
}

func (s *Shade) identifiers() []string {
	return []string{s.id}
}

func (s *Shade) transform(t geometry.Transformer) {
	s.geometry = s.geometry.Transform(t)
	s.geomExtra = nil
}

// shades holds the indoor and outdoor shades of an owner object.
type shades struct {
	owner   Object
	indoor  []*Shade
	outdoor []*Shade
}

// IndoorShades returns the shades on the interior side.
func (s *shades) IndoorShades() []*Shade {
	return slices.Clone(s.indoor)
}

// OutdoorShades returns the shades on the exterior side.
func (s *shades) OutdoorShades() []*Shade {
	return slices.Clone(s.outdoor)
}

// Shades returns indoor shades followed by outdoor shades.
func (s *shades) Shades() []*Shade {
	return append(slices.Clone(s.indoor), s.outdoor...)
}

// AddIndoorShade appends an indoor shade.
func (s *shades) AddIndoorShade(sh *Shade) error {
	if err := attach(s.owner, sh); err != nil {
		return err
	}
	s.indoor = append(s.indoor, sh)
	return nil
}

// AddOutdoorShade appends an outdoor shade.
func (s *shades) AddOutdoorShade(sh *Shade) error {
	if err := attach(s.owner, sh); err != nil {
		return err
	}
	s.outdoor = append(s.outdoor, sh)
	return nil
}

// RemoveShade removes the indoor or outdoor shade with identifier id.
func (s *shades) RemoveShade(id string) bool {
	if _, ok := removeByID(&s.indoor, id); ok {
		return true
	}
	_, ok := removeByID(&s.outdoor, id)
	return ok
}

func (s *shades) isIndoor(sh *Shade) bool {
	return slices.Contains(s.indoor, sh)
}

func (s *shades) shadeIDs() []string {
	ids := make([]string, 0, len(s.indoor)+len(s.outdoor))
	for _, sh := range s.indoor {
		ids = append(ids, sh.id)
	}
	for _, sh := range s.outdoor {
		ids = append(ids, sh.id)
	}
	return ids
}

func (s *shades) transformShades(t geometry.Transformer) {
	for _, sh := range s.indoor {
		sh.transform(t)
	}
	for _, sh := range s.outdoor {
		sh.transform(t)
	}
}

// cloneFor deep-copies the shades and hands them to owner.
func (s *shades) cloneFor(owner Object) shades {
	out := shades{owner: owner}
	for _, sh := range s.indoor {
		c := sh.Duplicate()
		c.parent = owner
		out.indoor = append(out.indoor, c)
	}
	for _, sh := range s.outdoor {
		c := sh.Duplicate()
		c.parent = owner
		out.outdoor = append(out.outdoor, c)
	}
	return out
}

// checkPolygon rejects loops with fewer than three vertices.
func checkPolygon(id string, f geometry.Face3D) error {
	if len(f.Boundary) < 3 {
		return geometryErrorf("%q has %d boundary vertices, need at least 3", id, len(f.Boundary))
	}
	for i, h := range f.Holes {
		if len(h) < 3 {
			return geometryErrorf("%q hole %d has %d vertices, need at least 3", id, i, len(h))
		}
	}
	return nil
}

func (s *Shade) Move(v geometry.Vec3) {
	s.transform(geo.Translation(v))
}

func (s *Shade) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	s.transform(geo.Rotation(axis, angle, origin))
}

func (s *Shade) RotateXY(angle float64, origin geometry.Vec3) {
	s.transform(geo.RotationXY(angle, origin))
}

func (s *Shade) Reflect(plane geometry.Plane) {
	s.transform(geo.Reflection(plane.Normal, plane.Origin))
}

func (s *Shade) Scale(factor float64, origin geometry.Vec3) {
	s.transform(geo.Scaling(factor, origin))
}
