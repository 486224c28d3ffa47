package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/hbcore/pkg/extension"
	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/ident"
)

// Model is the root of the hierarchy. It owns Rooms, orphaned Faces,
// Apertures, Doors and Shades, and ShadeMeshes, and keeps the index of
// every identifier below it.
type Model struct {
	base
	registry    *ident.Registry
	rooms       []*Room
	faces       []*Face
	apertures   []*Aperture
	doors       []*Door
	shadeList   []*Shade
	shadeMeshes []*ShadeMesh

	Units Units
	// Tolerance is the distance below which coordinates are equal.
	Tolerance float64
	// AngleTolerance is the angle in degrees below which directions are
	// parallel.
	AngleTolerance float64
	// NorthAngle is the counterclockwise angle in degrees from the +Y axis
	// to north.
	NorthAngle float64
}

// NewModel returns an empty model in meters. Creating the first model
// seals the default extension registry.
func NewModel(id string) (*Model, error) {
	extension.Seal()
	b, err := newBase(KindModel, id)
	if err != nil {
		return nil, err
	}
	return &Model{
		base:           b,
		registry:       ident.NewRegistry(),
		Units:          Meters,
		Tolerance:      DefaultTolerance,
		AngleTolerance: DefaultAngleTolerance,
	}, nil
}

func (m *Model) Kind() string { return KindModel }

func (m *Model) Rooms() []*Room                 { return slices.Clone(m.rooms) }
func (m *Model) OrphanedFaces() []*Face         { return slices.Clone(m.faces) }
func (m *Model) OrphanedApertures() []*Aperture { return slices.Clone(m.apertures) }
func (m *Model) OrphanedDoors() []*Door         { return slices.Clone(m.doors) }
func (m *Model) OrphanedShades() []*Shade       { return slices.Clone(m.shadeList) }
func (m *Model) ShadeMeshes() []*ShadeMesh      { return slices.Clone(m.shadeMeshes) }

// AddRoom appends r. It fails with ident.ErrDuplicateIdentifier when any
// identifier of r is already used in the model.
func (m *Model) AddRoom(r *Room) error {
	if err := attach(m, r); err != nil {
		return err
	}
	m.rooms = append(m.rooms, r)
	return nil
}

func (m *Model) AddOrphanedFace(f *Face) error {
	if err := attach(m, f); err != nil {
		return err
	}
	m.faces = append(m.faces, f)
	return nil
}

func (m *Model) AddOrphanedAperture(a *Aperture) error {
	if err := attach(m, a); err != nil {
		return err
	}
	m.apertures = append(m.apertures, a)
	return nil
}

func (m *Model) AddOrphanedDoor(d *Door) error {
	if err := attach(m, d); err != nil {
		return err
	}
	m.doors = append(m.doors, d)
	return nil
}

func (m *Model) AddOrphanedShade(s *Shade) error {
	if err := attach(m, s); err != nil {
		return err
	}
	m.shadeList = append(m.shadeList, s)
	return nil
}

func (m *Model) AddShadeMesh(s *ShadeMesh) error {
	if err := attach(m, s); err != nil {
		return err
	}
	m.shadeMeshes = append(m.shadeMeshes, s)
	return nil
}

// Remove removes the top-level object with identifier id, releasing its
// identifiers. Nested objects are removed through their parents.
func (m *Model) Remove(id string) bool {
	if _, ok := removeByID(&m.rooms, id); ok {
		return true
	}
	if _, ok := removeByID(&m.faces, id); ok {
		return true
	}
	if _, ok := removeByID(&m.apertures, id); ok {
		return true
	}
	if _, ok := removeByID(&m.doors, id); ok {
		return true
	}
	if _, ok := removeByID(&m.shadeList, id); ok {
		return true
	}
	_, ok := removeByID(&m.shadeMeshes, id)
	return ok
}

// HasIdentifier reports whether id is used below the model.
func (m *Model) HasIdentifier(id string) bool {
	return m.registry.Has(id)
}

// Walk calls fn for every object below the model in document order,
// parents before children. It stops when fn returns false.
func (m *Model) Walk(fn func(o Object) bool) {
	var stop bool
	visit := func(o Object) {
		if !stop && !fn(o) {
			stop = true
		}
	}
	visitShades := func(s *shades) {
		for _, sh := range s.indoor {
			visit(sh)
		}
		for _, sh := range s.outdoor {
			visit(sh)
		}
	}
	visitSub := func(sf *subFace, o Object) {
		visit(o)
		visitShades(&sf.shades)
	}
	visitFace := func(f *Face) {
		visit(f)
		for _, a := range f.apertures {
			visitSub(&a.subFace, a)
		}
		for _, d := range f.doors {
			visitSub(&d.subFace, d)
		}
		visitShades(&f.shades)
	}
	for _, r := range m.rooms {
		visit(r)
		for _, f := range r.faces {
			visitFace(f)
		}
		visitShades(&r.shades)
	}
	for _, f := range m.faces {
		visitFace(f)
	}
	for _, a := range m.apertures {
		visitSub(&a.subFace, a)
	}
	for _, d := range m.doors {
		visitSub(&d.subFace, d)
	}
	for _, s := range m.shadeList {
		visit(s)
	}
	for _, s := range m.shadeMeshes {
		visit(s)
	}
}

// FindByID returns the object with identifier id.
func (m *Model) FindByID(id string) (Object, bool) {
	if !m.registry.Has(id) {
		return nil, false
	}
	var found Object
	m.Walk(func(o Object) bool {
		if o.Identifier() == id {
			found = o
			return false
		}
		return true
	})
	return found, found != nil
}

// Faces returns room faces followed by orphaned faces.
func (m *Model) Faces() []*Face {
	var out []*Face
	for _, r := range m.rooms {
		out = append(out, r.faces...)
	}
	return append(out, m.faces...)
}

// Apertures returns every aperture, nested or orphaned.
func (m *Model) Apertures() []*Aperture {
	var out []*Aperture
	for _, f := range m.Faces() {
		out = append(out, f.apertures...)
	}
	return append(out, m.apertures...)
}

// Doors returns every door, nested or orphaned.
func (m *Model) Doors() []*Door {
	var out []*Door
	for _, f := range m.Faces() {
		out = append(out, f.doors...)
	}
	return append(out, m.doors...)
}

// Shades returns every shade, nested or orphaned.
func (m *Model) Shades() []*Shade {
	var out []*Shade
	m.Walk(func(o Object) bool {
		if s, ok := o.(*Shade); ok {
			out = append(out, s)
		}
		return true
	})
	return out
}

// FloorArea returns the floor area of all rooms, counting multipliers and
// skipping rooms that exclude their floor area.
func (m *Model) FloorArea() float64 {
	var a float64
	for _, r := range m.rooms {
		if !r.ExcludeFloorArea {
			a += r.FloorArea() * float64(r.Multiplier)
		}
	}
	return a
}

// Volume returns the volume of all rooms, counting multipliers.
func (m *Model) Volume() float64 {
	var v float64
	for _, r := range m.rooms {
		v += r.Volume() * float64(r.Multiplier)
	}
	return v
}

// ExteriorWallArea returns the exterior wall area of all rooms, counting
// multipliers.
func (m *Model) ExteriorWallArea() float64 {
	var a float64
	for _, r := range m.rooms {
		a += r.ExteriorWallArea() * float64(r.Multiplier)
	}
	return a
}

// ExteriorApertureArea returns the exterior aperture area of all rooms,
// counting multipliers.
func (m *Model) ExteriorApertureArea() float64 {
	var a float64
	for _, r := range m.rooms {
		a += r.ExteriorApertureArea() * float64(r.Multiplier)
	}
	return a
}

// AddModel adds a copy of every top-level object of other, converted to
// the units of m. Nothing is added when an identifier collides.
func (m *Model) AddModel(other *Model) error {
	c := other.Duplicate()
	if other.Units != m.Units {
		if err := c.ConvertToUnits(m.Units); err != nil {
			return err
		}
	}
	var ids []string
	for _, o := range c.children() {
		ids = append(ids, o.identifiers()...)
	}
	if err := m.registry.Check(ids...); err != nil {
		return fmt.Errorf("add model %q: %w", other.id, err)
	}
	for _, o := range c.children() {
		o.setParent(nil)
	}
	for _, r := range c.rooms {
		_ = m.AddRoom(r)
	}
	for _, f := range c.faces {
		_ = m.AddOrphanedFace(f)
	}
	for _, a := range c.apertures {
		_ = m.AddOrphanedAperture(a)
	}
	for _, d := range c.doors {
		_ = m.AddOrphanedDoor(d)
	}
	for _, s := range c.shadeList {
		_ = m.AddOrphanedShade(s)
	}
	for _, s := range c.shadeMeshes {
		_ = m.AddShadeMesh(s)
	}
	return nil
}

// ConvertToUnits scales the model about the origin so coordinates are in
// u, and updates Units and the tolerance.
func (m *Model) ConvertToUnits(u Units) error {
	f, err := ConversionFactor(m.Units, u)
	if err != nil {
		return err
	}
	if f != 1 {
		m.Scale(f, geometry.Vec3{})
	}
	m.Units = u
	return nil
}

// children returns the top-level objects.
func (m *Model) children() []Object {
	var out []Object
	for _, r := range m.rooms {
		out = append(out, r)
	}
	for _, f := range m.faces {
		out = append(out, f)
	}
	for _, a := range m.apertures {
		out = append(out, a)
	}
	for _, d := range m.doors {
		out = append(out, d)
	}
	for _, s := range m.shadeList {
		out = append(out, s)
	}
	for _, s := range m.shadeMeshes {
		out = append(out, s)
	}
	return out
}

// Duplicate returns a deep copy with its own identifier index.
func (m *Model) Duplicate() *Model {
	c := &Model{
		base:           m.cloneBase(),
		registry:       ident.NewRegistry(),
		Units:          m.Units,
		Tolerance:      m.Tolerance,
		AngleTolerance: m.AngleTolerance,
		NorthAngle:     m.NorthAngle,
	}
	for _, r := range m.rooms {
		d := r.Duplicate()
		d.parent = c
		c.rooms = append(c.rooms, d)
	}
	for _, f := range m.faces {
		d := f.Duplicate()
		d.parent = c
		c.faces = append(c.faces, d)
	}
	for _, a := range m.apertures {
		d := a.Duplicate()
		d.parent = c
		c.apertures = append(c.apertures, d)
	}
	for _, dr := range m.doors {
		d := dr.Duplicate()
		d.parent = c
		c.doors = append(c.doors, d)
	}
	for _, s := range m.shadeList {
		d := s.Duplicate()
		d.parent = c
		c.shadeList = append(c.shadeList, d)
	}
	for _, s := range m.shadeMeshes {
		d := s.Duplicate()
		d.parent = c
		c.shadeMeshes = append(c.shadeMeshes, d)
	}
	for _, o := range c.children() {
		_ = c.registry.Reserve(o.identifiers()...)
	}
	return c
}

func (m *Model) identifiers() []string {
	ids := []string{m.id}
	for _, o := range m.children() {
		ids = append(ids, o.identifiers()...)
	}
	return ids
}

func (m *Model) transform(t geometry.Transformer) {
	for _, o := range m.children() {
		o.transform(t)
	}
}

func (m *Model) Move(v geometry.Vec3) {
	m.transform(geo.Translation(v))
}

func (m *Model) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	m.transform(geo.Rotation(axis, angle, origin))
}

func (m *Model) RotateXY(angle float64, origin geometry.Vec3) {
	m.transform(geo.RotationXY(angle, origin))
}

func (m *Model) Reflect(plane geometry.Plane) {
	m.transform(geo.Reflection(plane.Normal, plane.Origin))
}

// Scale scales every object and the tolerance by factor.
func (m *Model) Scale(factor float64, origin geometry.Vec3) {
	m.transform(geo.Scaling(factor, origin))
	m.Tolerance *= math.Abs(factor)
}
