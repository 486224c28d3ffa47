package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/hbcore/pkg/geometry"
)

// Room is a closed volume bounded by Faces.
type Room struct {
	base
	shades
	faces []*Face

	// Multiplier is the number of identical floors the room stands for.
	// It must be at least 1.
	Multiplier int
	// ExcludeFloorArea removes the room floors from model floor area.
	ExcludeFloorArea bool
	// Story is an optional label grouping rooms by floor.
	Story string
}

// NewRoom returns a room owning faces, which must not belong to anything
// yet and must not repeat identifiers.
func NewRoom(id string, faces []*Face) (*Room, error) {
	b, err := newBase(KindRoom, id)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, geometryErrorf("room %q has no faces", id)
	}
	ids := []string{id}
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("room %q: face %d is nil", id, i)
		}
		if f.parent != nil {
			return nil, fmt.Errorf("room %q: face %q already belongs to %s %q", id, f.id, f.parent.Kind(), f.parent.Identifier())
		}
		ids = append(ids, f.identifiers()...)
	}
	if err := checkIdentifiers(ids); err != nil {
		return nil, fmt.Errorf("room %q: %w", id, err)
	}
	r := &Room{base: b, faces: slices.Clone(faces), Multiplier: 1}
	r.owner = r
	for _, f := range r.faces {
		f.parent = r
	}
	return r, nil
}

// NewRoomFromBox returns a box-shaped room of the given width (X), depth
// (Y) and height (Z) with its corner at origin, rotated clockwise by
// orientation degrees about that corner. Faces are ordered Bottom, Front,
// Right, Back, Left, Top and named "<id>_<side>".
func NewRoomFromBox(id string, width, depth, height, orientation float64, origin geometry.Vec3) (*Room, error) {
	if width <= 0 || depth <= 0 || height <= 0 {
		return nil, geometryErrorf("room %q: box dimensions must be positive, got %g x %g x %g", id, width, depth, height)
	}
	a := -orientation * math.Pi / 180
	x := geometry.V(math.Cos(a), math.Sin(a), 0)
	y := geometry.ZAxis.Cross(x)
	z := geometry.ZAxis

	w, d, h := x.Scale(width), y.Scale(depth), z.Scale(height)
	sides := []struct {
		name string
		geom geometry.Face3D
	}{
		{"Bottom", geometry.Rectangle(origin, d, w)},
		{"Front", geometry.Rectangle(origin, w, h)},
		{"Right", geometry.Rectangle(origin.Add(w), d, h)},
		{"Back", geometry.Rectangle(origin.Add(w).Add(d), w.Neg(), h)},
		{"Left", geometry.Rectangle(origin.Add(d), d.Neg(), h)},
		{"Top", geometry.Rectangle(origin.Add(h), w, d)},
	}
	faces := make([]*Face, 0, len(sides))
	for _, s := range sides {
		f, err := NewFace(id+"_"+s.name, s.geom, "", nil)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return NewRoom(id, faces)
}

func (r *Room) Kind() string { return KindRoom }

// Faces returns the faces in order.
func (r *Room) Faces() []*Face {
	return slices.Clone(r.faces)
}

// Face returns the face with identifier id.
func (r *Room) Face(id string) (*Face, bool) {
	for _, f := range r.faces {
		if f.id == id {
			return f, true
		}
	}
	return nil, false
}

// AddFace appends a face.
func (r *Room) AddFace(f *Face) error {
	if err := attach(r, f); err != nil {
		return err
	}
	r.faces = append(r.faces, f)
	return nil
}

// RemoveFace removes the face with identifier id. The room is no longer
// solid afterwards unless the face is replaced.
func (r *Room) RemoveFace(id string) bool {
	_, ok := removeByID(&r.faces, id)
	return ok
}

// Apertures returns the apertures of every face.
func (r *Room) Apertures() []*Aperture {
	var out []*Aperture
	for _, f := range r.faces {
		out = append(out, f.apertures...)
	}
	return out
}

// Doors returns the doors of every face.
func (r *Room) Doors() []*Door {
	var out []*Door
	for _, f := range r.faces {
		out = append(out, f.doors...)
	}
	return out
}

// Geometry returns the face polygons.
func (r *Room) Geometry() []geometry.Face3D {
	out := make([]geometry.Face3D, len(r.faces))
	for i, f := range r.faces {
		out[i] = f.geometry
	}
	return out
}

// IsSolid reports whether the faces form a closed volume with consistently
// oriented normals.
func (r *Room) IsSolid() bool {
	tol, _ := tolerances(r)
	g := r.Geometry()
	return geo.IsClosed(g, tol) && geo.IsConsistentlyOriented(g, tol)
}

// OrientOutward flips every face when the room is a closed solid whose
// normals point inward, and reports whether it did.
func (r *Room) OrientOutward() bool {
	if !r.IsSolid() || geo.Volume(r.Geometry()) >= 0 {
		return false
	}
	for _, f := range r.faces {
		f.flip()
	}
	return true
}

// Volume returns the enclosed volume. It is only meaningful for solids.
func (r *Room) Volume() float64 {
	return math.Abs(geo.Volume(r.Geometry()))
}

// Center returns the center of the bounding box of the faces.
func (r *Room) Center() geometry.Vec3 {
	var pts []geometry.Vec3
	for _, f := range r.faces {
		pts = append(pts, f.geometry.Boundary...)
	}
	lo, hi := geometry.NewFace3D(pts).Bounds()
	return lo.Add(hi).Scale(0.5)
}

// FloorArea returns the area of the Floor faces of a single floor.
func (r *Room) FloorArea() float64 {
	var a float64
	for _, f := range r.faces {
		if f.faceType == Floor {
			a += f.Area()
		}
	}
	return a
}

// ExposedArea returns the area of the Outdoors faces.
func (r *Room) ExposedArea() float64 {
	var a float64
	for _, f := range r.faces {
		if _, ok := f.bc.(Outdoors); ok {
			a += f.Area()
		}
	}
	return a
}

// ExteriorWallArea returns the area of the Outdoors walls.
func (r *Room) ExteriorWallArea() float64 {
	var a float64
	for _, f := range r.faces {
		if _, ok := f.bc.(Outdoors); ok && f.faceType == Wall {
			a += f.Area()
		}
	}
	return a
}

// ExteriorApertureArea returns the area of the apertures in Outdoors faces.
func (r *Room) ExteriorApertureArea() float64 {
	var a float64
	for _, f := range r.faces {
		if _, ok := f.bc.(Outdoors); ok {
			a += f.ApertureArea()
		}
	}
	return a
}

// AverageFloorHeight returns the area-weighted height of the floor faces.
// It reports false when the room has no floors.
func (r *Room) AverageFloorHeight() (float64, bool) {
	var h, area float64
	for _, f := range r.faces {
		if f.faceType != Floor {
			continue
		}
		a := f.Area()
		h += f.Center().Z * a
		area += a
	}
	if area == 0 {
		return 0, false
	}
	return h / area, true
}

// Duplicate returns a deep copy with no parent.
func (r *Room) Duplicate() *Room {
	c := &Room{
		base:             r.cloneBase(),
		Multiplier:       r.Multiplier,
		ExcludeFloorArea: r.ExcludeFloorArea,
		Story:            r.Story,
	}
	c.shades = r.shades.cloneFor(c)
	for _, f := range r.faces {
		d := f.Duplicate()
		d.parent = c
		c.faces = append(c.faces, d)
	}
	return c
}

func (r *Room) identifiers() []string {
	ids := append([]string{r.id}, r.shadeIDs()...)
	for _, f := range r.faces {
		ids = append(ids, f.identifiers()...)
	}
	return ids
}

func (r *Room) transform(t geometry.Transformer) {
	for _, f := range r.faces {
		f.transform(t)
	}
	r.transformShades(t)
}

func (r *Room) Move(v geometry.Vec3) {
	r.transform(geo.Translation(v))
}

func (r *Room) Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3) {
	r.transform(geo.Rotation(axis, angle, origin))
}

func (r *Room) RotateXY(angle float64, origin geometry.Vec3) {
	r.transform(geo.RotationXY(angle, origin))
}

func (r *Room) Reflect(plane geometry.Plane) {
	r.transform(geo.Reflection(plane.Normal, plane.Origin))
}

func (r *Room) Scale(factor float64, origin geometry.Vec3) {
	r.transform(geo.Scaling(factor, origin))
}
