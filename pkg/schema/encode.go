package schema

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/model"
)

// Version is written to every Model document.
const Version = "1.0.0"

// ToDocument encodes obj and everything it owns.
func ToDocument(obj model.Object) (*Document, error) {
	switch o := obj.(type) {
	case *model.Model:
		return EncodeModel(o)
	case *model.Room:
		return encodeRoom(o)
	case *model.Face:
		return encodeFace(o)
	case *model.Aperture:
		return encodeAperture(o)
	case *model.Door:
		return encodeDoor(o)
	case *model.Shade:
		return encodeShade(o)
	case *model.ShadeMesh:
		return encodeShadeMesh(o)
	case nil:
		return nil, errors.New("encode: nil object")
	}
	return nil, errors.Errorf("encode: unsupported object type %T", obj)
}

// EncodeModel encodes a whole model.
func EncodeModel(m *model.Model) (*Document, error) {
	d := header(m)
	d.Set("version", Version)
	d.Set("units", string(m.Units))
	d.Set("tolerance", m.Tolerance)
	d.Set("angle_tolerance", m.AngleTolerance)
	if m.NorthAngle != 0 {
		d.Set("north_angle", m.NorthAngle)
	}
	if err := setList(d, "rooms", m.Rooms(), encodeRoom); err != nil {
		return nil, err
	}
	if err := setList(d, "orphaned_faces", m.OrphanedFaces(), encodeFace); err != nil {
		return nil, err
	}
	if err := setList(d, "orphaned_shades", m.OrphanedShades(), encodeShade); err != nil {
		return nil, err
	}
	if err := setList(d, "orphaned_apertures", m.OrphanedApertures(), encodeAperture); err != nil {
		return nil, err
	}
	if err := setList(d, "orphaned_doors", m.OrphanedDoors(), encodeDoor); err != nil {
		return nil, err
	}
	if err := setList(d, "shade_meshes", m.ShadeMeshes(), encodeShadeMesh); err != nil {
		return nil, err
	}
	return footer(d, m)
}

func encodeRoom(r *model.Room) (*Document, error) {
	d := header(r)
	if err := setList(d, "faces", r.Faces(), encodeFace); err != nil {
		return nil, err
	}
	if err := setShades(d, r.IndoorShades(), r.OutdoorShades()); err != nil {
		return nil, err
	}
	d.Set("multiplier", r.Multiplier)
	if r.ExcludeFloorArea {
		d.Set("exclude_floor_area", true)
	}
	if r.Story != "" {
		d.Set("story", r.Story)
	}
	return footer(d, r)
}

func encodeFace(f *model.Face) (*Document, error) {
	d := header(f)
	d.Set("geometry", encodeFace3D(f.Geometry()))
	d.Set("face_type", string(f.Type()))
	d.Set("boundary_condition", encodeBC(f.BoundaryCondition()))
	if err := setList(d, "apertures", f.Apertures(), encodeAperture); err != nil {
		return nil, err
	}
	if err := setList(d, "doors", f.Doors(), encodeDoor); err != nil {
		return nil, err
	}
	if err := setShades(d, f.IndoorShades(), f.OutdoorShades()); err != nil {
		return nil, err
	}
	return footer(d, f)
}

func encodeAperture(a *model.Aperture) (*Document, error) {
	d := header(a)
	d.Set("geometry", encodeFace3D(a.Geometry()))
	d.Set("boundary_condition", encodeBC(a.BoundaryCondition()))
	d.Set("is_operable", a.IsOperable)
	if err := setShades(d, a.IndoorShades(), a.OutdoorShades()); err != nil {
		return nil, err
	}
	return footer(d, a)
}

func encodeDoor(dr *model.Door) (*Document, error) {
	d := header(dr)
	d.Set("geometry", encodeFace3D(dr.Geometry()))
	d.Set("boundary_condition", encodeBC(dr.BoundaryCondition()))
	d.Set("is_glass", dr.IsGlass)
	if err := setShades(d, dr.IndoorShades(), dr.OutdoorShades()); err != nil {
		return nil, err
	}
	return footer(d, dr)
}

func encodeShade(s *model.Shade) (*Document, error) {
	d := header(s)
	d.Set("geometry", encodeFace3D(s.Geometry()))
	d.Set("is_detached", s.IsDetached)
	return footer(d, s)
}

func encodeShadeMesh(s *model.ShadeMesh) (*Document, error) {
	d := header(s)
	d.Set("geometry", encodeMesh3D(s.Geometry()))
	d.Set("is_detached", s.IsDetached)
	return footer(d, s)
}

// header starts a document with the fields every object shares.
func header(o model.Object) *Document {
	return NewDocument().
		Set("type", o.Kind()).
		Set("identifier", o.Identifier()).
		Set("display_name", o.DisplayName())
}

// footer appends properties, user data and uninterpreted fields.
func footer(d *Document, o model.Object) (*Document, error) {
	props, err := encodeProperties(o)
	if err != nil {
		return nil, err
	}
	d.Set("properties", props)
	if h, ok := o.(geometryHolder); ok {
		if g, ok := d.Get("geometry"); ok {
			if gd, ok := g.(*Document); ok {
				for _, f := range h.GeometryExtraFields() {
					if !gd.Has(f.Key) {
						gd.Set(f.Key, f.Value)
					}
				}
			}
		}
	}
	if ud := o.UserData(); ud != nil {
		d.Set("user_data", ud)
	}
	for _, f := range o.ExtraFields() {
		if !d.Has(f.Key) {
			d.Set(f.Key, f.Value)
		}
	}
	return d, nil
}

func encodeProperties(o model.Object) (*Document, error) {
	p := o.Properties()
	d := NewDocument().Set("type", p.TypeName())
	blocks, err := p.Encode()
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q properties", o.Kind(), o.Identifier())
	}
	for _, b := range blocks {
		d.Set(b.Name, json.RawMessage(b.Data))
	}
	return d, nil
}

func setList[T model.Object](d *Document, key string, items []T, enc func(T) (*Document, error)) error {
	if len(items) == 0 {
		return nil
	}
	out := make([]any, len(items))
	for i, it := range items {
		c, err := enc(it)
		if err != nil {
			return err
		}
		out[i] = c
	}
	d.Set(key, out)
	return nil
}

func setShades(d *Document, indoor, outdoor []*model.Shade) error {
	if err := setList(d, "indoor_shades", indoor, encodeShade); err != nil {
		return err
	}
	return setList(d, "outdoor_shades", outdoor, encodeShade)
}

func encodeBC(bc model.BoundaryCondition) *Document {
	d := NewDocument().Set("type", bc.Name())
	switch v := bc.(type) {
	case model.Outdoors:
		d.Set("sun_exposure", !v.NoSunExposure)
		d.Set("wind_exposure", !v.NoWindExposure)
		if v.ViewFactor != nil {
			d.Set("view_factor", *v.ViewFactor)
		} else {
			d.Set("view_factor", NewDocument().Set("type", "Autocalculate"))
		}
	case model.Surface:
		objs := make([]any, len(v.Objects))
		for i, id := range v.Objects {
			objs[i] = id
		}
		d.Set("boundary_condition_objects", objs)
	}
	return d
}

// encodePoint and the other geometry encoders build []any values so a
// document made here reads back the same way as one parsed from JSON.
func encodePoint(p geometry.Vec3) []any {
	return []any{p.X, p.Y, p.Z}
}

func encodeLoop(loop []geometry.Vec3) []any {
	out := make([]any, len(loop))
	for i, p := range loop {
		out[i] = encodePoint(p)
	}
	return out
}

func encodeFace3D(f geometry.Face3D) *Document {
	d := NewDocument().
		Set("type", "Face3D").
		Set("boundary", encodeLoop(f.Boundary))
	if f.HasHoles() {
		holes := make([]any, len(f.Holes))
		for i, h := range f.Holes {
			holes[i] = encodeLoop(h)
		}
		d.Set("holes", holes)
	}
	return d
}

func encodeMesh3D(m *geometry.Mesh3D) *Document {
	faces := make([]any, len(m.Faces))
	for i, f := range m.Faces {
		idx := make([]any, len(f))
		for j, v := range f {
			idx[j] = v
		}
		faces[i] = idx
	}
	return NewDocument().
		Set("type", "Mesh3D").
		Set("vertices", encodeLoop(m.Vertices)).
		Set("faces", faces)
}
