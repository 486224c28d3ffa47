package schema

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/chazu/hbcore/internal/logging"
	"github.com/chazu/hbcore/pkg/extension"
	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/model"
)

var logger = logging.New("schema")

var commonKeys = []string{"type", "identifier", "display_name", "properties", "user_data"}

var knownKeys = map[string][]string{
	model.KindModel: {"version", "units", "tolerance", "angle_tolerance", "north_angle", "rooms",
		"orphaned_faces", "orphaned_shades", "orphaned_apertures", "orphaned_doors", "shade_meshes"},
	model.KindRoom:      {"faces", "indoor_shades", "outdoor_shades", "multiplier", "exclude_floor_area", "story"},
	model.KindFace:      {"geometry", "face_type", "boundary_condition", "apertures", "doors", "indoor_shades", "outdoor_shades"},
	model.KindAperture:  {"geometry", "boundary_condition", "is_operable", "indoor_shades", "outdoor_shades"},
	model.KindDoor:      {"geometry", "boundary_condition", "is_glass", "indoor_shades", "outdoor_shades"},
	model.KindShade:     {"geometry", "is_detached"},
	model.KindShadeMesh: {"geometry", "is_detached"},
}

// FromDocument decodes an object document of any type, dispatching on its
// "type" tag.
func FromDocument(doc *Document) (model.Object, error) {
	if doc == nil {
		return nil, &DecodeError{Err: errors.New("nil document")}
	}
	r := reader{doc: doc}
	typ, err := r.str("type")
	if err != nil {
		return nil, err
	}
	r.typ = typ
	switch typ {
	case model.KindModel:
		return decodeModel(r)
	case model.KindRoom:
		return decodeRoom(r, nil)
	case model.KindFace:
		f, finish, err := decodeFace(r)
		if err != nil {
			return nil, err
		}
		return f, finish()
	case model.KindAperture:
		a, finish, err := decodeAperture(r)
		if err != nil {
			return nil, err
		}
		return a, finish()
	case model.KindDoor:
		d, finish, err := decodeDoor(r)
		if err != nil {
			return nil, err
		}
		return d, finish()
	case model.KindShade:
		return decodeShade(r)
	case model.KindShadeMesh:
		return decodeShadeMesh(r)
	}
	return nil, r.fail("type", "unknown object type %q", typ)
}

// DecodeModel decodes a Model document.
func DecodeModel(doc *Document) (*model.Model, error) {
	if doc == nil {
		return nil, &DecodeError{Err: errors.New("nil document")}
	}
	return decodeModel(reader{doc: doc, typ: model.KindModel})
}

func decodeModel(r reader) (*model.Model, error) {
	if err := r.expect(model.KindModel); err != nil {
		return nil, err
	}
	id, err := r.str("identifier")
	if err != nil {
		return nil, err
	}
	m, err := model.NewModel(id)
	if err != nil {
		return nil, r.wrap(err)
	}
	if v, ok, err := r.optStr("version"); err != nil {
		return nil, err
	} else if ok {
		if err := checkVersion(v); err != nil {
			return nil, r.fail("version", "%v", err)
		}
	}
	if u, ok, err := r.optStr("units"); err != nil {
		return nil, err
	} else if ok {
		if m.Units, err = model.ParseUnits(u); err != nil {
			return nil, r.fail("units", "%v", err)
		}
	}
	if t, ok, err := r.optNum("tolerance"); err != nil {
		return nil, err
	} else if ok {
		if t <= 0 {
			return nil, r.fail("tolerance", "must be positive, got %v", t)
		}
		m.Tolerance = t
	}
	if a, ok, err := r.optNum("angle_tolerance"); err != nil {
		return nil, err
	} else if ok {
		if a <= 0 {
			return nil, r.fail("angle_tolerance", "must be positive, got %v", a)
		}
		m.AngleTolerance = a
	}
	if n, ok, err := r.optNum("north_angle"); err != nil {
		return nil, err
	} else if ok {
		m.NorthAngle = n
	}
	if err := decodeCommon(r, m); err != nil {
		return nil, err
	}

	rooms, err := r.list("rooms", model.KindRoom)
	if err != nil {
		return nil, err
	}
	for _, rr := range rooms {
		if _, err := decodeRoom(rr, m.AddRoom); err != nil {
			return nil, err
		}
	}

	faces, err := r.list("orphaned_faces", model.KindFace)
	if err != nil {
		return nil, err
	}
	for _, fr := range faces {
		f, finish, err := decodeFace(fr)
		if err != nil {
			return nil, err
		}
		if err := m.AddOrphanedFace(f); err != nil {
			return nil, fr.wrap(err)
		}
		if err := finish(); err != nil {
			return nil, err
		}
	}

	shades, err := r.list("orphaned_shades", model.KindShade)
	if err != nil {
		return nil, err
	}
	for _, sr := range shades {
		s, err := decodeShade(sr)
		if err != nil {
			return nil, err
		}
		if err := m.AddOrphanedShade(s); err != nil {
			return nil, sr.wrap(err)
		}
	}

	aps, err := r.list("orphaned_apertures", model.KindAperture)
	if err != nil {
		return nil, err
	}
	for _, ar := range aps {
		a, finish, err := decodeAperture(ar)
		if err != nil {
			return nil, err
		}
		if err := m.AddOrphanedAperture(a); err != nil {
			return nil, ar.wrap(err)
		}
		if err := finish(); err != nil {
			return nil, err
		}
	}

	doors, err := r.list("orphaned_doors", model.KindDoor)
	if err != nil {
		return nil, err
	}
	for _, dr := range doors {
		d, finish, err := decodeDoor(dr)
		if err != nil {
			return nil, err
		}
		if err := m.AddOrphanedDoor(d); err != nil {
			return nil, dr.wrap(err)
		}
		if err := finish(); err != nil {
			return nil, err
		}
	}

	meshes, err := r.list("shade_meshes", model.KindShadeMesh)
	if err != nil {
		return nil, err
	}
	for _, sr := range meshes {
		s, err := decodeShadeMesh(sr)
		if err != nil {
			return nil, err
		}
		if err := m.AddShadeMesh(s); err != nil {
			return nil, sr.wrap(err)
		}
	}
	return m, nil
}

// decodeRoom builds a room. attach, when set, adds the room to its model
// before apertures, doors and shades are inserted, so those are checked
// with the model tolerances and identifier index.
func decodeRoom(r reader, attach func(*model.Room) error) (*model.Room, error) {
	if err := r.expect(model.KindRoom); err != nil {
		return nil, err
	}
	id, err := r.str("identifier")
	if err != nil {
		return nil, err
	}
	frs, err := r.list("faces", model.KindFace)
	if err != nil {
		return nil, err
	}
	if len(frs) == 0 {
		return nil, r.fail("faces", "a room needs at least one face")
	}
	faces := make([]*model.Face, len(frs))
	finishes := make([]func() error, len(frs))
	for i, fr := range frs {
		if faces[i], finishes[i], err = decodeFace(fr); err != nil {
			return nil, err
		}
	}
	room, err := model.NewRoom(id, faces)
	if err != nil {
		return nil, r.wrap(err)
	}
	if mult, ok, err := r.optInt("multiplier"); err != nil {
		return nil, err
	} else if ok {
		if mult < 1 {
			return nil, r.fail("multiplier", "must be at least 1, got %d", mult)
		}
		room.Multiplier = mult
	}
	if room.ExcludeFloorArea, err = r.optBool("exclude_floor_area", false); err != nil {
		return nil, err
	}
	if room.Story, _, err = r.optStr("story"); err != nil {
		return nil, err
	}
	if err := decodeCommon(r, room); err != nil {
		return nil, err
	}

	if attach != nil {
		if err := attach(room); err != nil {
			return nil, r.wrap(err)
		}
	}
	for _, finish := range finishes {
		if err := finish(); err != nil {
			return nil, err
		}
	}
	if err := decodeShades(r, room.AddIndoorShade, room.AddOutdoorShade); err != nil {
		return nil, err
	}
	return room, nil
}

// decodeFace builds a face without its apertures, doors and shades, which
// the returned function adds once the face has its final owner.
func decodeFace(r reader) (*model.Face, func() error, error) {
	if err := r.expect(model.KindFace); err != nil {
		return nil, nil, err
	}
	id, err := r.str("identifier")
	if err != nil {
		return nil, nil, err
	}
	geom, err := decodeFace3D(r, "geometry")
	if err != nil {
		return nil, nil, err
	}
	ts, err := r.str("face_type")
	if err != nil {
		return nil, nil, err
	}
	ft := model.FaceType(ts)
	if !ft.Valid() {
		return nil, nil, r.fail("face_type", "unknown face type %q", ts)
	}
	bc, err := decodeBC(r, "boundary_condition")
	if err != nil {
		return nil, nil, err
	}
	f, err := model.NewFace(id, geom, ft, bc)
	if err != nil {
		return nil, nil, r.wrap(err)
	}
	if err := decodeCommon(r, f); err != nil {
		return nil, nil, err
	}

	finish := func() error {
		aps, err := r.list("apertures", model.KindAperture)
		if err != nil {
			return err
		}
		for _, ar := range aps {
			a, done, err := decodeAperture(ar)
			if err != nil {
				return err
			}
			if err := f.AddAperture(a); err != nil {
				return ar.wrap(err)
			}
			if err := done(); err != nil {
				return err
			}
		}
		doors, err := r.list("doors", model.KindDoor)
		if err != nil {
			return err
		}
		for _, dr := range doors {
			d, done, err := decodeDoor(dr)
			if err != nil {
				return err
			}
			if err := f.AddDoor(d); err != nil {
				return dr.wrap(err)
			}
			if err := done(); err != nil {
				return err
			}
		}
		return decodeShades(r, f.AddIndoorShade, f.AddOutdoorShade)
	}
	return f, finish, nil
}

func decodeAperture(r reader) (*model.Aperture, func() error, error) {
	if err := r.expect(model.KindAperture); err != nil {
		return nil, nil, err
	}
	id, geom, bc, err := decodeSubFace(r)
	if err != nil {
		return nil, nil, err
	}
	a, err := model.NewAperture(id, geom)
	if err != nil {
		return nil, nil, r.wrap(err)
	}
	if err := a.SetBoundaryCondition(bc); err != nil {
		return nil, nil, r.wrap(err)
	}
	if a.IsOperable, err = r.optBool("is_operable", false); err != nil {
		return nil, nil, err
	}
	if err := decodeCommon(r, a); err != nil {
		return nil, nil, err
	}
	return a, func() error { return decodeShades(r, a.AddIndoorShade, a.AddOutdoorShade) }, nil
}

func decodeDoor(r reader) (*model.Door, func() error, error) {
	if err := r.expect(model.KindDoor); err != nil {
		return nil, nil, err
	}
	id, geom, bc, err := decodeSubFace(r)
	if err != nil {
		return nil, nil, err
	}
	d, err := model.NewDoor(id, geom)
	if err != nil {
		return nil, nil, r.wrap(err)
	}
	if err := d.SetBoundaryCondition(bc); err != nil {
		return nil, nil, r.wrap(err)
	}
	if d.IsGlass, err = r.optBool("is_glass", false); err != nil {
		return nil, nil, err
	}
	if err := decodeCommon(r, d); err != nil {
		return nil, nil, err
	}
	return d, func() error { return decodeShades(r, d.AddIndoorShade, d.AddOutdoorShade) }, nil
}

func decodeSubFace(r reader) (string, geometry.Face3D, model.BoundaryCondition, error) {
	id, err := r.str("identifier")
	if err != nil {
		return "", geometry.Face3D{}, nil, err
	}
	geom, err := decodeFace3D(r, "geometry")
	if err != nil {
		return "", geometry.Face3D{}, nil, err
	}
	bc, err := decodeBC(r, "boundary_condition")
	if err != nil {
		return "", geometry.Face3D{}, nil, err
	}
	return id, geom, bc, nil
}

func decodeShade(r reader) (*model.Shade, error) {
	if err := r.expect(model.KindShade); err != nil {
		return nil, err
	}
	id, err := r.str("identifier")
	if err != nil {
		return nil, err
	}
	geom, err := decodeFace3D(r, "geometry")
	if err != nil {
		return nil, err
	}
	s, err := model.NewShade(id, geom)
	if err != nil {
		return nil, r.wrap(err)
	}
	if s.IsDetached, err = r.optBool("is_detached", false); err != nil {
		return nil, err
	}
	return s, decodeCommon(r, s)
}

func decodeShadeMesh(r reader) (*model.ShadeMesh, error) {
	if err := r.expect(model.KindShadeMesh); err != nil {
		return nil, err
	}
	id, err := r.str("identifier")
	if err != nil {
		return nil, err
	}
	mesh, err := decodeMesh3D(r, "geometry")
	if err != nil {
		return nil, err
	}
	s, err := model.NewShadeMesh(id, mesh)
	if err != nil {
		return nil, r.wrap(err)
	}
	if s.IsDetached, err = r.optBool("is_detached", false); err != nil {
		return nil, err
	}
	return s, decodeCommon(r, s)
}

func decodeShades(r reader, addIndoor, addOutdoor func(*model.Shade) error) error {
	for _, side := range []struct {
		key string
		add func(*model.Shade) error
	}{
		{"indoor_shades", addIndoor},
		{"outdoor_shades", addOutdoor},
	} {
		srs, err := r.list(side.key, model.KindShade)
		if err != nil {
			return err
		}
		for _, sr := range srs {
			s, err := decodeShade(sr)
			if err != nil {
				return err
			}
			if err := side.add(s); err != nil {
				return sr.wrap(err)
			}
		}
	}
	return nil
}

// decodeCommon reads the display name, properties, user data and any
// fields the object type does not define.
func decodeCommon(r reader, o model.Object) error {
	if name, ok, err := r.optStr("display_name"); err != nil {
		return err
	} else if ok && name != o.Identifier() {
		o.SetDisplayName(name)
	}
	if err := decodeProperties(r, o); err != nil {
		return err
	}
	if v, ok := r.value("user_data"); ok {
		ud, isMap := plain(v).(map[string]any)
		if !isMap {
			return r.fail("user_data", "expected an object, got %s", describe(v))
		}
		o.SetUserData(ud)
	}

	known := knownKeys[o.Kind()]
	var extra []model.Field
	for _, k := range r.doc.Keys() {
		if slices.Contains(commonKeys, k) || slices.Contains(known, k) {
			continue
		}
		v, _ := r.doc.Get(k)
		raw, err := marshalValue(v)
		if err != nil {
			return r.fail(k, "%v", err)
		}
		extra = append(extra, model.Field{Key: k, Value: raw})
		logger.Warn("keeping unknown field", "type", o.Kind(), "identifier", o.Identifier(), "field", k)
	}
	if extra != nil {
		o.SetExtraFields(extra)
	}
	return decodeGeometryExtras(r, o)
}

// geometryHolder is an object whose document carries a geometry block.
type geometryHolder interface {
	GeometryExtraFields() []model.Field
	SetGeometryExtraFields(fields []model.Field)
}

var geometryKeys = map[string][]string{
	"Face3D": {"type", "boundary", "holes"},
	"Mesh3D": {"type", "vertices", "faces"},
}

// decodeGeometryExtras keeps the keys of a geometry block that the decoder
// does not read, for example the plane other writers store with a Face3D.
func decodeGeometryExtras(r reader, o model.Object) error {
	switch o.Kind() {
	case model.KindFace, model.KindAperture, model.KindDoor, model.KindShade, model.KindShadeMesh:
	default:
		return nil
	}
	h, ok := o.(geometryHolder)
	if !ok {
		return nil
	}
	g, ok, err := r.child("geometry")
	if err != nil || !ok {
		return err
	}
	typ, _, err := g.optStr("type")
	if err != nil {
		return err
	}
	var extra []model.Field
	for _, k := range g.doc.Keys() {
		if slices.Contains(geometryKeys[typ], k) {
			continue
		}
		v, _ := g.doc.Get(k)
		raw, err := marshalValue(v)
		if err != nil {
			return g.fail(k, "%v", err)
		}
		extra = append(extra, model.Field{Key: k, Value: raw})
		logger.Debug("keeping geometry field", "type", o.Kind(), "identifier", o.Identifier(), "field", k)
	}
	if extra != nil {
		h.SetGeometryExtraFields(extra)
	}
	return nil
}

func decodeProperties(r reader, o model.Object) error {
	pr, ok, err := r.child("properties")
	if err != nil || !ok {
		return err
	}
	p := o.Properties()
	if t, ok, err := pr.optStr("type"); err != nil {
		return err
	} else if ok && t != p.TypeName() {
		return pr.fail("type", "expected %q, got %q", p.TypeName(), t)
	}
	for _, name := range pr.doc.Keys() {
		if name == "type" {
			continue
		}
		v, _ := pr.doc.Get(name)
		raw, err := marshalValue(v)
		if err != nil {
			return pr.fail(name, "%v", err)
		}
		if err := p.Decode(name, raw); err != nil {
			if errors.Is(err, extension.ErrNotRegistered) {
				logger.Warn("keeping unregistered extension", "extension", name, "type", o.Kind(), "identifier", o.Identifier())
				continue
			}
			return &DecodeError{Type: r.typ, Path: pr.at(name), Err: err}
		}
	}
	return nil
}

func decodeBC(r reader, key string) (model.BoundaryCondition, error) {
	c, ok, err := r.child(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, r.fail(key, "missing required field")
	}
	t, err := c.str("type")
	if err != nil {
		return nil, err
	}
	switch t {
	case model.BCOutdoors:
		var o model.Outdoors
		sun, err := c.optBool("sun_exposure", true)
		if err != nil {
			return nil, err
		}
		wind, err := c.optBool("wind_exposure", true)
		if err != nil {
			return nil, err
		}
		o.NoSunExposure, o.NoWindExposure = !sun, !wind
		if v, ok := c.value("view_factor"); ok {
			if vf, isNum := toFloat(v); isNum {
				if vf < 0 || vf > 1 {
					return nil, c.fail("view_factor", "must be between 0 and 1, got %v", vf)
				}
				o.ViewFactor = &vf
			} else if d, isDoc := v.(*Document); !isDoc || d.Type() != "Autocalculate" {
				return nil, c.fail("view_factor", "expected a number or Autocalculate")
			}
		}
		return o, nil
	case model.BCGround:
		return model.Ground{}, nil
	case model.BCAdiabatic:
		return model.Adiabatic{}, nil
	case model.BCSurface:
		objs, err := c.strings("boundary_condition_objects")
		if err != nil {
			return nil, err
		}
		return model.Surface{Objects: objs}, nil
	}
	return nil, c.fail("type", "unknown boundary condition %q", t)
}

func decodeFace3D(r reader, key string) (geometry.Face3D, error) {
	g, ok, err := r.child(key)
	if err != nil {
		return geometry.Face3D{}, err
	}
	if !ok {
		return geometry.Face3D{}, r.fail(key, "missing required field")
	}
	if err := g.expect("Face3D"); err != nil {
		return geometry.Face3D{}, err
	}
	boundary, err := g.points("boundary")
	if err != nil {
		return geometry.Face3D{}, err
	}
	var holes [][]geometry.Vec3
	if v, ok := g.value("holes"); ok {
		arr, isArr := v.([]any)
		if !isArr {
			return geometry.Face3D{}, g.fail("holes", "expected an array, got %s", describe(v))
		}
		for _, h := range arr {
			loop, err := g.loop("holes", h)
			if err != nil {
				return geometry.Face3D{}, err
			}
			holes = append(holes, loop)
		}
	}
	return geometry.NewFace3D(boundary, holes...), nil
}

func decodeMesh3D(r reader, key string) (*geometry.Mesh3D, error) {
	g, ok, err := r.child(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, r.fail(key, "missing required field")
	}
	if err := g.expect("Mesh3D"); err != nil {
		return nil, err
	}
	verts, err := g.points("vertices")
	if err != nil {
		return nil, err
	}
	v, ok := g.value("faces")
	if !ok {
		return nil, g.fail("faces", "missing required field")
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil, g.fail("faces", "expected an array, got %s", describe(v))
	}
	mesh := &geometry.Mesh3D{Vertices: verts}
	for i, e := range arr {
		idx, isArr := e.([]any)
		if !isArr {
			return nil, g.fail("faces", "face %d: expected an array of indices", i)
		}
		face := make([]int, len(idx))
		for j, n := range idx {
			f, isNum := toFloat(n)
			if !isNum || f != float64(int(f)) {
				return nil, g.fail("faces", "face %d: expected integer indices", i)
			}
			face[j] = int(f)
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh, nil
}

func checkVersion(v string) error {
	major := v
	for i, c := range v {
		if c == '.' {
			major = v[:i]
			break
		}
	}
	if major != "1" {
		return errors.Errorf("unsupported document version %q", v)
	}
	return nil
}
