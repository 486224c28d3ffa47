package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/model"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms model script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: room-box -> room_box
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geometry.Vec3.
type sexpVec3 struct {
	vec geometry.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpObject refers to an object of the model being built.
type sexpObject struct {
	obj model.Object
}

func (o *sexpObject) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", strings.ToLower(o.obj.Kind()), o.obj.Identifier())
}
func (o *sexpObject) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value - treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_feet) and plain strings ("feet").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool accepts zygomys booleans.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geometry.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geometry.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toObject extracts the object of a sexpObject.
func toObject(s zygo.Sexp) (model.Object, error) {
	if o, ok := s.(*sexpObject); ok {
		return o.obj, nil
	}
	return nil, fmt.Errorf("expected object reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPoints reads polygon vertices given either as separate vec3 arguments
// or as one list of them.
func toPoints(args []zygo.Sexp) ([]geometry.Vec3, error) {
	if len(args) == 1 {
		items, err := sexpListToSlice(args[0])
		if err != nil {
			return nil, err
		}
		args = items
	}
	pts := make([]geometry.Vec3, len(args))
	for i, a := range args {
		p, err := toVec3(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts[i] = p
	}
	return pts, nil
}

// optVec3 returns the vec3 keyword argument name, or def when absent.
func (pa kwArgs) optVec3(name string, def geometry.Vec3) (geometry.Vec3, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	return toVec3(v)
}

// optFloat returns the numeric keyword argument name, or def when absent.
func (pa kwArgs) optFloat(name string, def float64) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	return toFloat64(v)
}

// optBool returns the boolean keyword argument name. A bare keyword counts
// as true.
func (pa kwArgs) optBool(name string) (bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return false, nil
	}
	if v == zygo.SexpNull {
		return true, nil
	}
	return toBool(v)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// session is the state shared by the builtins of one evaluation.
type session struct {
	model     *model.Model
	adjacency model.AdjacencyOptions
}

// transformable is implemented by every object the transform builtins
// accept.
type transformable interface {
	model.Object
	Move(v geometry.Vec3)
	RotateXY(angle float64, origin geometry.Vec3)
	Scale(factor float64, origin geometry.Vec3)
	Reflect(plane geometry.Plane)
}

// builtin is the signature zygomys expects for Go functions.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the model scripting builtins into a zygomys
// environment. They operate on the session's model, populating it during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	for name, fn := range map[string]builtin{
		"vec3":               s.vec3,
		"units":              s.units,
		"room_box":           s.roomBox,
		"object_ref":         s.objectRef,
		"apertures_by_ratio": s.aperturesByRatio,
		"shade":              s.shade,
		"display_name":       s.displayName,
		"set_multiplier":     s.setMultiplier,
		"story":              s.story,
		"move":               s.move,
		"rotate_xy":          s.rotateXY,
		"scale":              s.scale,
		"reflect":            s.reflect,
		"solve_adjacency":    s.solveAdjacency,
	} {
		env.AddFunction(name, fn)
	}
}

// (vec3 x y z)
func (s *session) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: geometry.V(c[0], c[1], c[2])}, nil
}

// (units :feet) converts the model, and everything already in it, to new units.
func (s *session) units(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("units requires one argument")
	}
	kw, err := toKeywordString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("units: %w", err)
	}
	for _, u := range model.AllUnits {
		if strings.EqualFold(string(u), kw) {
			if err := s.model.ConvertToUnits(u); err != nil {
				return zygo.SexpNull, fmt.Errorf("units: %w", err)
			}
			return &zygo.SexpStr{S: string(u)}, nil
		}
	}
	return zygo.SexpNull, fmt.Errorf("units: unknown units %q", kw)
}

// (room-box "Office" :width 4 :depth 5 :height 3 :origin (vec3 0 0 0) :orientation 0)
func (s *session) roomBox(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("room-box requires an identifier")
	}
	id, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("room-box: identifier: %w", err)
	}
	var dims [3]float64
	for i, key := range []string{"width", "depth", "height"} {
		v, ok := pa.kw[key]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("room-box: missing :%s", key)
		}
		if dims[i], err = toFloat64(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("room-box: %s: %w", key, err)
		}
	}
	origin, err := pa.optVec3("origin", geometry.Vec3{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("room-box: origin: %w", err)
	}
	orientation, err := pa.optFloat("orientation", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("room-box: orientation: %w", err)
	}

	r, err := model.NewRoomFromBox(id, dims[0], dims[1], dims[2], orientation, origin)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("room-box: %w", err)
	}
	if err := s.model.AddRoom(r); err != nil {
		return zygo.SexpNull, fmt.Errorf("room-box: %w", err)
	}
	return &sexpObject{obj: r}, nil
}

// (object-ref "Office_Front")
func (s *session) objectRef(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("object-ref requires an identifier")
	}
	id, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("object-ref: %w", err)
	}
	o, ok := s.model.FindByID(id)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("object-ref: no object named %q", id)
	}
	return &sexpObject{obj: o}, nil
}

// (apertures-by-ratio target 0.4) glazes a face, or every outdoor wall of
// a room.
func (s *session) aperturesByRatio(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("apertures-by-ratio requires a target and a ratio")
	}
	target, err := toObject(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("apertures-by-ratio: target: %w", err)
	}
	ratio, err := toFloat64(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("apertures-by-ratio: ratio: %w", err)
	}

	var faces []*model.Face
	switch t := target.(type) {
	case *model.Face:
		faces = []*model.Face{t}
	case *model.Room:
		for _, f := range t.Faces() {
			if _, outdoors := f.BoundaryCondition().(model.Outdoors); outdoors && f.Type() == model.Wall {
				faces = append(faces, f)
			}
		}
	default:
		return zygo.SexpNull, fmt.Errorf("apertures-by-ratio: expected a face or room, got %s", target.Kind())
	}
	for _, f := range faces {
		if err := f.AperturesByRatio(ratio); err != nil {
			return zygo.SexpNull, fmt.Errorf("apertures-by-ratio: %w", err)
		}
	}
	return &zygo.SexpInt{Val: int64(len(faces))}, nil
}

// (shade "Overhang" p1 p2 p3 ... :on face :indoor true :detached true)
// Without :on the shade is added to the model as an orphan.
func (s *session) shade(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 2 {
		return zygo.SexpNull, fmt.Errorf("shade requires an identifier and at least 3 points")
	}
	id, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: identifier: %w", err)
	}
	pts, err := toPoints(pa.positional[1:])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: %w", err)
	}
	sh, err := model.NewShade(id, geometry.NewFace3D(pts))
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: %w", err)
	}
	if sh.IsDetached, err = pa.optBool("detached"); err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: detached: %w", err)
	}
	indoor, err := pa.optBool("indoor")
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: indoor: %w", err)
	}

	on, ok := pa.kw["on"]
	if !ok {
		if err := s.model.AddOrphanedShade(sh); err != nil {
			return zygo.SexpNull, fmt.Errorf("shade: %w", err)
		}
		return &sexpObject{obj: sh}, nil
	}
	host, err := toObject(on)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: on: %w", err)
	}
	type shadeHost interface {
		AddIndoorShade(*model.Shade) error
		AddOutdoorShade(*model.Shade) error
	}
	h, ok := host.(shadeHost)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("shade: %s %q cannot hold shades", host.Kind(), host.Identifier())
	}
	add := h.AddOutdoorShade
	if indoor {
		add = h.AddIndoorShade
	}
	if err := add(sh); err != nil {
		return zygo.SexpNull, fmt.Errorf("shade: %w", err)
	}
	return &sexpObject{obj: sh}, nil
}

// (display-name ref "Open Office")
func (s *session) displayName(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("display-name requires a reference and a name")
	}
	o, err := toObject(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("display-name: %w", err)
	}
	dn, err := toString(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("display-name: %w", err)
	}
	o.SetDisplayName(dn)
	return args[0], nil
}

func toRoom(fn string, s zygo.Sexp) (*model.Room, error) {
	o, err := toObject(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	r, ok := o.(*model.Room)
	if !ok {
		return nil, fmt.Errorf("%s: expected a room, got %s", fn, o.Kind())
	}
	return r, nil
}

// (set-multiplier room 3)
func (s *session) setMultiplier(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("set-multiplier requires a room and a count")
	}
	r, err := toRoom("set-multiplier", args[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	n, err := toInt(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("set-multiplier: %w", err)
	}
	if n < 1 {
		return zygo.SexpNull, fmt.Errorf("set-multiplier: multiplier must be at least 1, got %d", n)
	}
	r.Multiplier = n
	return args[0], nil
}

// (story room "Level_1")
func (s *session) story(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("story requires a room and a name")
	}
	r, err := toRoom("story", args[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	if r.Story, err = toString(args[1]); err != nil {
		return zygo.SexpNull, fmt.Errorf("story: %w", err)
	}
	return args[0], nil
}

// transformTarget reads the object argument of a transform builtin.
func transformTarget(fn string, s zygo.Sexp) (transformable, error) {
	o, err := toObject(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	t, ok := o.(transformable)
	if !ok {
		return nil, fmt.Errorf("%s: %s %q cannot be transformed", fn, o.Kind(), o.Identifier())
	}
	return t, nil
}

// (move ref (vec3 dx dy dz))
func (s *session) move(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("move requires a reference and a vector")
	}
	t, err := transformTarget("move", args[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	v, err := toVec3(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("move: %w", err)
	}
	t.Move(v)
	return args[0], nil
}

// (rotate-xy ref 90 :origin (vec3 0 0 0))
func (s *session) rotateXY(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("rotate-xy requires a reference and an angle")
	}
	t, err := transformTarget("rotate-xy", pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	angle, err := toFloat64(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate-xy: angle: %w", err)
	}
	origin, err := pa.optVec3("origin", geometry.Vec3{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate-xy: origin: %w", err)
	}
	t.RotateXY(angle, origin)
	return pa.positional[0], nil
}

// (scale ref 2 :origin (vec3 0 0 0))
func (s *session) scale(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("scale requires a reference and a factor")
	}
	t, err := transformTarget("scale", pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	factor, err := toFloat64(pa.positional[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("scale: factor: %w", err)
	}
	if factor <= 0 {
		return zygo.SexpNull, fmt.Errorf("scale: factor must be positive, got %g", factor)
	}
	origin, err := pa.optVec3("origin", geometry.Vec3{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("scale: origin: %w", err)
	}
	t.Scale(factor, origin)
	return pa.positional[0], nil
}

// (reflect ref :normal (vec3 1 0 0) :origin (vec3 0 0 0))
func (s *session) reflect(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("reflect requires a reference")
	}
	t, err := transformTarget("reflect", pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	n, ok := pa.kw["normal"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("reflect: missing :normal")
	}
	normal, err := toVec3(n)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("reflect: normal: %w", err)
	}
	if normal.Length() == 0 {
		return zygo.SexpNull, fmt.Errorf("reflect: normal must not be zero")
	}
	origin, err := pa.optVec3("origin", geometry.Vec3{})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("reflect: origin: %w", err)
	}
	t.Reflect(geometry.NewPlane(normal, origin))
	return pa.positional[0], nil
}

// (solve-adjacency :tie-break :first-match :reset-unmatched true) returns
// the number of adjacent face pairs.
func (s *session) solveAdjacency(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	opts := s.adjacency
	if v, ok := pa.kw["tie-break"]; ok {
		kw, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solve-adjacency: tie-break: %w", err)
		}
		if opts.TieBreak, err = model.ParseTieBreak(strings.ReplaceAll(kw, "-", "_")); err != nil {
			return zygo.SexpNull, fmt.Errorf("solve-adjacency: %w", err)
		}
	}
	if _, ok := pa.kw["reset-unmatched"]; ok {
		reset, err := pa.optBool("reset-unmatched")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solve-adjacency: reset-unmatched: %w", err)
		}
		opts.ResetUnmatched = reset
	}

	res, err := s.model.SolveAdjacency(opts)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("solve-adjacency: %w", err)
	}
	return &zygo.SexpInt{Val: int64(len(res.Faces) + len(res.Kept))}, nil
}
