package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/chazu/hbcore/pkg/geometry"
)

// reader gives path-aware access to the fields of one object document.
type reader struct {
	doc  *Document
	typ  string
	path []string
}

func (r reader) at(key string) []string {
	return append(slices.Clone(r.path), key)
}

// fail reports a problem with field key, or with the object when key is "".
func (r reader) fail(key, format string, args ...any) error {
	p := r.path
	if key != "" {
		p = r.at(key)
	}
	return &DecodeError{Type: r.typ, Path: p, Err: fmt.Errorf(format, args...)}
}

// wrap attaches the object path to an error from the model.
func (r reader) wrap(err error) error {
	return &DecodeError{Type: r.typ, Path: r.path, Err: err}
}

func (r reader) expect(kind string) error {
	t, err := r.str("type")
	if err != nil {
		return err
	}
	if t != kind {
		return r.fail("type", "expected %q, got %q", kind, t)
	}
	return nil
}

func (r reader) value(key string) (any, bool) {
	v, ok := r.doc.Get(key)
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

func (r reader) str(key string) (string, error) {
	s, ok, err := r.optStr(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", r.fail(key, "missing required field")
	}
	return s, nil
}

func (r reader) optStr(key string) (string, bool, error) {
	v, ok := r.value(key)
	if !ok {
		return "", false, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", false, r.fail(key, "expected a string, got %s", describe(v))
	}
	return s, true, nil
}

func (r reader) optBool(key string, def bool) (bool, error) {
	v, ok := r.value(key)
	if !ok {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, r.fail(key, "expected a boolean, got %s", describe(v))
	}
	return b, nil
}

func (r reader) optNum(key string) (float64, bool, error) {
	v, ok := r.value(key)
	if !ok {
		return 0, false, nil
	}
	f, isNum := toFloat(v)
	if !isNum {
		return 0, false, r.fail(key, "expected a number, got %s", describe(v))
	}
	return f, true, nil
}

func (r reader) optInt(key string) (int, bool, error) {
	f, ok, err := r.optNum(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false, r.fail(key, "expected an integer, got %v", f)
	}
	return int(f), true, nil
}

// child returns the object stored under key.
func (r reader) child(key string) (reader, bool, error) {
	v, ok := r.value(key)
	if !ok {
		return reader{}, false, nil
	}
	d, isDoc := v.(*Document)
	if !isDoc {
		return reader{}, false, r.fail(key, "expected an object, got %s", describe(v))
	}
	return reader{doc: d, typ: r.typ, path: r.at(key)}, true, nil
}

// list returns the objects of the array under key. Each element's type is
// taken from its own "type" tag, defaulting to kind.
func (r reader) list(key, kind string) ([]reader, error) {
	v, ok := r.value(key)
	if !ok {
		return nil, nil
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil, r.fail(key, "expected an array, got %s", describe(v))
	}
	out := make([]reader, len(arr))
	for i, e := range arr {
		p := append(r.at(key), strconv.Itoa(i))
		d, isDoc := e.(*Document)
		if !isDoc {
			return nil, &DecodeError{Type: kind, Path: p, Err: fmt.Errorf("expected an object, got %s", describe(e))}
		}
		out[i] = reader{doc: d, typ: kind, path: p}
	}
	return out, nil
}

func (r reader) strings(key string) ([]string, error) {
	v, ok := r.value(key)
	if !ok {
		return nil, r.fail(key, "missing required field")
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil, r.fail(key, "expected an array, got %s", describe(v))
	}
	out := make([]string, len(arr))
	for i, e := range arr {
		s, isStr := e.(string)
		if !isStr {
			return nil, r.fail(key, "element %d: expected a string, got %s", i, describe(e))
		}
		out[i] = s
	}
	return out, nil
}

// points reads an array of [x, y, z] triples.
func (r reader) points(key string) ([]geometry.Vec3, error) {
	v, ok := r.value(key)
	if !ok {
		return nil, r.fail(key, "missing required field")
	}
	return r.loop(key, v)
}

func (r reader) loop(key string, v any) ([]geometry.Vec3, error) {
	arr, isArr := v.([]any)
	if !isArr {
		return nil, r.fail(key, "expected an array of points, got %s", describe(v))
	}
	out := make([]geometry.Vec3, len(arr))
	for i, e := range arr {
		p, ok := toPoint(e)
		if !ok {
			return nil, r.fail(key, "point %d: expected [x, y, z]", i)
		}
		out[i] = p
	}
	return out, nil
}

func toPoint(v any) (geometry.Vec3, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return geometry.Vec3{}, false
	}
	var c [3]float64
	for i, e := range arr {
		f, ok := toFloat(e)
		if !ok {
			return geometry.Vec3{}, false
		}
		c[i] = f
	}
	return geometry.V(c[0], c[1], c[2]), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
