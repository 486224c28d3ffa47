package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Document is a JSON object that remembers the order of its keys.
//
// Values are nil, bool, string, json.Number (or any Go number when set by
// the encoder), []any, *Document, json.RawMessage, or anything else that
// encoding/json can marshal.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Set stores v under key. A new key goes last; an existing key keeps its
// position.
func (d *Document) Set(key string, v any) *Document {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
	return d
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Delete removes key and reports whether it existed.
func (d *Document) Delete(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the keys in order.
func (d *Document) Keys() []string {
	return slices.Clone(d.keys)
}

func (d *Document) Len() int {
	return len(d.keys)
}

// Type returns the "type" tag, or "" when it is missing or not a string.
func (d *Document) Type() string {
	s, _ := d.values["type"].(string)
	return s
}

// MarshalJSON writes the keys in order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents of d with a JSON object. Nested
// objects become *Document and numbers become json.Number.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level object")
	}
	doc, ok := v.(*Document)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %s", describe(v))
	}
	*d = *doc
	return nil
}

// Parse decodes a JSON object into a Document. Malformed input fails with
// a *DecodeError.
func Parse(data []byte) (*Document, error) {
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return d, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		d := NewDocument()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T", kt)
			}
			v, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			d.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return d, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// plain converts parsed document values into plain Go values: objects
// become map[string]any, integers written without a fraction or exponent
// int, and other numbers float64.
func plain(v any) any {
	switch t := v.(type) {
	case *Document:
		m := make(map[string]any, t.Len())
		for _, k := range t.keys {
			m[k] = plain(t.values[k])
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, strconv.IntSize); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case json.Number, float64, int:
		return "a number"
	case []any:
		return "an array"
	case *Document, map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
