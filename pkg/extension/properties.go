package extension

import (
	"encoding/json"
	"fmt"
)

type entry struct {
	name    string
	payload Payload         // nil for opaque entries
	raw     json.RawMessage // set for opaque entries
}

// Properties holds the extension payloads of one object in insertion order.
// It is not safe for concurrent use.
type Properties struct {
	host    string
	reg     *Registry
	entries []entry
}

// NewProperties returns an empty container for an object of type host,
// resolving codecs through the Default registry.
func NewProperties(host string) *Properties {
	return NewPropertiesWith(Default, host)
}

// NewPropertiesWith is like NewProperties with an explicit registry.
func NewPropertiesWith(reg *Registry, host string) *Properties {
	return &Properties{host: host, reg: reg}
}

// Host returns the object type the container belongs to.
func (p *Properties) Host() string {
	return p.host
}

// TypeName returns the document tag of the container, e.g. "FaceProperties".
func (p *Properties) TypeName() string {
	return p.host + "Properties"
}

func (p *Properties) index(name string) int {
	for i, e := range p.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

// Has reports whether a payload, typed or opaque, exists for name.
func (p *Properties) Has(name string) bool {
	return p.index(name) >= 0
}

// Get returns the typed payload for name. Opaque entries report false.
func (p *Properties) Get(name string) (Payload, bool) {
	i := p.index(name)
	if i < 0 || p.entries[i].payload == nil {
		return nil, false
	}
	return p.entries[i].payload, true
}

// GetOrCreate returns the payload for name, creating the extension's
// default payload if none exists yet.
func (p *Properties) GetOrCreate(name string) (Payload, error) {
	if pl, ok := p.Get(name); ok {
		return pl, nil
	}
	c, err := p.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	pl := c.New(p.host)
	if i := p.index(name); i >= 0 {
		p.entries[i] = entry{name: name, payload: pl}
	} else {
		p.entries = append(p.entries, entry{name: name, payload: pl})
	}
	return pl, nil
}

// Set stores a payload for a registered extension, replacing any existing
// one in place.
func (p *Properties) Set(name string, pl Payload) error {
	if _, err := p.reg.Lookup(name); err != nil {
		return err
	}
	if pl == nil {
		return fmt.Errorf("extension %q: nil payload", name)
	}
	p.put(entry{name: name, payload: pl})
	return nil
}

// SetRaw stores an opaque payload. It is used for extensions that are not
// registered in this process.
func (p *Properties) SetRaw(name string, raw json.RawMessage) {
	p.put(entry{name: name, raw: append(json.RawMessage(nil), raw...)})
}

// Raw returns the opaque payload for name.
func (p *Properties) Raw(name string) (json.RawMessage, bool) {
	i := p.index(name)
	if i < 0 || p.entries[i].payload != nil {
		return nil, false
	}
	return p.entries[i].raw, true
}

// IsOpaque reports whether name holds an uninterpreted payload.
func (p *Properties) IsOpaque(name string) bool {
	_, ok := p.Raw(name)
	return ok
}

func (p *Properties) put(e entry) {
	if i := p.index(e.name); i >= 0 {
		p.entries[i] = e
		return
	}
	p.entries = append(p.entries, e)
}

// Remove deletes the payload for name and reports whether one existed.
func (p *Properties) Remove(name string) bool {
	i := p.index(name)
	if i < 0 {
		return false
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	return true
}

// Names returns the extension names in insertion order.
func (p *Properties) Names() []string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of payloads.
func (p *Properties) Len() int {
	return len(p.entries)
}

// Clone returns a deep copy. Typed payloads are copied with their own Clone.
func (p *Properties) Clone() *Properties {
	out := &Properties{host: p.host, reg: p.reg, entries: make([]entry, len(p.entries))}
	for i, e := range p.entries {
		c := entry{name: e.name}
		if e.payload != nil {
			c.payload = e.payload.Clone()
		} else {
			c.raw = append(json.RawMessage(nil), e.raw...)
		}
		out.entries[i] = c
	}
	return out
}

// Encoded is one extension block of an encoded Properties container.
type Encoded struct {
	Name string
	Data json.RawMessage
}

// Encode returns every payload as JSON, in insertion order. Opaque payloads
// are returned verbatim.
func (p *Properties) Encode() ([]Encoded, error) {
	out := make([]Encoded, 0, len(p.entries))
	for _, e := range p.entries {
		if e.payload == nil {
			out = append(out, Encoded{Name: e.name, Data: e.raw})
			continue
		}
		c, err := p.reg.Lookup(e.name)
		if err != nil {
			return nil, err
		}
		data, err := c.Encode(e.payload)
		if err != nil {
			return nil, fmt.Errorf("encode extension %q: %w", e.name, err)
		}
		out = append(out, Encoded{Name: e.name, Data: data})
	}
	return out, nil
}

// Decode adds the payload for name from raw JSON. Unregistered names are
// stored opaquely and the returned error wraps ErrNotRegistered; the
// container is usable either way. Other errors come from the codec and
// leave the container unchanged.
func (p *Properties) Decode(name string, raw json.RawMessage) error {
	c, err := p.reg.Lookup(name)
	if err != nil {
		p.SetRaw(name, raw)
		return err
	}
	pl, err := c.Decode(p.host, raw)
	if err != nil {
		return fmt.Errorf("decode extension %q: %w", name, err)
	}
	p.put(entry{name: name, payload: pl})
	return nil
}
