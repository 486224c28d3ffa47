package extension

import (
	"encoding/json"
	"fmt"
)

// Value is a Payload holding plain JSON-serializable data.
type Value[T any] struct {
	Data T
}

// Clone deep-copies Data through a JSON round trip.
func (v *Value[T]) Clone() Payload {
	b, err := json.Marshal(v.Data)
	if err != nil {
		return &Value[T]{Data: v.Data}
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return &Value[T]{Data: v.Data}
	}
	return &Value[T]{Data: out}
}

// JSONCodec is a Codec for Value[T] payloads. Default, when set, supplies
// the payload created by New for each host type.
type JSONCodec[T any] struct {
	Default func(host string) T
}

func (c JSONCodec[T]) New(host string) Payload {
	var d T
	if c.Default != nil {
		d = c.Default(host)
	}
	return &Value[T]{Data: d}
}

func (c JSONCodec[T]) Encode(p Payload) (json.RawMessage, error) {
	v, ok := p.(*Value[T])
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", p)
	}
	return json.Marshal(v.Data)
}

func (c JSONCodec[T]) Decode(host string, raw json.RawMessage) (Payload, error) {
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &Value[T]{Data: d}, nil
}
