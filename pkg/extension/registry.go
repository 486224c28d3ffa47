// Package extension lets independent packages attach their own typed data
// to every object of the model without the model knowing its shape.
//
// Each extension registers a name and a Codec once, at program start, before
// the first model is built. Objects then carry a Properties container that
// maps extension names to payloads, creating default payloads on demand.
// Payloads for extensions that are not registered in this process are kept
// as raw JSON so documents round-trip without losing them.
package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/hbcore/internal/logging"
	"github.com/chazu/hbcore/pkg/ident"
)

var (
	// ErrNotRegistered is returned when no codec exists for an extension name.
	ErrNotRegistered = errors.New("extension not registered")

	// ErrRegistrySealed is returned when registering after models exist.
	ErrRegistrySealed = errors.New("extension registry is sealed")
)

var logger = logging.New("extension")

// Payload is the per-object data of one extension. Clone must return a deep
// copy that shares no mutable state with the receiver.
type Payload interface {
	Clone() Payload
}

// Codec creates, encodes, and decodes the payloads of one extension. host is
// the object type the payload belongs to ("Model", "Room", "Face",
// "Aperture", "Door", "Shade", "ShadeMesh").
type Codec interface {
	New(host string) Payload
	Encode(p Payload) (json.RawMessage, error)
	Decode(host string, raw json.RawMessage) (Payload, error)
}

// Registry maps extension names to codecs.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
	sealed bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds a codec under name. Names must be valid identifiers, unique,
// and not "type". Registering after Seal fails with ErrRegistrySealed.
func (r *Registry) Register(name string, c Codec) error {
	if err := ident.Validate(name); err != nil {
		return fmt.Errorf("register extension: %w", err)
	}
	if name == "type" {
		return fmt.Errorf("register extension: name %q is reserved", name)
	}
	if c == nil {
		return fmt.Errorf("register extension %q: nil codec", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register extension %q: %w", name, ErrRegistrySealed)
	}
	if _, ok := r.codecs[name]; ok {
		return fmt.Errorf("register extension %q: already registered", name)
	}
	r.codecs[name] = c
	logger.Debug("registered extension", "name", name)
	return nil
}

// MustRegister is like Register but panics on error. It suits init
// functions of extension packages.
func (r *Registry) MustRegister(name string, c Codec) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Lookup returns the codec for name.
func (r *Registry) Lookup(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return c, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.codecs))
	for n := range r.codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Seal stops further registration. It is idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sealed {
		r.sealed = true
		logger.Debug("extension registry sealed", "extensions", len(r.codecs))
	}
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Default is the process-wide registry used by the object model.
var Default = NewRegistry()

// Register adds a codec to the Default registry.
func Register(name string, c Codec) error {
	return Default.Register(name, c)
}

// MustRegister adds a codec to the Default registry and panics on error.
func MustRegister(name string, c Codec) {
	Default.MustRegister(name, c)
}

// Lookup returns the codec for name from the Default registry.
func Lookup(name string) (Codec, error) {
	return Default.Lookup(name)
}

// Seal seals the Default registry.
func Seal() {
	Default.Seal()
}
