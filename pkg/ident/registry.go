package ident

import "fmt"

// Registry is the set of identifiers in use within one model. It is not
// safe for concurrent use.
type Registry struct {
	ids map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Has reports whether id is taken.
func (r *Registry) Has(id string) bool {
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of identifiers in use.
func (r *Registry) Len() int {
	return len(r.ids)
}

// Check reports the first id in ids that is already taken or repeated
// within ids itself, without reserving anything.
func (r *Registry) Check(ids ...string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if r.Has(id) {
			return fmt.Errorf("%w: %q is already used in the model", ErrDuplicateIdentifier, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q appears more than once", ErrDuplicateIdentifier, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Reserve marks every id as taken. Either all ids are reserved or, on
// error, none are.
func (r *Registry) Reserve(ids ...string) error {
	if err := r.Check(ids...); err != nil {
		return err
	}
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	return nil
}

// Release frees the given ids. Unknown ids are ignored.
func (r *Registry) Release(ids ...string) {
	for _, id := range ids {
		delete(r.ids, id)
	}
}
