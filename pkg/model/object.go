package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/chazu/hbcore/pkg/extension"
	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/ident"
)

// Object is implemented by every member of the hierarchy.
//
// The transform methods change the geometry of the object and of every
// object it owns. They never touch identifiers, boundary conditions or
// extension payloads. Angles are in degrees, counterclockwise.
type Object interface {
	Identifier() string
	DisplayName() string
	SetDisplayName(name string)
	Properties() *extension.Properties
	UserData() map[string]any
	SetUserData(data map[string]any)
	ExtraFields() []Field
	SetExtraFields(fields []Field)
	Parent() Object
	Kind() string

	Move(v geometry.Vec3)
	Rotate(axis geometry.Vec3, angle float64, origin geometry.Vec3)
	RotateXY(angle float64, origin geometry.Vec3)
	Reflect(plane geometry.Plane)
	Scale(factor float64, origin geometry.Vec3)

	transform(t geometry.Transformer)
	identifiers() []string
	setParent(p Object)
}

// Kinds of objects, used as document type tags and extension hosts.
const (
	KindShade     = "Shade"
	KindShadeMesh = "ShadeMesh"
	KindAperture  = "Aperture"
	KindDoor      = "Door"
	KindFace      = "Face"
	KindRoom      = "Room"
	KindModel     = "Model"
)

// Field is a document field of an object that the model does not
// interpret. It is kept so documents from newer writers round-trip.
type Field struct {
	Key   string
	Value json.RawMessage
}

// base carries the fields common to every object.
type base struct {
	id          string
	displayName string
	props       *extension.Properties
	userData    map[string]any
	extra       []Field
	geomExtra   []Field
	parent      Object
}

func newBase(kind, id string) (base, error) {
	if err := ident.Validate(id); err != nil {
		return base{}, fmt.Errorf("%s: %w", kind, err)
	}
	return base{id: id, props: extension.NewProperties(kind)}, nil
}

// Identifier returns the immutable identifier.
func (b *base) Identifier() string {
	return b.id
}

// DisplayName returns the display name, or the identifier if none is set.
func (b *base) DisplayName() string {
	if b.displayName == "" {
		return b.id
	}
	return b.displayName
}

func (b *base) SetDisplayName(name string) {
	b.displayName = name
}

// Properties returns the extension payload container.
func (b *base) Properties() *extension.Properties {
	return b.props
}

// UserData returns the free-form annotation map, which may be nil.
func (b *base) UserData() map[string]any {
	return b.userData
}

func (b *base) SetUserData(data map[string]any) {
	b.userData = data
}

// Parent returns the owning object, or nil.
func (b *base) Parent() Object {
	return b.parent
}

func (b *base) setParent(p Object) {
	b.parent = p
}

// cloneBase copies everything but the parent.
func (b *base) cloneBase() base {
	return base{
		id:          b.id,
		displayName: b.displayName,
		props:       b.props.Clone(),
		userData:    cloneUserData(b.userData),
		extra:       cloneFields(b.extra),
		geomExtra:   cloneFields(b.geomExtra),
	}
}

// ExtraFields returns the uninterpreted document fields in document order.
func (b *base) ExtraFields() []Field {
	return cloneFields(b.extra)
}

func (b *base) SetExtraFields(fields []Field) {
	b.extra = cloneFields(fields)
}

// GeometryExtraFields returns the uninterpreted keys of the object's
// geometry block, such as a precomputed plane. They describe the geometry
// as read, so any transform or flip discards them.
func (b *base) GeometryExtraFields() []Field {
	return cloneFields(b.geomExtra)
}

func (b *base) SetGeometryExtraFields(fields []Field) {
	b.geomExtra = cloneFields(fields)
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := slices.Clone(fields)
	for i := range out {
		out[i].Value = slices.Clone(out[i].Value)
	}
	return out
}

func cloneUserData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneUserData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// modelOf returns the Model that o belongs to, or nil.
func modelOf(o Object) *Model {
	for p := o; p != nil; p = p.Parent() {
		if m, ok := p.(*Model); ok {
			return m
		}
	}
	return nil
}

func rootOf(o Object) Object {
	for o.Parent() != nil {
		o = o.Parent()
	}
	return o
}

// attach makes parent the owner of child after checking that none of the
// child's identifiers is taken within the parent's tree. When the tree
// belongs to a Model the identifiers are reserved there. The caller must
// have run every other check first, since attach is the last fallible step
// of an insertion.
func attach(parent, child Object) error {
	if child.Parent() != nil {
		return fmt.Errorf("%s %q already belongs to %s %q",
			child.Kind(), child.Identifier(), child.Parent().Kind(), child.Parent().Identifier())
	}
	ids := child.identifiers()
	if m := modelOf(parent); m != nil {
		if err := m.registry.Reserve(ids...); err != nil {
			return err
		}
	} else {
		taken := ident.NewRegistry()
		for _, id := range rootOf(parent).identifiers() {
			_ = taken.Reserve(id)
		}
		if err := taken.Check(ids...); err != nil {
			return err
		}
	}
	child.setParent(parent)
	return nil
}

// detach releases child from its owner and from the owning Model's
// identifier index.
func detach(child Object) {
	if m := modelOf(child); m != nil {
		m.registry.Release(child.identifiers()...)
	}
	child.setParent(nil)
}

// removeByID deletes the element with identifier id from list, detaching it.
func removeByID[T Object](list *[]T, id string) (T, bool) {
	for i, o := range *list {
		if o.Identifier() == id {
			detach(o)
			*list = append((*list)[:i], (*list)[i+1:]...)
			return o, true
		}
	}
	var zero T
	return zero, false
}

// checkIdentifiers rejects a set of identifiers that repeats itself.
func checkIdentifiers(ids []string) error {
	return ident.NewRegistry().Check(ids...)
}
