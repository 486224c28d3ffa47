package model

import (
	"fmt"
	"slices"

	"github.com/chazu/hbcore/pkg/geometry"
	"github.com/chazu/hbcore/pkg/ident"
)

// Boundary condition names as spelled in documents.
const (
	BCOutdoors  = "Outdoors"
	BCGround    = "Ground"
	BCSurface   = "Surface"
	BCAdiabatic = "Adiabatic"
)

// BoundaryCondition classifies what lies on the other side of a Face,
// Aperture or Door. Implementations are Outdoors, Ground, Adiabatic and
// Surface.
type BoundaryCondition interface {
	Name() string
	clone() BoundaryCondition
}

// Outdoors is exposure to the exterior. The zero value is exposed to sun
// and wind with an autocalculated view factor.
type Outdoors struct {
	NoSunExposure  bool
	NoWindExposure bool
	// ViewFactor is the sky view factor in [0, 1]; nil means autocalculate.
	ViewFactor *float64
}

func (Outdoors) Name() string { return BCOutdoors }

func (o Outdoors) clone() BoundaryCondition {
	if o.ViewFactor != nil {
		vf := *o.ViewFactor
		o.ViewFactor = &vf
	}
	return o
}

// Ground is contact with the ground.
type Ground struct{}

func (Ground) Name() string               { return BCGround }
func (g Ground) clone() BoundaryCondition { return g }

// Adiabatic is a surface with no heat flow.
type Adiabatic struct{}

func (Adiabatic) Name() string               { return BCAdiabatic }
func (a Adiabatic) clone() BoundaryCondition { return a }

// Surface is adjacency to another object of the same model. Objects lists
// the counterpart identifier first, followed by the identifiers of its
// parents: [face, room] for faces and [sub-face, face, room] for apertures
// and doors.
type Surface struct {
	Objects []string
}

func (Surface) Name() string { return BCSurface }

func (s Surface) clone() BoundaryCondition {
	return Surface{Objects: slices.Clone(s.Objects)}
}

// Counterpart returns the identifier of the adjacent object.
func (s Surface) Counterpart() string {
	if len(s.Objects) == 0 {
		return ""
	}
	return s.Objects[0]
}

// EqualBoundaryConditions reports whether a and b are the same condition
// with the same parameters.
func EqualBoundaryConditions(a, b BoundaryCondition) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Outdoors:
		y, ok := b.(Outdoors)
		if !ok || x.NoSunExposure != y.NoSunExposure || x.NoWindExposure != y.NoWindExposure {
			return false
		}
		if x.ViewFactor == nil || y.ViewFactor == nil {
			return x.ViewFactor == nil && y.ViewFactor == nil
		}
		return *x.ViewFactor == *y.ViewFactor
	case Surface:
		y, ok := b.(Surface)
		return ok && slices.Equal(x.Objects, y.Objects)
	default:
		return a.Name() == b.Name()
	}
}

// BoundaryConditionFromPosition returns Ground when every point lies at or
// below z = 0 and Outdoors otherwise.
func BoundaryConditionFromPosition(points []geometry.Vec3) BoundaryCondition {
	for _, p := range points {
		if p.Z > 0 {
			return Outdoors{}
		}
	}
	return Ground{}
}

// checkSurface validates the identifiers of a Surface condition held by
// the object own.
func checkSurface(own string, s Surface) error {
	if len(s.Objects) == 0 || len(s.Objects) > 3 {
		return bcErrorf("%q: Surface needs 1 to 3 boundary condition objects, got %d", own, len(s.Objects))
	}
	for _, id := range s.Objects {
		if err := ident.Validate(id); err != nil {
			return bcErrorf("%q: Surface object: %v", own, err)
		}
	}
	if s.Objects[0] == own {
		return bcErrorf("%q: Surface condition references itself", own)
	}
	return nil
}

// checkSubFaceBC validates a boundary condition for an Aperture or Door.
func checkSubFaceBC(own string, bc BoundaryCondition) error {
	switch v := bc.(type) {
	case Outdoors:
		return nil
	case Surface:
		return checkSurface(own, v)
	case nil:
		return bcErrorf("%q: boundary condition is nil", own)
	default:
		return bcErrorf("%q: %s is not allowed for apertures and doors", own, bc.Name())
	}
}

// checkFaceBC validates a boundary condition for a Face of type t.
func checkFaceBC(own string, t FaceType, bc BoundaryCondition, hasSubFaces bool) error {
	if bc == nil {
		return bcErrorf("%q: boundary condition is nil", own)
	}
	if s, ok := bc.(Surface); ok {
		if err := checkSurface(own, s); err != nil {
			return err
		}
	}
	if hasSubFaces {
		switch bc.(type) {
		case Outdoors, Surface:
		default:
			return bcErrorf("%q: %s cannot be assigned to a face with apertures or doors", own, bc.Name())
		}
	}
	if t == AirBoundary {
		if _, ok := bc.(Ground); ok {
			return bcErrorf("%q: AirBoundary faces cannot have a Ground boundary condition", own)
		}
	}
	return nil
}

func describeBC(bc BoundaryCondition) string {
	if s, ok := bc.(Surface); ok {
		return fmt.Sprintf("Surface%v", s.Objects)
	}
	return bc.Name()
}
