package model

import "fmt"

// Units of length for model coordinates.
type Units string

const (
	Meters      Units = "Meters"
	Millimeters Units = "Millimeters"
	Feet        Units = "Feet"
	Inches      Units = "Inches"
	Centimeters Units = "Centimeters"
)

// AllUnits lists the supported units.
var AllUnits = []Units{Meters, Millimeters, Feet, Inches, Centimeters}

var toMeters = map[Units]float64{
	Meters:      1,
	Millimeters: 0.001,
	Feet:        0.3048,
	Inches:      0.0254,
	Centimeters: 0.01,
}

var unitTolerances = map[Units]float64{
	Meters:      0.01,
	Millimeters: 1.0,
	Feet:        0.01,
	Inches:      0.1,
	Centimeters: 1.0,
}

// ParseUnits returns the Units named s.
func ParseUnits(s string) (Units, error) {
	u := Units(s)
	if !u.Valid() {
		return "", fmt.Errorf("unknown units %q", s)
	}
	return u, nil
}

// Valid reports whether u is supported.
func (u Units) Valid() bool {
	_, ok := toMeters[u]
	return ok
}

// ToMeters returns the factor converting a length in u to meters.
func (u Units) ToMeters() float64 {
	return toMeters[u]
}

// DefaultTolerance returns the customary tolerance for models in u.
func (u Units) DefaultTolerance() float64 {
	if t, ok := unitTolerances[u]; ok {
		return t
	}
	return DefaultTolerance
}

// ConversionFactor returns the factor converting lengths in from to to.
func ConversionFactor(from, to Units) (float64, error) {
	if !from.Valid() {
		return 0, fmt.Errorf("unknown units %q", from)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("unknown units %q", to)
	}
	return from.ToMeters() / to.ToMeters(), nil
}
