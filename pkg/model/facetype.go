package model

import (
	"fmt"
	"strings"

	"github.com/chazu/hbcore/pkg/geometry"
)

// FaceType is the structural role of a Face.
type FaceType string

const (
	Wall        FaceType = "Wall"
	RoofCeiling FaceType = "RoofCeiling"
	Floor       FaceType = "Floor"
	AirBoundary FaceType = "AirBoundary"
)

// FaceTypes lists every face type.
var FaceTypes = []FaceType{Wall, RoofCeiling, Floor, AirBoundary}

// Valid reports whether t is a known face type.
func (t FaceType) Valid() bool {
	switch t {
	case Wall, RoofCeiling, Floor, AirBoundary:
		return true
	}
	return false
}

// ParseFaceType parses a face type name ignoring case, spaces and
// underscores, so "roof_ceiling" and "Roof Ceiling" both give RoofCeiling.
func ParseFaceType(s string) (FaceType, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(s))
	for _, t := range FaceTypes {
		if strings.ToLower(string(t)) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("%q is not a valid face type", s)
}

// Angles from +Z, in degrees, that separate roofs, walls and floors.
const (
	RoofAngle  = 30.0
	FloorAngle = 150.0
)

// FaceTypeFromNormal classifies a face by the angle between its normal and
// the Z axis: below RoofAngle is a roof, from FloorAngle on is a floor and
// everything else is a wall.
func FaceTypeFromNormal(n geometry.Vec3) FaceType {
	return FaceTypeFromNormalAngles(n, RoofAngle, FloorAngle)
}

// FaceTypeFromNormalAngles is FaceTypeFromNormal with explicit cut angles.
func FaceTypeFromNormalAngles(n geometry.Vec3, roofAngle, floorAngle float64) FaceType {
	a := geometry.ZAxis.AngleTo(n)
	switch {
	case a < roofAngle:
		return RoofCeiling
	case a < floorAngle:
		return Wall
	default:
		return Floor
	}
}
