package model

import (
	"math"

	"github.com/chazu/hbcore/pkg/geometry"
)

// Azimuth returns the clockwise angle in degrees, in [0, 360), from north
// to the horizontal projection of n. North is the +Y axis rotated
// counterclockwise by northAngle degrees. It reports false when n is
// vertical.
func Azimuth(n geometry.Vec3, northAngle float64) (float64, bool) {
	hx, hy := n.X, n.Y
	if math.Hypot(hx, hy) < 1e-9 {
		return 0, false
	}
	a := northAngle * math.Pi / 180
	nx, ny := -math.Sin(a), math.Cos(a)
	ccw := math.Atan2(nx*hy-ny*hx, nx*hx+ny*hy)
	deg := math.Mod(-ccw*180/math.Pi+360, 360)
	if deg >= 360-1e-9 {
		deg = 0
	}
	return deg, true
}

// OrientationAngles splits the compass into n bins and returns the upper
// boundary of each bin, starting at half a bin east of north. Four bins
// give 45, 135, 225 and 315.
func OrientationAngles(n int) []float64 {
	if n < 1 {
		return nil
	}
	step := 360 / float64(n)
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = step/2 + step*float64(i)
	}
	return angles
}

// OrientationIndex returns the bin of an azimuth for boundaries from
// OrientationAngles. Azimuths past the last boundary wrap to bin 0.
func OrientationIndex(azimuth float64, angles []float64) int {
	for i, a := range angles {
		if azimuth < a {
			return i
		}
	}
	return 0
}

var cardinals = []string{"North", "East", "South", "West"}

// CardinalDirection names the closest of the four cardinal directions.
func CardinalDirection(azimuth float64) string {
	return cardinals[OrientationIndex(azimuth, OrientationAngles(len(cardinals)))]
}
