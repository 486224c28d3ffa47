package model

import (
	"github.com/chazu/hbcore/pkg/kernel"
	"github.com/chazu/hbcore/pkg/kernel/sdfx"
)

// Default tolerances for objects that do not belong to a Model.
const (
	DefaultTolerance      = 0.01
	DefaultAngleTolerance = 1.0
)

var geo kernel.Kernel = sdfx.New()

// UseKernel replaces the geometry kernel. Call it before building models.
func UseKernel(k kernel.Kernel) {
	if k != nil {
		geo = k
	}
}

// Kernel returns the geometry kernel in use.
func Kernel() kernel.Kernel {
	return geo
}

// tolerances returns the distance and angle tolerances that apply to o.
func tolerances(o Object) (tol, angTol float64) {
	if m := modelOf(o); m != nil {
		return m.Tolerance, m.AngleTolerance
	}
	return DefaultTolerance, DefaultAngleTolerance
}
