package model

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometry reports degenerate, non-coplanar or non-contained geometry.
	ErrGeometry = errors.New("geometry error")

	// ErrInvalidBoundaryCondition reports an illegal face type and boundary
	// condition combination or a malformed Surface reference.
	ErrInvalidBoundaryCondition = errors.New("invalid boundary condition")
)

func geometryErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGeometry, fmt.Sprintf(format, args...))
}

func bcErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBoundaryCondition, fmt.Sprintf(format, args...))
}
