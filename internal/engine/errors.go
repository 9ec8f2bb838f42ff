package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateShape indicates geometry with zero or negative extent,
	// or a point set that spans no volume.
	ErrDegenerateShape = errors.New("engine: degenerate collision shape")

	// ErrNestedCompound indicates an attempt to add a compound shape as a
	// child of another compound.
	ErrNestedCompound = errors.New("engine: compound shapes cannot be nested")

	// ErrConcaveDynamic indicates a concave triangle mesh used on a body
	// with finite mass.
	ErrConcaveDynamic = errors.New("engine: concave mesh shapes must be static")

	ErrNilShape    = errors.New("engine: nil collision shape")
	ErrInvalidMass = errors.New("engine: mass must be finite and non-negative")
)

// ShapeError carries the shape kind and the reason a constructor rejected it.
type ShapeError struct {
	Shape  ShapeType
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrDegenerateShape.Error(), e.Shape, e.Reason)
}

func (e *ShapeError) Unwrap() error {
	return ErrDegenerateShape
}

func degenerate(kind ShapeType, format string, args ...any) error {
	return &ShapeError{Shape: kind, Reason: fmt.Sprintf(format, args...)}
}
