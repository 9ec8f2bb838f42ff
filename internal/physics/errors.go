package physics

import "errors"

var (
	ErrNilProxy = errors.New("physics: nil proxy")

	// ErrInvalidMass indicates a dynamic motion with a mass that is not
	// finite and positive.
	ErrInvalidMass = errors.New("physics: dynamic mass must be finite and positive")

	// ErrNoBody indicates a proxy that has no registered rigid body.
	ErrNoBody = errors.New("physics: proxy has no rigid body")

	ErrNotInitialized = errors.New("physics: world not initialized")
)
