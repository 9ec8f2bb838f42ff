package scene

import "errors"

var (
	// ErrDuplicateName indicates a second proxy registered under a name
	// that is already in the graph.
	ErrDuplicateName = errors.New("scene: duplicate proxy name")

	ErrNilProxy = errors.New("scene: nil proxy")
)
