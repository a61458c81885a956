package core

import "fmt"

var (
	// ErrInvalidKey is returned when a raw state key resolves to an empty
	// bare key, either because the raw key itself was empty or because
	// nothing followed a recognized scope prefix (e.g. "temp:").
	ErrInvalidKey = fmt.Errorf("invalid state key")

	// ErrInvocationClosed is returned when a state or artifact operation is
	// attempted through an invocation that has already been closed.
	ErrInvocationClosed = fmt.Errorf("invocation closed")

	// ErrInvalidName is returned when an artifact is saved under an empty name.
	ErrInvalidName = fmt.Errorf("invalid artifact name")

	// ErrUnsupportedValue is returned when a state value cannot be normalized
	// into the supported value set (nil, bool, integer, float, string,
	// sequence, string-keyed mapping).
	ErrUnsupportedValue = fmt.Errorf("unsupported state value")
)
