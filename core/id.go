package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for invocations.
//
// This function creates a UUID-based unique identifier that can be used
// for invocation tracking and correlation throughout the store.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
