package testutil

import (
	"fmt"

	"github.com/hupe1980/agentstore/core"
)

// DeltaBuilder provides a fluent helper for constructing ordered deltas in
// tests. Example:
//
//	d := NewDeltaBuilder().Set("user:language", "en").Tombstone("app:flag").Build()
//
// Raw keys are resolved through the production grammar so tests exercise the
// same parsing as real callers. Build panics on an unresolvable key; tests
// should only feed it valid keys.
type DeltaBuilder struct {
	delta core.Delta
	err   error
}

// NewDeltaBuilder creates an empty builder.
func NewDeltaBuilder() *DeltaBuilder { return &DeltaBuilder{} }

// Set appends a value entry for rawKey (chainable).
func (b *DeltaBuilder) Set(rawKey string, value any) *DeltaBuilder {
	key, err := core.ResolveKey(rawKey)
	if err != nil && b.err == nil {
		b.err = err
		return b
	}
	b.delta = append(b.delta, core.DeltaEntry{Key: key, Value: value})
	return b
}

// Tombstone appends a deletion entry for rawKey (chainable).
func (b *DeltaBuilder) Tombstone(rawKey string) *DeltaBuilder {
	key, err := core.ResolveKey(rawKey)
	if err != nil && b.err == nil {
		b.err = err
		return b
	}
	b.delta = append(b.delta, core.DeltaEntry{Key: key, Delete: true})
	return b
}

// Build returns the accumulated delta.
func (b *DeltaBuilder) Build() core.Delta {
	if b.err != nil {
		panic(fmt.Sprintf("testutil: delta builder: %v", b.err))
	}
	return b.delta
}
