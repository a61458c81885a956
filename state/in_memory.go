package state

import (
	"context"
	"sync"

	"github.com/hupe1980/agentstore/core"
)

// InMemoryBackend is a volatile core.Backend implementation storing
// persistent-scope entries in process local maps, one table per scope. It is
// safe for concurrent access and best suited for tests or single-process
// deployments. Values are deep-copied on both load and apply so the backend
// never shares value trees with its callers.
type InMemoryBackend struct {
	mu     sync.RWMutex
	tables map[core.Scope]map[string]any
}

// NewInMemoryBackend constructs an empty in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{tables: make(map[core.Scope]map[string]any)}
}

// Load returns the stored value for key, reporting absence with ok=false.
func (b *InMemoryBackend) Load(_ context.Context, key core.ScopedKey) (any, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	table, ok := b.tables[key.Scope]
	if !ok {
		return nil, false, nil
	}

	v, ok := table[key.Key]
	if !ok {
		return nil, false, nil
	}

	return core.CopyValue(v), true, nil
}

// ApplyDelta applies entries in order: value entries overwrite, tombstone
// entries remove. Applying an empty delta is a no-op.
func (b *InMemoryBackend) ApplyDelta(_ context.Context, delta core.Delta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range delta {
		table, ok := b.tables[e.Key.Scope]
		if !ok {
			table = map[string]any{}
			b.tables[e.Key.Scope] = table
		}

		if e.Delete {
			delete(table, e.Key.Key)
			continue
		}

		table[e.Key.Key] = core.CopyValue(e.Value)
	}

	return nil
}

// Len reports the number of entries held for one scope. Intended for
// introspection and tests.
func (b *InMemoryBackend) Len(scope core.Scope) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tables[scope])
}
