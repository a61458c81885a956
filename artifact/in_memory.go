package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentstore/core"
)

// InMemoryStore is an in-process core.ArtifactStore implementation useful for
// tests, examples and single-process prototypes. It keeps every version of
// every artifact in nested maps guarded by an RWMutex. Data is copied on save
// and load to avoid accidental external mutation of internal buffers.
//
// Layout: namespace -> name -> version chain (index i holds version i+1)
//
// Version assignment happens under the store write lock, so concurrent saves
// of the same name serialize and never hand out the same version number.
// Nothing is ever deleted and no retention limits, size quotas or eviction
// are enforced. For production, prefer a durable implementation (object
// storage, a database, or the FileStore in this package) that survives
// process restarts.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]core.Artifact // namespace -> name -> versions
	names     map[string][]string                   // namespace -> names in first-save order
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		artifacts: make(map[string]map[string][]core.Artifact),
		names:     make(map[string][]string),
	}
}

// Save appends a new version of the named artifact and returns the assigned
// version number: 1 for a name's first save, previous max plus one after
// that, regardless of content equality. Empty content is versioned like any
// other payload. The input artifact is deep-copied before storage.
func (a *InMemoryStore) Save(_ context.Context, namespace string, artifact core.Artifact) (int, error) {
	if artifact.Name == "" {
		return 0, fmt.Errorf("%w: empty name", core.ErrInvalidName)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ns, ok := a.artifacts[namespace]
	if !ok {
		ns = make(map[string][]core.Artifact)
		a.artifacts[namespace] = ns
	}

	chain := ns[artifact.Name]
	if len(chain) == 0 {
		a.names[namespace] = append(a.names[namespace], artifact.Name)
	}

	stored := artifact.Clone()
	stored.Version = len(chain) + 1
	stored.Created = time.Now().UTC()

	ns[artifact.Name] = append(chain, stored)

	return stored.Version, nil
}

// Load returns a copy of the highest version of the named artifact. ok=false
// means the name was never saved; that is not an error.
func (a *InMemoryStore) Load(_ context.Context, namespace, name string) (core.Artifact, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chain := a.artifacts[namespace][name]
	if len(chain) == 0 {
		return core.Artifact{}, false, nil
	}

	return chain[len(chain)-1].Clone(), true, nil
}

// LoadVersion returns a copy of one specific version of the named artifact.
// ok=false means that version does not exist; that is not an error.
func (a *InMemoryStore) LoadVersion(_ context.Context, namespace, name string, version int) (core.Artifact, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chain := a.artifacts[namespace][name]
	if version < 1 || version > len(chain) {
		return core.Artifact{}, false, nil
	}

	return chain[version-1].Clone(), true, nil
}

// List returns the distinct artifact names saved in the namespace, in the
// insertion order of each name's first save. The slice is a snapshot and safe
// for caller mutation.
func (a *InMemoryStore) List(_ context.Context, namespace string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := a.names[namespace]
	out := make([]string, len(names))
	copy(out, names)

	return out, nil
}

// ListVersions returns the version numbers of the named artifact, ascending
// and contiguous from 1; empty if the name is unknown.
func (a *InMemoryStore) ListVersions(_ context.Context, namespace, name string) ([]int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	chain := a.artifacts[namespace][name]
	versions := make([]int, len(chain))
	for i := range chain {
		versions[i] = i + 1
	}

	return versions, nil
}
