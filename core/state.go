package core

import (
	"context"
	"fmt"
	"sync"
)

// StateEntry is one current value held by the state store together with the
// invocation that last wrote it. The value tree is owned exclusively by the
// store; entries handed out cross the boundary as deep copies.
type StateEntry struct {
	Key          ScopedKey `json:"key"`
	Value        any       `json:"value"`
	LastWriterID string    `json:"last_writer_id,omitempty"`
}

// DeltaEntry records one staged mutation: either a new value for a scoped key
// or a tombstone marking its deletion. Exactly one of Value / Delete carries
// meaning per entry.
type DeltaEntry struct {
	Key    ScopedKey `json:"key"`
	Value  any       `json:"value,omitempty"`
	Delete bool      `json:"delete,omitempty"`
}

// Delta is the ordered sequence of mutations accumulated during one
// invocation, in the exact order the writes happened. Two writes to the same
// key produce two entries; consumers applying a delta in order converge on
// the last write.
type Delta []DeltaEntry

// Backend is the durable persistence collaborator for the three persistent
// scopes (session, user, app). The state store reads through it lazily, one
// Load per first miss of a key, and hands it drained deltas to persist.
// Implementations must be safe for concurrent use.
//
// Load returns (value, true, nil) when the key exists and (nil, false, nil)
// when it is absent; absence is not an error. ApplyDelta applies entries in
// order, removing the key for tombstone entries.
type Backend interface {
	Load(ctx context.Context, key ScopedKey) (any, bool, error)
	ApplyDelta(ctx context.Context, delta Delta) error
}

// StateStore tracks the current values of persistent-scope keys and routes
// temp-scope operations to the owning invocation's scratch space. It is safe
// for concurrent use by multiple invocations.
//
// Contract:
//   - Temp operations touch only the invocation's scratch entries and never
//     reach the backend
//   - Persistent reads go to the in-memory current table, lazily filled per
//     key from the backend; a key deleted locally does not resurrect from the
//     backend before the delta is committed
//   - Persistent writes update the current table and append an ordered delta
//     entry (value or tombstone) to the invocation
//   - Get returns the caller-supplied default for absent keys, never an error
//     for a miss
//   - Each call is individually atomic; there is no cross-call transaction,
//     so read-modify-write sequences on collection values can race across
//     concurrent invocations and callers needing that must serialize
//     themselves.
type StateStore struct {
	backend Backend

	mu      sync.RWMutex
	current map[ScopedKey]StateEntry
	loaded  map[ScopedKey]bool
}

// NewStateStore creates a state store backed by the given durable
// collaborator. A nil backend is allowed; the store is then purely
// process-local and persistent-scope misses simply return the default.
func NewStateStore(backend Backend) *StateStore {
	return &StateStore{
		backend: backend,
		current: map[ScopedKey]StateEntry{},
		loaded:  map[ScopedKey]bool{},
	}
}

// Backend returns the durable collaborator the store reads through, or nil.
func (s *StateStore) Backend() Backend { return s.backend }

// Get resolves rawKey and returns its current value, or def when absent.
// Temp keys are looked up in the invocation's scratch entries; persistent
// keys in the current table, falling back to one lazy backend load on first
// miss. A missing key is not an error; backend failures are surfaced
// unmodified in meaning.
func (s *StateStore) Get(inv *Invocation, rawKey string, def any) (any, error) {
	if inv.Closed() {
		return nil, ErrInvocationClosed
	}

	key, err := ResolveKey(rawKey)
	if err != nil {
		return nil, err
	}

	if key.Scope == ScopeTemp {
		if v, ok := inv.scratchGet(key.Key); ok {
			return CopyValue(v), nil
		}
		return def, nil
	}

	if v, ok, decided := s.lookup(key); decided {
		if !ok {
			return def, nil
		}
		return v, nil
	}

	return s.readThrough(inv.Context, key, rawKey, def)
}

// lookup answers from the current table when it is authoritative for key.
// decided=false means the key has never been touched and the backend must be
// consulted.
func (s *StateStore) lookup(key ScopedKey) (value any, ok, decided bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, exists := s.current[key]; exists {
		return CopyValue(e.Value), true, true
	}
	if s.loaded[key] {
		return nil, false, true
	}
	return nil, false, false
}

// readThrough loads key from the backend and fills the current table, unless
// a concurrent write or delete made the table authoritative in the meantime.
func (s *StateStore) readThrough(ctx context.Context, key ScopedKey, rawKey string, def any) (any, error) {
	if s.backend == nil {
		return def, nil
	}

	v, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", rawKey, err)
	}

	var norm any
	if ok {
		if norm, err = NormalizeValue(v); err != nil {
			return nil, fmt.Errorf("load %q: %w", rawKey, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.current[key]; exists {
		return CopyValue(e.Value), nil
	}
	if s.loaded[key] {
		return def, nil
	}

	s.loaded[key] = true

	if !ok {
		return def, nil
	}

	s.current[key] = StateEntry{Key: key, Value: norm}

	return CopyValue(norm), nil
}

// Set resolves rawKey and writes value under it. Temp keys go into the
// invocation's scratch entries only; persistent keys update the current table
// and append a value entry to the invocation's delta, with the invocation
// recorded as last writer. The value is normalized into the supported value
// set and deep-copied, so the store never aliases caller memory. Overwrites
// are silent (last writer wins within an invocation).
func (s *StateStore) Set(inv *Invocation, rawKey string, value any) error {
	if inv.Closed() {
		return ErrInvocationClosed
	}

	key, err := ResolveKey(rawKey)
	if err != nil {
		return err
	}

	norm, err := NormalizeValue(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", rawKey, err)
	}

	if key.Scope == ScopeTemp {
		if !inv.scratchSet(key.Key, norm) {
			return ErrInvocationClosed
		}
		return nil
	}

	// The delta entry gets its own copy so the backend consuming it never
	// shares a tree with the current table.
	staged := CopyValue(norm)

	ok := inv.stage(DeltaEntry{Key: key, Value: staged}, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.current[key] = StateEntry{Key: key, Value: norm, LastWriterID: inv.ID}
		s.loaded[key] = true
	})
	if !ok {
		return ErrInvocationClosed
	}

	return nil
}

// Delete resolves rawKey and removes its current value. Temp keys are removed
// from the invocation's scratch entries; persistent keys are removed from the
// current table and a tombstone entry is appended to the invocation's delta.
// Deleting an absent key is not an error.
func (s *StateStore) Delete(inv *Invocation, rawKey string) error {
	if inv.Closed() {
		return ErrInvocationClosed
	}

	key, err := ResolveKey(rawKey)
	if err != nil {
		return err
	}

	if key.Scope == ScopeTemp {
		if !inv.scratchDelete(key.Key) {
			return ErrInvocationClosed
		}
		return nil
	}

	ok := inv.stage(DeltaEntry{Key: key, Delete: true}, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.current, key)
		s.loaded[key] = true
	})
	if !ok {
		return ErrInvocationClosed
	}

	return nil
}

// DrainDelta returns the ordered delta the invocation has accumulated and
// clears the buffer. Draining twice with nothing written in between yields an
// empty delta. Once the invocation is closed the buffer has been handed to
// the close sink and DrainDelta fails with ErrInvocationClosed.
func (s *StateStore) DrainDelta(inv *Invocation) (Delta, error) {
	d, ok := inv.drainDelta()
	if !ok {
		return nil, ErrInvocationClosed
	}
	return d, nil
}

// Snapshot returns a copy of the current entries of one persistent scope,
// keyed by bare key. It reflects only keys the store has touched so far
// (written, deleted or lazily loaded). Temp scratch lives on each invocation
// and is not visible here; see Invocation.ScratchKeys.
func (s *StateStore) Snapshot(scope Scope) map[string]StateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]StateEntry{}
	for k, e := range s.current {
		if k.Scope != scope {
			continue
		}
		e.Value = CopyValue(e.Value)
		out[k.Key] = e
	}
	return out
}
