package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/agentstore/core"
	"github.com/hupe1980/agentstore/logging"
)

// FileStore is a durable core.Backend persisting each scope as one JSON
// document under a root directory (session.json, user.json, app.json).
// Writes are atomic via a temporary file plus rename, so a crash mid-apply
// leaves the previous document intact. It is safe for concurrent use within
// one process; cross-process coordination is out of scope.
//
// JSON round-tripping widens integers to float64 on load, as encoding/json
// does; callers reading numeric state through a FileStore should expect
// float64.
type FileStore struct {
	root   string
	mu     sync.RWMutex
	logger logging.Logger
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Logger receives debug records for scope file rewrites. Defaults to
	// logging.NoOpLogger.
	Logger logging.Logger
}

// NewFileStore creates the root directory if needed and returns a file-backed
// state backend rooted there.
func NewFileStore(root string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("state: init directory %s: %w", root, err)
	}

	return &FileStore{root: root, logger: opts.Logger}, nil
}

func (f *FileStore) scopePath(scope core.Scope) string {
	return filepath.Join(f.root, string(scope)+".json")
}

// Load reads the scope document and returns the value for key, reporting
// absence with ok=false. A missing scope file means no entries yet.
func (f *FileStore) Load(_ context.Context, key core.ScopedKey) (any, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	table, err := f.readScope(key.Scope)
	if err != nil {
		return nil, false, err
	}

	v, ok := table[key.Key]
	if !ok {
		return nil, false, nil
	}

	return v, true, nil
}

// ApplyDelta groups entries by scope and rewrites each touched scope document
// once, applying the scope's entries in their original order (value entries
// overwrite, tombstones remove). Applying an empty delta is a no-op.
func (f *FileStore) ApplyDelta(_ context.Context, delta core.Delta) error {
	if len(delta) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	byScope := map[core.Scope][]core.DeltaEntry{}
	order := []core.Scope{}

	for _, e := range delta {
		if _, ok := byScope[e.Key.Scope]; !ok {
			order = append(order, e.Key.Scope)
		}
		byScope[e.Key.Scope] = append(byScope[e.Key.Scope], e)
	}

	for _, scope := range order {
		table, err := f.readScope(scope)
		if err != nil {
			return err
		}

		for _, e := range byScope[scope] {
			if e.Delete {
				delete(table, e.Key.Key)
				continue
			}
			table[e.Key.Key] = e.Value
		}

		if err := f.writeScope(scope, table); err != nil {
			return err
		}

		f.logger.Debug("Scope document rewritten", "scope", string(scope), "entries", len(table), "applied", len(byScope[scope]))
	}

	return nil
}

func (f *FileStore) readScope(scope core.Scope) (map[string]any, error) {
	b, err := os.ReadFile(f.scopePath(scope))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read scope %s: %w", scope, err)
	}

	table := map[string]any{}
	if err := json.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("state: decode scope %s: %w", scope, err)
	}

	return table, nil
}

func (f *FileStore) writeScope(scope core.Scope, table map[string]any) error {
	b, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode scope %s: %w", scope, err)
	}

	path := f.scopePath(scope)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("state: write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("state: atomic rename %s: %w", path, err)
	}

	return nil
}
