package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentstore/logging"
)

// Invocation is the boundary around one logical unit of work (one agent
// turn). All state and artifact operations are addressed through it, and its
// id is recorded as the writer on everything it touches.
//
// Contract:
//   - Created open; Close transitions to closed exactly once and a second
//     Close is a no-op
//   - Temp scratch entries belong to this invocation alone and are discarded
//     on close unconditionally, success and failure paths alike
//   - On close the accumulated delta is drained into the close sink when one
//     is wired; the invocation itself performs no network or disk I/O
//   - Operations attempted after close fail with ErrInvocationClosed
//   - Safe for concurrent use by multiple logical callers sharing the
//     invocation; concurrent writers to the same temp key get last-write-wins
//     with no further ordering promise.
type Invocation struct {
	ID      string
	Context context.Context
	Started time.Time

	stateStore    *StateStore
	artifactStore ArtifactStore
	namespace     string
	closeSink     func(delta Delta) error

	mu      sync.Mutex
	scratch map[string]any
	delta   Delta
	closed  bool

	*loggerAdapter
}

// InvocationOptions configures optional collaborators of an invocation.
type InvocationOptions struct {
	// ID overrides the generated invocation id.
	ID string
	// ArtifactStore serves artifact operations addressed through this
	// invocation. Optional; without one the artifact methods report the
	// store as not configured.
	ArtifactStore ArtifactStore
	// Namespace is the artifact addressing scope, typically a session or
	// user identifier. The library never interprets it.
	Namespace string
	// CloseSink receives the drained delta when the invocation closes. The
	// core performs no I/O of its own; wiring a sink is how callers persist
	// the delta, usually via Backend.ApplyDelta.
	CloseSink func(delta Delta) error
	// Logger receives lifecycle records. Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// NewInvocation opens an invocation bound to the given state store. The
// returned handle starts out open with an empty scratch space and delta.
func NewInvocation(ctx context.Context, stateStore *StateStore, optFns ...func(o *InvocationOptions)) *Invocation {
	opts := InvocationOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if opts.ID == "" {
		opts.ID = NewID()
	}

	return &Invocation{
		ID:            opts.ID,
		Context:       ctx,
		Started:       time.Now().UTC(),
		stateStore:    stateStore,
		artifactStore: opts.ArtifactStore,
		namespace:     opts.Namespace,
		closeSink:     opts.CloseSink,
		scratch:       map[string]any{},
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (inv *Invocation) Done() <-chan struct{} { return inv.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (inv *Invocation) Err() error { return inv.Context.Err() }

// Namespace returns the artifact addressing scope this invocation writes to.
func (inv *Invocation) Namespace() string { return inv.namespace }

// Closed reports whether the invocation has been closed.
func (inv *Invocation) Closed() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.closed
}

// Close transitions the invocation to closed. Temp scratch entries are
// discarded unconditionally and the accumulated delta is handed to the close
// sink when one is wired and the delta is non-empty. The transition happens
// even when the sink fails; only the sink error is returned. A second Close
// is a no-op returning nil.
func (inv *Invocation) Close() error {
	inv.mu.Lock()
	if inv.closed {
		inv.mu.Unlock()
		return nil
	}
	inv.closed = true
	discarded := len(inv.scratch)
	inv.scratch = map[string]any{}
	delta := inv.delta
	inv.delta = nil
	inv.mu.Unlock()

	inv.LogDebug("Invocation closed", "invocation_id", inv.ID, "temp_discarded", discarded, "delta_entries", len(delta))

	if len(delta) == 0 {
		return nil
	}

	if inv.closeSink == nil {
		inv.LogWarn("State delta dropped at close: no sink wired", "invocation_id", inv.ID, "delta_entries", len(delta))
		return nil
	}

	if err := inv.closeSink(delta); err != nil {
		return fmt.Errorf("close sink: %w", err)
	}

	return nil
}

// GetState returns the current value of rawKey, or def when absent.
func (inv *Invocation) GetState(rawKey string, def any) (any, error) {
	if inv.stateStore == nil {
		return nil, fmt.Errorf("state store not configured")
	}

	return inv.stateStore.Get(inv, rawKey, def)
}

// SetState writes value under rawKey through the state store.
func (inv *Invocation) SetState(rawKey string, value any) error {
	if inv.stateStore == nil {
		return fmt.Errorf("state store not configured")
	}

	return inv.stateStore.Set(inv, rawKey, value)
}

// DeleteState removes rawKey through the state store.
func (inv *Invocation) DeleteState(rawKey string) error {
	if inv.stateStore == nil {
		return fmt.Errorf("state store not configured")
	}

	return inv.stateStore.Delete(inv, rawKey)
}

// SaveArtifact stores a new version of the artifact in this invocation's
// namespace, stamping the invocation as creator, and returns the assigned
// version number.
func (inv *Invocation) SaveArtifact(artifact Artifact) (int, error) {
	if inv.Closed() {
		return 0, ErrInvocationClosed
	}

	if inv.artifactStore == nil {
		return 0, fmt.Errorf("artifact store not configured")
	}

	artifact.InvocationID = inv.ID

	return inv.artifactStore.Save(inv.Context, inv.namespace, artifact)
}

// LoadArtifact retrieves the latest version of the named artifact. ok=false
// means the name was never saved; that is not an error.
func (inv *Invocation) LoadArtifact(name string) (Artifact, bool, error) {
	if inv.Closed() {
		return Artifact{}, false, ErrInvocationClosed
	}

	if inv.artifactStore == nil {
		return Artifact{}, false, fmt.Errorf("artifact store not configured")
	}

	return inv.artifactStore.Load(inv.Context, inv.namespace, name)
}

// LoadArtifactVersion retrieves one specific version of the named artifact.
// ok=false means that version does not exist; that is not an error.
func (inv *Invocation) LoadArtifactVersion(name string, version int) (Artifact, bool, error) {
	if inv.Closed() {
		return Artifact{}, false, ErrInvocationClosed
	}

	if inv.artifactStore == nil {
		return Artifact{}, false, fmt.Errorf("artifact store not configured")
	}

	return inv.artifactStore.LoadVersion(inv.Context, inv.namespace, name, version)
}

// ListArtifacts returns the artifact names saved in this invocation's
// namespace, in first-save order.
func (inv *Invocation) ListArtifacts() ([]string, error) {
	if inv.Closed() {
		return nil, ErrInvocationClosed
	}

	if inv.artifactStore == nil {
		return []string{}, nil
	}

	return inv.artifactStore.List(inv.Context, inv.namespace)
}

// ListArtifactVersions returns the ascending contiguous version numbers of
// the named artifact, empty if the name is unknown.
func (inv *Invocation) ListArtifactVersions(name string) ([]int, error) {
	if inv.Closed() {
		return nil, ErrInvocationClosed
	}

	if inv.artifactStore == nil {
		return []int{}, nil
	}

	return inv.artifactStore.ListVersions(inv.Context, inv.namespace, name)
}

// ScratchKeys returns the temp bare keys currently held by this invocation,
// sorted for stable iteration. After close the scratch space is empty.
func (inv *Invocation) ScratchKeys() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	keys := make([]string, 0, len(inv.scratch))
	for k := range inv.scratch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// scratchGet reads a temp entry. Closed invocations have no scratch entries.
func (inv *Invocation) scratchGet(key string) (any, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	v, ok := inv.scratch[key]
	return v, ok
}

// scratchSet writes a temp entry, reporting false when already closed.
func (inv *Invocation) scratchSet(key string, value any) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.closed {
		return false
	}
	inv.scratch[key] = value
	return true
}

// scratchDelete removes a temp entry, reporting false when already closed.
func (inv *Invocation) scratchDelete(key string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.closed {
		return false
	}
	delete(inv.scratch, key)
	return true
}

// stage appends a delta entry and runs apply (the caller's table update)
// inside the same critical section, so a persistent write either fully
// applies and is captured in the delta or, when the invocation closed
// concurrently, does not happen at all. inv.mu is always acquired before the
// store mutex.
func (inv *Invocation) stage(entry DeltaEntry, apply func()) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.closed {
		return false
	}
	apply()
	inv.delta = append(inv.delta, entry)
	return true
}

// drainDelta returns and clears the delta buffer, reporting false when the
// invocation is already closed.
func (inv *Invocation) drainDelta() (Delta, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.closed {
		return nil, false
	}
	d := inv.delta
	inv.delta = nil
	return d, true
}

// loggerAdapter wraps a logging.Logger and exposes convenience methods
// (LogDebug/LogInfo/LogWarn/LogError). It guarantees a non-nil logger by
// substituting a NoOpLogger when constructed with nil.
type loggerAdapter struct {
	logger logging.Logger
}

// newLoggerAdapter constructs a loggerAdapter with a non-nil logger.
func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerAdapter{logger: l}
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger {
	return l.logger
}

// LogDebug logs a debug message.
func (l *loggerAdapter) LogDebug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// LogInfo logs an info message.
func (l *loggerAdapter) LogInfo(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// LogWarn logs a warning message.
func (l *loggerAdapter) LogWarn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// LogError logs an error message.
func (l *loggerAdapter) LogError(msg string, args ...any) {
	l.logger.Error(msg, args...)
}
