// Package agentstore provides a high-level façade over the scoped state and
// versioned artifact stores (core, state, artifact & logging) enabling rapid
// construction of agent-style applications that need per-turn state isolation
// and an auditable artifact history. Most applications interact with this
// package by:
//  1. Creating an AgentStore via New() (optionally overriding default in-memory stores)
//  2. Opening an invocation per logical unit of work via Begin()
//  3. Reading and writing scoped state and versioned artifacts through the invocation
//  4. Closing the invocation, which discards temp scratch state and hands the
//     accumulated delta to the durable backend
//
// The façade delegates the semantics to the core package while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply durable store
// implementations and a structured logger.
package agentstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentstore/artifact"
	"github.com/hupe1980/agentstore/core"
	"github.com/hupe1980/agentstore/logging"
	"github.com/hupe1980/agentstore/state"
)

// Options configures the AgentStore instance.
type Options struct {
	// Backend is the durable collaborator persisting the session, user and
	// app scopes. Defaults to an in-memory backend if not provided.
	Backend core.Backend

	// ArtifactStore keeps the versioned artifacts. Defaults to an in-memory
	// store if not provided.
	ArtifactStore core.ArtifactStore

	// Namespace is the default artifact addressing scope for invocations
	// opened through Begin. Session or user granularity is the caller's
	// choice; the library never interprets the value.
	Namespace string

	// CommitOnClose wires Backend.ApplyDelta as the close sink of every
	// invocation opened through Begin, so closing an invocation persists its
	// delta. Enabled by default; disable when the caller wants to drain and
	// persist deltas itself.
	CommitOnClose bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentStore is the high-level façade aggregating the state store, the
// artifact store and logging.
type AgentStore struct {
	opts       Options
	stateStore *core.StateStore
}

// New creates a new AgentStore instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentStore {
	opts := Options{
		Backend:       state.NewInMemoryBackend(),
		ArtifactStore: artifact.NewInMemoryStore(),
		CommitOnClose: true,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &AgentStore{
		opts:       opts,
		stateStore: core.NewStateStore(opts.Backend),
	}
}

// BeginOptions configures a single invocation opened through Begin.
type BeginOptions struct {
	// ID overrides the generated invocation id.
	ID string
	// Namespace overrides the store-level artifact namespace for this
	// invocation only.
	Namespace string
}

// Begin opens an invocation wired to the configured stores and logger. When
// CommitOnClose is enabled (the default) the invocation's close sink applies
// the drained delta to the backend.
func (s *AgentStore) Begin(ctx context.Context, optFns ...func(o *BeginOptions)) *core.Invocation {
	bo := BeginOptions{Namespace: s.opts.Namespace}

	for _, fn := range optFns {
		fn(&bo)
	}

	var sink func(delta core.Delta) error
	if s.opts.CommitOnClose && s.opts.Backend != nil {
		backend := s.opts.Backend
		sink = func(delta core.Delta) error {
			return backend.ApplyDelta(ctx, delta)
		}
	}

	inv := core.NewInvocation(ctx, s.stateStore, func(o *core.InvocationOptions) {
		o.ID = bo.ID
		o.ArtifactStore = s.opts.ArtifactStore
		o.Namespace = bo.Namespace
		o.CloseSink = sink
		o.Logger = s.opts.Logger
	})

	s.opts.Logger.Debug("Invocation opened", "invocation_id", inv.ID, "namespace", bo.Namespace)

	return inv
}

// Commit drains the invocation's delta and applies it to the backend without
// closing the invocation, for callers that want a mid-turn flush. Committing
// with nothing staged is a no-op.
func (s *AgentStore) Commit(inv *core.Invocation) error {
	delta, err := s.stateStore.DrainDelta(inv)
	if err != nil {
		return err
	}

	if len(delta) == 0 {
		return nil
	}

	if s.opts.Backend == nil {
		return fmt.Errorf("backend not configured")
	}

	start := time.Now()

	if err := s.opts.Backend.ApplyDelta(inv.Context, delta); err != nil {
		s.opts.Logger.Error("State delta commit failed", "invocation_id", inv.ID, "entries", len(delta), "error", err)
		return fmt.Errorf("apply delta: %w", err)
	}

	s.opts.Logger.Debug("State delta committed", "invocation_id", inv.ID, "entries", len(delta), "duration", time.Since(start))

	return nil
}

// StateStore returns the underlying state store shared by all invocations
// opened through this façade.
func (s *AgentStore) StateStore() *core.StateStore { return s.stateStore }

// ArtifactStore returns the configured artifact store.
func (s *AgentStore) ArtifactStore() core.ArtifactStore { return s.opts.ArtifactStore }

// Backend returns the configured durable state backend.
func (s *AgentStore) Backend() core.Backend { return s.opts.Backend }

// Logger returns the configured logger.
func (s *AgentStore) Logger() logging.Logger { return s.opts.Logger }
