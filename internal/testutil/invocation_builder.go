package testutil

import (
	"context"

	"github.com/hupe1980/agentstore/core"
)

// InvocationBuilder provides a fluent helper for constructing invocations
// wired to test fixtures. Example:
//
//	inv := NewInvocationBuilder().ID("inv-1").Backend(backend).Build()
//
// Chain only the collaborators you need; an unconfigured builder yields an
// open invocation over a backend-less state store.
type InvocationBuilder struct {
	ctx           context.Context
	id            string
	stateStore    *core.StateStore
	artifactStore core.ArtifactStore
	namespace     string
	closeSink     func(delta core.Delta) error
}

// NewInvocationBuilder creates a builder with a background context.
func NewInvocationBuilder() *InvocationBuilder {
	return &InvocationBuilder{ctx: context.Background()}
}

// Context sets the invocation context (chainable).
func (b *InvocationBuilder) Context(ctx context.Context) *InvocationBuilder {
	b.ctx = ctx
	return b
}

// ID overrides the auto-generated invocation id (chainable). Use mainly in
// tests where determinism matters.
func (b *InvocationBuilder) ID(id string) *InvocationBuilder { b.id = id; return b }

// StateStore sets the state store the invocation operates against (chainable).
func (b *InvocationBuilder) StateStore(s *core.StateStore) *InvocationBuilder {
	b.stateStore = s
	return b
}

// Backend wraps the given backend in a fresh state store (chainable).
// Convenience for tests that only care about persistence behavior.
func (b *InvocationBuilder) Backend(backend core.Backend) *InvocationBuilder {
	b.stateStore = core.NewStateStore(backend)
	return b
}

// ArtifactStore sets the artifact store (chainable).
func (b *InvocationBuilder) ArtifactStore(s core.ArtifactStore) *InvocationBuilder {
	b.artifactStore = s
	return b
}

// Namespace sets the artifact addressing scope (chainable).
func (b *InvocationBuilder) Namespace(ns string) *InvocationBuilder {
	b.namespace = ns
	return b
}

// CloseSink sets the sink receiving the drained delta on close (chainable).
func (b *InvocationBuilder) CloseSink(fn func(delta core.Delta) error) *InvocationBuilder {
	b.closeSink = fn
	return b
}

// Build constructs the open invocation.
func (b *InvocationBuilder) Build() *core.Invocation {
	stateStore := b.stateStore
	if stateStore == nil {
		stateStore = core.NewStateStore(nil)
	}

	return core.NewInvocation(b.ctx, stateStore, func(o *core.InvocationOptions) {
		o.ID = b.id
		o.ArtifactStore = b.artifactStore
		o.Namespace = b.namespace
		o.CloseSink = b.closeSink
	})
}
