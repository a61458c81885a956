// Package core provides the foundational domain types, interfaces and the
// invocation-scoped execution boundary used by AgentStore. It defines the
// core abstractions for:
//
//   - Scoped keys (the temp:/user:/app: prefix grammar and session fallback)
//   - State entries, ordered deltas and the durable Backend collaborator
//   - Versioned, append-only artifacts and the ArtifactStore contract
//   - Invocation (the open/closed boundary one unit of work runs inside)
//
// The package intentionally keeps implementation concerns (file persistence,
// concrete stores) out of scope, exposing small interfaces to enable custom
// backends and extensions. Nothing in this package blocks on network or disk;
// all operations are in-memory bookkeeping, with I/O belonging to the
// collaborators behind the Backend and ArtifactStore interfaces.
package core
