// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to keep
// domain contracts central and avoid dependency cycles. The implementations
// here (in-memory and file system) both honor the same chain semantics:
// versions of a name count 1, 2, 3, ... with no deduplication, no mutation
// and no deletion, so every version ever written stays addressable.
//
// Callers should depend on the core interface rather than concrete types so
// they can substitute alternative persistence layers (object stores,
// databases) in tests or production without touching calling code.
package artifact
