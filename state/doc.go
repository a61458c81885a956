// Package state houses concrete implementations of the core.Backend
// collaborator. The interface itself and the delta types live in the core
// package to centralize domain contracts; keeping only implementations here
// prevents higher level packages from depending on concrete storage.
//
// Add additional backends (Redis, Postgres, Firestore, etc.) in sub-packages
// without changing any calling code. Only the wiring layer needs to decide
// which implementation to instantiate.
package state
