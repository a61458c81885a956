package core

import (
	"fmt"
	"strings"
)

// Scope classifies the lifetime and visibility of a state key.
//
// Contract:
//   - ScopeSession entries live as long as the owning session; the backend
//     collaborator decides when a session ends
//   - ScopeUser and ScopeApp entries survive until explicitly deleted
//   - ScopeTemp entries never leave the process: they are scratch space bound
//     to a single invocation and are discarded when it closes.
type Scope string

const (
	// ScopeSession holds conversational state belonging to one session.
	ScopeSession Scope = "session"
	// ScopeUser holds state shared by all sessions of one user.
	ScopeUser Scope = "user"
	// ScopeApp holds state shared application-wide.
	ScopeApp Scope = "app"
	// ScopeTemp holds invocation-local scratch state that is never persisted.
	ScopeTemp Scope = "temp"
)

// Raw key prefixes. These are a wire-visible contract: exact literal ASCII,
// case-sensitive, colon included. A raw key without a recognized prefix
// belongs to the session scope.
const (
	// TempPrefix marks keys in the temp scope.
	TempPrefix = "temp:"
	// UserPrefix marks keys in the user scope.
	UserPrefix = "user:"
	// AppPrefix marks keys in the app scope.
	AppPrefix = "app:"
)

// Persistent reports whether entries of this scope are captured in the state
// delta for the durable backend. Temp is the only non-persistent scope.
func (s Scope) Persistent() bool { return s != ScopeTemp }

// ScopedKey is a raw key resolved into its scope and bare key. Bare keys are
// unique within a scope.
type ScopedKey struct {
	Scope Scope  `json:"scope"`
	Key   string `json:"key"`
}

// String returns the raw key form that resolves back to k.
func (k ScopedKey) String() string {
	switch k.Scope {
	case ScopeTemp:
		return TempPrefix + k.Key
	case ScopeUser:
		return UserPrefix + k.Key
	case ScopeApp:
		return AppPrefix + k.Key
	default:
		return k.Key
	}
}

// ResolveKey parses a raw key into a ScopedKey using the fixed prefix
// grammar: "temp:" maps to ScopeTemp, "user:" to ScopeUser, "app:" to
// ScopeApp, anything else to ScopeSession with the raw key unchanged as the
// bare key. Prefix matching is exact-literal and case-sensitive, checked in
// that order. Only the leading prefix is stripped; the bare key may itself
// contain colons.
//
// ResolveKey is a pure function with no side effects. It fails with
// ErrInvalidKey when the bare key comes out empty, whether because the raw
// key was empty or because nothing followed a recognized prefix.
func ResolveKey(rawKey string) (ScopedKey, error) {
	scope, bare := ScopeSession, rawKey

	switch {
	case strings.HasPrefix(rawKey, TempPrefix):
		scope, bare = ScopeTemp, rawKey[len(TempPrefix):]
	case strings.HasPrefix(rawKey, UserPrefix):
		scope, bare = ScopeUser, rawKey[len(UserPrefix):]
	case strings.HasPrefix(rawKey, AppPrefix):
		scope, bare = ScopeApp, rawKey[len(AppPrefix):]
	}

	if bare == "" {
		return ScopedKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, rawKey)
	}

	return ScopedKey{Scope: scope, Key: bare}, nil
}
