package core

import (
	"context"
	"time"
)

// Default mime types applied when the caller leaves MimeType empty.
const (
	// DefaultMimeType is assumed for binary payloads.
	DefaultMimeType = "application/octet-stream"
	// DefaultTextMimeType is assumed by NewTextArtifact for text payloads.
	DefaultTextMimeType = "text/plain"
)

// Artifact is one immutable version of a named binary payload. Versions of a
// name start at 1 and increment by exactly 1 on every save, regardless of
// content equality; once created a version is never mutated or deleted, which
// is what makes the chain usable as an audit trail (provenance, diffing,
// re-reading a historical version while later ones are written).
//
// Callers fill Name, Data and MimeType; the store assigns Version and Created
// on save, and InvocationID records the invocation the save was addressed
// through, when there was one.
type Artifact struct {
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	Data         []byte    `json:"data"`
	MimeType     string    `json:"mime_type"`
	InvocationID string    `json:"invocation_id,omitempty"`
	Created      time.Time `json:"created"`
}

// NewArtifact builds an unversioned artifact record for a binary payload.
// MimeType defaults to application/octet-stream when empty.
func NewArtifact(name string, data []byte, mimeType string) Artifact {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return Artifact{Name: name, Data: data, MimeType: mimeType}
}

// NewTextArtifact builds an unversioned artifact record from a text payload,
// encoded as UTF-8 bytes. MimeType defaults to text/plain when empty.
func NewTextArtifact(name, text, mimeType string) Artifact {
	if mimeType == "" {
		mimeType = DefaultTextMimeType
	}
	return Artifact{Name: name, Data: []byte(text), MimeType: mimeType}
}

// Text returns the payload decoded as a UTF-8 string.
func (a Artifact) Text() string { return string(a.Data) }

// Clone returns a deep copy of the artifact safe for independent mutation.
func (a Artifact) Clone() Artifact {
	c := a
	c.Data = make([]byte, len(a.Data))
	copy(c.Data, a.Data)
	return c
}

// ArtifactStore persists every version of each named artifact within a
// namespace (the addressing scope: session, user or whatever granularity the
// caller configures). Implementations must be safe for concurrent use and
// must assign version numbers atomically per name, so concurrent saves of the
// same name serialize while saves of different names may proceed in parallel.
// Nothing is ever deleted; retention is an external policy.
//
// Load and LoadVersion report an unknown name or version with ok=false and a
// nil error; absence is an expected outcome, not a failure. Save rejects an
// empty name with ErrInvalidName and returns the version number it assigned.
// List preserves the insertion order of each name's first save; ListVersions
// is ascending and contiguous from 1.
type ArtifactStore interface {
	Save(ctx context.Context, namespace string, artifact Artifact) (int, error)
	Load(ctx context.Context, namespace, name string) (Artifact, bool, error)
	LoadVersion(ctx context.Context, namespace, name string, version int) (Artifact, bool, error)
	List(ctx context.Context, namespace string) ([]string, error)
	ListVersions(ctx context.Context, namespace, name string) ([]int, error)
}
