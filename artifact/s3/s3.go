package s3

// Placeholder for an S3 backed ArtifactStore implementation.
//
// Intent: provide a production ready persistent store using AWS S3 (or
// compatible APIs) implementing the core.ArtifactStore interface. Version
// chains map naturally onto object keys (<namespace>/<name>/<version>) with
// the metadata sidecar stored as object metadata or a companion key; the
// per-name version assignment must then be made atomic with a conditional
// put or an external lock, since a directory scan no longer suffices. This
// file intentionally remains a stub so that downstream contributors can
// supply credentials / client wiring without pulling an AWS dependency into
// minimal builds. If you implement this, keep the dependency surface narrow
// and make the configuration (bucket, prefix, ACL, encryption) explicit via
// a small Config struct.
