package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentstore/core"
	"github.com/hupe1980/agentstore/logging"
)

const manifestFile = "manifest.yaml"

// versionMeta is the YAML sidecar written next to each payload file. The
// sidecar is written last and is the commit point: payload files without a
// sidecar are ignored by scans and overwritten by the next save.
type versionMeta struct {
	Name         string    `yaml:"name"`
	Version      int       `yaml:"version"`
	MimeType     string    `yaml:"mime_type"`
	InvocationID string    `yaml:"invocation_id,omitempty"`
	Created      time.Time `yaml:"created"`
	Size         int       `yaml:"size"`
}

// manifest records the artifact names of one namespace in the insertion
// order of each name's first save.
type manifest struct {
	Names []string `yaml:"names"`
}

// FileStore is a durable core.ArtifactStore keeping every version of every
// artifact on the local file system.
//
// Layout:
//
//	<root>/<namespace>/manifest.yaml
//	<root>/<namespace>/<name>/000001.bin
//	<root>/<namespace>/<name>/000001.yaml
//	<root>/<namespace>/<name>/000002.bin
//	...
//
// All writes are atomic via a temporary file plus rename. Saves of the same
// name serialize on a per-name lock so version assignment stays mutually
// exclusive, while saves of different names proceed in parallel. Historical
// versions can be read while later ones are being written. Nothing is ever
// deleted; retention is an external policy.
//
// Namespaces and names become directory segments, so they must not contain
// path separators; an empty namespace maps to "default" and a name may not
// collide with the manifest file.
type FileStore struct {
	root   string
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // namespace/name -> save lock
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Logger receives debug records for commits and skipped corrupt files.
	// Defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// NewFileStore creates the root directory if needed and returns a file-backed
// artifact store rooted there.
func NewFileStore(root string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("artifact: init directory %s: %w", root, err)
	}

	return &FileStore{root: root, logger: opts.Logger, locks: map[string]*sync.Mutex{}}, nil
}

// Save appends a new version of the named artifact and returns the assigned
// version number. The payload file is written first and the metadata sidecar
// last, so a crash mid-save leaves no half-committed version behind. The
// namespace manifest is extended when a name commits its first version.
func (f *FileStore) Save(_ context.Context, namespace string, artifact core.Artifact) (int, error) {
	if artifact.Name == "" {
		return 0, fmt.Errorf("%w: empty name", core.ErrInvalidName)
	}

	nsDir, err := f.namespaceDir(namespace)
	if err != nil {
		return 0, err
	}

	nameDir, err := f.nameDir(nsDir, artifact.Name)
	if err != nil {
		return 0, err
	}

	lock := f.nameLock(namespace, artifact.Name)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(nameDir, 0o750); err != nil {
		return 0, fmt.Errorf("artifact: init directory %s: %w", nameDir, err)
	}

	max, err := f.maxVersion(nameDir)
	if err != nil {
		return 0, err
	}
	next := max + 1

	if err := writeFileAtomic(versionPath(nameDir, next, ".bin"), artifact.Data); err != nil {
		return 0, err
	}

	meta := versionMeta{
		Name:         artifact.Name,
		Version:      next,
		MimeType:     artifact.MimeType,
		InvocationID: artifact.InvocationID,
		Created:      time.Now().UTC(),
		Size:         len(artifact.Data),
	}

	b, err := yaml.Marshal(&meta)
	if err != nil {
		return 0, fmt.Errorf("artifact: encode metadata: %w", err)
	}

	if err := writeFileAtomic(versionPath(nameDir, next, ".yaml"), b); err != nil {
		return 0, err
	}

	if next == 1 {
		if err := f.addToManifest(nsDir, artifact.Name); err != nil {
			return 0, err
		}
	}

	f.logger.Debug("Artifact version committed", "namespace", namespace, "name", artifact.Name, "version", next, "size", len(artifact.Data))

	return next, nil
}

// Load returns the highest committed version of the named artifact. ok=false
// means the name was never saved; names that cannot exist on disk (empty or
// containing path separators) are likewise reported absent.
func (f *FileStore) Load(_ context.Context, namespace, name string) (core.Artifact, bool, error) {
	nameDir, ok := f.resolveName(namespace, name)
	if !ok {
		return core.Artifact{}, false, nil
	}

	max, err := f.maxVersion(nameDir)
	if err != nil {
		return core.Artifact{}, false, err
	}

	if max == 0 {
		return core.Artifact{}, false, nil
	}

	return f.loadVersion(nameDir, name, max)
}

// LoadVersion returns one specific committed version of the named artifact.
// ok=false means that version does not exist; that is not an error.
func (f *FileStore) LoadVersion(_ context.Context, namespace, name string, version int) (core.Artifact, bool, error) {
	if version < 1 {
		return core.Artifact{}, false, nil
	}

	nameDir, ok := f.resolveName(namespace, name)
	if !ok {
		return core.Artifact{}, false, nil
	}

	return f.loadVersion(nameDir, name, version)
}

// List returns the namespace's artifact names in first-save order, read from
// the manifest. A namespace without saves has no manifest and lists empty.
func (f *FileStore) List(_ context.Context, namespace string) ([]string, error) {
	nsDir, err := f.namespaceDir(namespace)
	if err != nil {
		return nil, err
	}

	m, err := readManifest(nsDir)
	if err != nil {
		return nil, err
	}

	if m.Names == nil {
		return []string{}, nil
	}

	return m.Names, nil
}

// ListVersions returns the committed version numbers of the named artifact in
// ascending order, empty if the name is unknown.
func (f *FileStore) ListVersions(_ context.Context, namespace, name string) ([]int, error) {
	nameDir, ok := f.resolveName(namespace, name)
	if !ok {
		return []int{}, nil
	}

	entries, err := os.ReadDir(nameDir)
	if errors.Is(err, os.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: scan %s: %w", nameDir, err)
	}

	versions := make([]int, 0, len(entries)/2)
	for _, e := range entries {
		if v, ok := parseVersionFile(e.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)

	return versions, nil
}

func (f *FileStore) loadVersion(nameDir, name string, version int) (core.Artifact, bool, error) {
	metaPath := versionPath(nameDir, version, ".yaml")

	b, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return core.Artifact{}, false, nil
	}
	if err != nil {
		return core.Artifact{}, false, fmt.Errorf("artifact: read metadata %s: %w", metaPath, err)
	}

	var meta versionMeta
	if err := yaml.Unmarshal(b, &meta); err != nil {
		return core.Artifact{}, false, fmt.Errorf("artifact: decode metadata %s: %w", metaPath, err)
	}

	payloadPath := versionPath(nameDir, version, ".bin")

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return core.Artifact{}, false, fmt.Errorf("artifact: read payload %s: %w", payloadPath, err)
	}

	return core.Artifact{
		Name:         name,
		Version:      version,
		Data:         data,
		MimeType:     meta.MimeType,
		InvocationID: meta.InvocationID,
		Created:      meta.Created,
	}, true, nil
}

// nameLock returns the save lock for one namespace/name pair, creating it on
// first use.
func (f *FileStore) nameLock(namespace, name string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := namespace + "/" + name
	lock, ok := f.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[key] = lock
	}
	return lock
}

// maxVersion scans a name directory for committed versions (sidecar present)
// and returns the highest, 0 when none exist yet. Unexpected files are
// skipped.
func (f *FileStore) maxVersion(nameDir string) (int, error) {
	entries, err := os.ReadDir(nameDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("artifact: scan %s: %w", nameDir, err)
	}

	max := 0
	for _, e := range entries {
		v, ok := parseVersionFile(e.Name())
		if !ok {
			if strings.HasSuffix(e.Name(), ".yaml") {
				f.logger.Debug("Skipping unrecognized file in artifact directory", "dir", nameDir, "file", e.Name())
			}
			continue
		}
		if v > max {
			max = v
		}
	}

	return max, nil
}

func (f *FileStore) namespaceDir(namespace string) (string, error) {
	if namespace == "" {
		namespace = "default"
	}
	if err := validateSegment("namespace", namespace); err != nil {
		return "", err
	}

	dir, err := filepath.Abs(f.root)
	if err != nil {
		return "", fmt.Errorf("artifact: abs dir: %w", err)
	}

	resolved := filepath.Join(dir, namespace)
	if !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact: path traversal detected for namespace %q", namespace)
	}

	return resolved, nil
}

func (f *FileStore) nameDir(nsDir, name string) (string, error) {
	if err := validateSegment("name", name); err != nil {
		return "", err
	}
	if name == manifestFile {
		return "", fmt.Errorf("artifact: invalid name %q (reserved)", name)
	}

	resolved := filepath.Join(nsDir, name)
	if !strings.HasPrefix(resolved, nsDir+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact: path traversal detected for name %q", name)
	}

	return resolved, nil
}

// resolveName maps (namespace, name) to the name directory, reporting ok=false
// for addresses that cannot exist on disk.
func (f *FileStore) resolveName(namespace, name string) (string, bool) {
	nsDir, err := f.namespaceDir(namespace)
	if err != nil {
		return "", false
	}

	nameDir, err := f.nameDir(nsDir, name)
	if err != nil {
		return "", false
	}

	return nameDir, true
}

// addToManifest appends name to the namespace manifest unless already listed.
// Manifest updates are serialized on the store mutex.
func (f *FileStore) addToManifest(nsDir, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := readManifest(nsDir)
	if err != nil {
		return err
	}

	for _, n := range m.Names {
		if n == name {
			return nil
		}
	}
	m.Names = append(m.Names, name)

	b, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("artifact: encode manifest: %w", err)
	}

	return writeFileAtomic(filepath.Join(nsDir, manifestFile), b)
}

func readManifest(nsDir string) (manifest, error) {
	var m manifest

	b, err := os.ReadFile(filepath.Join(nsDir, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("artifact: read manifest: %w", err)
	}

	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("artifact: decode manifest: %w", err)
	}

	return m, nil
}

func validateSegment(kind, s string) error {
	if s == "" {
		return fmt.Errorf("artifact: invalid %s (empty)", kind)
	}
	if strings.ContainsAny(s, "/\\") {
		return fmt.Errorf("artifact: invalid %s %q (contains path separator)", kind, s)
	}
	if s == "." || s == ".." {
		return fmt.Errorf("artifact: invalid %s %q", kind, s)
	}
	return nil
}

func versionPath(nameDir string, version int, ext string) string {
	return filepath.Join(nameDir, fmt.Sprintf("%06d%s", version, ext))
}

// parseVersionFile reports the version number of a committed sidecar filename
// (six digits plus ".yaml").
func parseVersionFile(filename string) (int, bool) {
	base, ok := strings.CutSuffix(filename, ".yaml")
	if !ok || len(base) != 6 {
		return 0, false
	}

	v, err := strconv.Atoi(base)
	if err != nil || v < 1 {
		return 0, false
	}

	return v, true
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("artifact: write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("artifact: atomic rename %s: %w", path, err)
	}

	return nil
}
