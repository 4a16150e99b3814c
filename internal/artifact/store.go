package artifact

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// maxHintLength caps the human-readable parts of a cache file name.
const maxHintLength = 64

// CorruptEntryError is returned when a cache file exists but cannot be used.
// Corrupt entries are never recomputed silently; the file has to be removed.
type CorruptEntryError struct {
	Path string
	Err  error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %v (remove the file to regenerate it)", e.Path, e.Err)
}

func (e *CorruptEntryError) Unwrap() error {
	return e.Err
}

// Store is a file-backed cache of artifact descriptors keyed by
// (version, download URL). One JSON file is kept per key.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the cache files.
func (s *Store) Dir() string {
	return s.dir
}

// CacheKey derives the stable identifier for a (version, download URL) pair.
// Both strings are length-prefixed before hashing so that no two distinct
// pairs produce the same input.
func CacheKey(version, downloadURL string) string {
	buf := make([]byte, 0, 16+len(version)+len(downloadURL))
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(version)))
	buf = append(buf, version...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(downloadURL)))
	buf = append(buf, downloadURL...)
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}

// Path returns the cache file path for a (version, download URL) pair.
func (s *Store) Path(version, downloadURL string) string {
	name := fmt.Sprintf("%s-%s-%s.json",
		sanitize(version), sanitize(baseName(downloadURL)), CacheKey(version, downloadURL))
	return filepath.Join(s.dir, name)
}

// Get loads the cached descriptor for a pair. The boolean is false when no
// entry exists.
func (s *Store) Get(version, downloadURL string) (Descriptor, bool, error) {
	path := s.Path(version, downloadURL)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Descriptor{}, false, nil
		}
		return Descriptor{}, false, &CorruptEntryError{Path: path, Err: err}
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, false, &CorruptEntryError{Path: path, Err: err}
	}
	if !d.Complete() {
		return Descriptor{}, false, &CorruptEntryError{Path: path, Err: fmt.Errorf("missing descriptor fields")}
	}

	return d, true, nil
}

// Put persists a descriptor for a version. The file is written to a
// temporary name and renamed into place, so readers never observe a partial
// entry even when two writers race on the same key.
func (s *Store) Put(version string, d Descriptor) error {
	if !d.Complete() {
		return fmt.Errorf("refusing to cache incomplete descriptor for %s", d.DownloadURL)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	path := s.Path(version, d.DownloadURL)
	tmpFile, err := os.CreateTemp(s.dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// sanitize turns s into a file-name-safe hint. The hint carries no
// uniqueness guarantee; CacheKey does.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxHintLength {
			break
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
