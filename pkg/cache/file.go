package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores one JSON file per entry under a directory. Files are
// spread over 256 subdirectories by the first byte of the key hash.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file cache in dir, creating the directory if
// needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// fileEntry is the on-disk form of one entry. The key is kept so that
// entries can be classified without reversing the hash.
type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get implements Cache. Corrupt and expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	entry, err := readEntry(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case errors.Is(err, errCorrupt):
		_ = os.Remove(path)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if entry.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set implements Cache. The entry is written to a temporary file and
// renamed into place so readers never see a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		entry.ExpiresAt = c.now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

// path maps a key to its entry file.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

// =============================================================================
// Maintenance
// =============================================================================

// Stats summarizes the entries of a FileCache.
type Stats struct {
	// Entries counts live entries per kind (snapshot, artifact, other).
	Entries map[string]int
	// Bytes is the on-disk size of all entry files.
	Bytes int64
	// Expired counts entries past their expiry that are still on disk.
	Expired int
}

// Total returns the number of live entries.
func (s Stats) Total() int {
	n := 0
	for _, v := range s.Entries {
		n += v
	}
	return n
}

// Stats walks the cache directory.
func (c *FileCache) Stats() (Stats, error) {
	st := Stats{Entries: make(map[string]int)}
	now := c.now()
	err := c.walk(func(path string, info fs.FileInfo, e *fileEntry) {
		st.Bytes += info.Size()
		switch {
		case e == nil:
			st.Entries["other"]++
		case e.expired(now):
			st.Expired++
		default:
			st.Entries[KindOf(e.Key)]++
		}
	})
	return st, err
}

// Prune removes expired and corrupt entries and returns how many were
// removed.
func (c *FileCache) Prune() (int, error) {
	now := c.now()
	removed := 0
	err := c.walk(func(path string, _ fs.FileInfo, e *fileEntry) {
		if e == nil || e.expired(now) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	})
	return removed, err
}

// Clear removes every entry and returns how many were removed. The cache
// directory itself is kept.
func (c *FileCache) Clear() (int, error) {
	removed := 0
	err := c.walk(func(path string, _ fs.FileInfo, _ *fileEntry) {
		if os.Remove(path) == nil {
			removed++
		}
	})
	if err != nil {
		return removed, err
	}
	subdirs, err := os.ReadDir(c.dir)
	if err != nil {
		return removed, err
	}
	for _, d := range subdirs {
		if d.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, d.Name())) // only succeeds when empty
		}
	}
	return removed, nil
}

// walk calls fn for every entry file. Unreadable entries are passed with
// a nil entry.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo, e *fileEntry)) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil {
			entry = nil
		}
		fn(path, info, entry)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

var errCorrupt = errors.New("corrupt cache entry")

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, errCorrupt
	}
	return &e, nil
}

// KindOf classifies a key produced by a Keyer as "snapshot", "artifact"
// or "other". Scope prefixes are ignored.
func KindOf(key string) string {
	for _, kind := range []string{"snapshot", "artifact"} {
		if strings.HasPrefix(key, kind+":") || strings.Contains(key, ":"+kind+":") {
			return kind
		}
	}
	return "other"
}

var _ Cache = (*FileCache)(nil)
