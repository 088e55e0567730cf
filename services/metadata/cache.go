package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// fileCache is a TTL cache of JSON payloads on a filesystem. It sits behind
// afero so tests can run against an in-memory filesystem.
type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
}

func newFileCache(fs afero.Fs, dir string, ttlHours int) *fileCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &fileCache{fs: fs, dir: dir, ttl: time.Duration(ttlHours) * time.Hour}
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}

func (c *fileCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// get loads a cached value into v if present and fresh.
func (c *fileCache) get(key string, v any) (bool, error) {
	path := c.pathFor(key)
	info, err := c.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if time.Since(info.ModTime()) > c.ttl {
		_ = c.fs.Remove(path)
		return false, nil
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt entry; drop it rather than fail the lookup.
		_ = c.fs.Remove(path)
		return false, nil
	}
	return true, nil
}

// set stores a value under key, creating the cache directory if needed.
func (c *fileCache) set(key string, v any) error {
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, c.pathFor(key), data, 0o644)
}

// clear removes every cached entry.
func (c *fileCache) clear() error {
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return err
	}
	return c.fs.MkdirAll(c.dir, 0o755)
}
