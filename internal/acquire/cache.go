package acquire

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache maps resources to deterministic local paths under a single directory.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the local path of a dated resource: {dir}/{PREFIX}_{YYYYMMDD}.{ext}.
func (c *Cache) Path(prefix string, date time.Time, ext string) string {
	name := fmt.Sprintf("%s_%s", strings.ToUpper(prefix), date.UTC().Format("20060102"))
	return filepath.Join(c.dir, name+normalizeExt(ext))
}

// FixedPath returns the local path of an undated resource.
func (c *Cache) FixedPath(name, ext string) string {
	return filepath.Join(c.dir, name+normalizeExt(ext))
}

// Ensure creates the cache directory if it does not exist.
func (c *Cache) Ensure() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", c.dir, err)
	}
	return nil
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
