package geofuzz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/geofuzz/internal/cache"
)

// ListCorpus returns the regular files directly inside dir, sorted by path.
// Subdirectories are not descended into. An empty directory yields an empty
// slice. A directory that cannot be read fails with KindConfig.
func ListCorpus(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, newError(KindConfig, "list corpus", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// EnsureDirs creates each directory if missing. It is idempotent and is meant
// to run once before ListCorpus as a first-run convenience.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Clean(d), 0o755); err != nil {
			return newError(KindConfig, "create directory", d, err)
		}
	}
	return nil
}

// Asset is a decoded corpus entry. Assets are read-only and may be shared
// by any number of runs.
type Asset struct {
	Path   string
	Bitmap *Bitmap
}

// Name returns the base file name of the asset.
func (a *Asset) Name() string {
	return filepath.Base(a.Path)
}

// AssetCache decodes each corpus file at most once while it stays cached.
// Concurrent requests for the same path share a single decode.
//
// AssetCache is safe for concurrent use.
type AssetCache struct {
	entries *cache.Cache[string, *Asset]
	group   singleflight.Group
	load    func(path string) (*Bitmap, error)
}

// NewAssetCache creates a cache holding at most capacity decoded assets
// (0 = unlimited).
func NewAssetCache(capacity int) *AssetCache {
	return &AssetCache{
		entries: cache.New[string, *Asset](capacity),
		load:    LoadBitmap,
	}
}

// Get returns the decoded asset at path. Decode failures carry KindLoad and
// are not cached.
func (c *AssetCache) Get(path string) (*Asset, error) {
	if a, ok := c.entries.Get(path); ok {
		return a, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		if a, ok := c.entries.Get(path); ok {
			return a, nil
		}
		bm, err := c.load(path)
		if err != nil {
			return nil, err
		}
		a := &Asset{Path: path, Bitmap: bm}
		c.entries.Set(path, a)
		return a, nil
	})
	if err != nil {
		if KindOf(err) == 0 {
			err = newError(KindLoad, "decode", path, err)
		}
		return nil, err
	}
	a, ok := v.(*Asset)
	if !ok {
		return nil, fmt.Errorf("geofuzz: asset cache: unexpected value %T", v)
	}
	return a, nil
}

// CacheStats reports asset cache usage.
type CacheStats = cache.Stats

// Stats returns hit/miss statistics of the underlying cache.
func (c *AssetCache) Stats() CacheStats {
	return c.entries.Stats()
}
