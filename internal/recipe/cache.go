package recipe

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Cache directory layout:
//
//	cacheDir/
//	  .cache.json     # maps "version-config" to the last successful build
const cacheFile = ".cache.json"

// buildEntry contains metadata about a single successful build.
type buildEntry struct {
	PackageDir string    `json:"package_dir"`
	Relocated  []string  `json:"relocated,omitempty"`
	BuildTime  time.Time `json:"build_time"`
}

// buildCache maps "version-config" keys to their build entries.
type buildCache struct {
	Cache map[string]*buildEntry `json:"cache"`
}

func cacheKey(version, config string) string {
	return version + "-" + config
}

func (c *buildCache) get(version, config string) (*buildEntry, bool) {
	entry, ok := c.Cache[cacheKey(version, config)]
	return entry, ok
}

func (c *buildCache) set(version, config string, entry *buildEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*buildEntry)
	}
	c.Cache[cacheKey(version, config)] = entry
}

// loadCache reads the cache file in dir. A missing file is an empty cache.
func loadCache(dir string) (*buildCache, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if os.IsNotExist(err) {
		return &buildCache{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// saveCache writes the cache file to dir.
func saveCache(dir string, cache *buildCache) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}
