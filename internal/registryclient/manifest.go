package registryclient

import (
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Manifest is the on-disk TOML sidecar recording the last set of
// versions the registry reported for each package. It lets
// AvailableVersions degrade to last-known-good data instead of a hard
// failure when the registry is briefly unreachable.
type Manifest struct {
	Packages map[string][]string `toml:"packages"`
}

// ManifestCache guards a Manifest loaded from, and flushed to, a path
// on disk. The zero value is not usable; construct with
// NewManifestCache.
type ManifestCache struct {
	path string
	mu   sync.Mutex
	data Manifest
}

// NewManifestCache loads path if it exists, starting empty otherwise.
// An empty path disables persistence: Record becomes a pure in-memory
// cache for the life of the process.
func NewManifestCache(path string) *ManifestCache {
	c := &ManifestCache{path: path, data: Manifest{Packages: make(map[string][]string)}}
	c.load()
	return c
}

func (c *ManifestCache) load() {
	if c.path == "" {
		return
	}
	var m Manifest
	if _, err := toml.DecodeFile(c.path, &m); err != nil {
		return
	}
	if m.Packages == nil {
		m.Packages = make(map[string][]string)
	}
	c.data = m
}

// Record stores the registry's current answer for name, flushing to
// disk immediately.
func (c *ManifestCache) Record(name string, versions []semver.Version) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strs := make([]string, len(versions))
	for i, v := range versions {
		strs[i] = v.String()
	}
	c.data.Packages[name] = strs
	c.flush()
}

// Lookup returns the last recorded version list for name, if any.
// Entries that fail to parse (a manifest written by a newer version of
// this tool) are skipped rather than failing the whole lookup.
func (c *ManifestCache) Lookup(name string) ([]semver.Version, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strs, ok := c.data.Packages[name]
	if !ok {
		return nil, false
	}
	out := make([]semver.Version, 0, len(strs))
	for _, s := range strs {
		if v, err := semver.Parse(s); err == nil {
			out = append(out, v)
		}
	}
	return out, true
}

func (c *ManifestCache) flush() {
	if c.path == "" {
		return
	}
	f, err := os.Create(c.path)
	if err != nil {
		return
	}
	defer f.Close()
	_ = toml.NewEncoder(f).Encode(c.data)
}
