package travel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// GeocodeCache is a JSON file cache of resolved addresses, so repeated
// estimates for the same customer don't re-geocode.
type GeocodeCache struct {
	Path string

	mu     sync.RWMutex
	points map[string]model.GeoPoint
	dirty  bool
}

// NewGeocodeCache opens (or initializes) the cache at path. An empty path
// keeps the cache memory-only.
func NewGeocodeCache(path string) (*GeocodeCache, error) {
	c := &GeocodeCache{
		Path:   path,
		points: make(map[string]model.GeoPoint),
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := c.load(); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *GeocodeCache) load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.points)
}

// Save writes the cache file when it has unsaved entries.
func (c *GeocodeCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty || c.Path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(c.points); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Get returns the cached point for address.
func (c *GeocodeCache) Get(address string) (model.GeoPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.points[address]
	return p, ok
}

// Set records a resolved address.
func (c *GeocodeCache) Set(address string, p model.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.points[address]; !ok || existing != p {
		c.points[address] = p
		c.dirty = true
	}
}
