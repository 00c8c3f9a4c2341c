package guidelines

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache is a JSON file of guideline lookups keyed by lower-cased plant name.
// Open it once per process; every Put is followed by a Save.
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]Guideline
}

// OpenCache loads path. A missing file yields an empty cache; a corrupt one
// is logged and replaced on the next save.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]Guideline)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading guideline cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Printf("guidelines: ignoring unreadable cache %s: %v", path, err)
		c.entries = make(map[string]Guideline)
		return c, nil
	}
	if len(c.entries) > 0 {
		log.Printf("guidelines: loaded %d plant(s) from cache", len(c.entries))
	}
	return c, nil
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Cache) Get(name string) (Guideline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.entries[cacheKey(name)]
	return g, ok
}

func (c *Cache) Put(name string, g Guideline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(name)] = g
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache to disk, creating the parent directory.
func (c *Cache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding guideline cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("writing guideline cache: %w", err)
	}
	return nil
}
