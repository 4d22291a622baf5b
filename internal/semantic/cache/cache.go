// Package cache persists SemanticFeature extraction results keyed by a
// hash of their inputs, so re-running an evolution over unchanged entities
// never re-invokes an external Describer. Uses the usual
// write-to-temp-then-rename pattern for durable side files, per spec
// §4.8 "Semantic Cache".
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"rpg/internal/graph"
	"rpg/internal/rpglog"
)

// Cache is a persistent, process-local hash(kind,name,filePath,sourceText)
// -> SemanticFeature map. It is advisory: concurrent writers race
// last-write-wins, and a missing or corrupt file is treated as empty
// rather than an error.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]graph.SemanticFeature
	dirty   bool
}

// Key hashes the extraction inputs per spec §4.4.
func Key(kind graph.EntityKind, name, filePath, sourceText string) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(sourceText))
	return hex.EncodeToString(h.Sum(nil))
}

// Load opens (or lazily prepares) the cache file at
// <repoRoot>/.rpg/cache/semantic.json. A missing file is not an error.
func Load(repoRoot string) (*Cache, error) {
	path := filepath.Join(repoRoot, ".rpg", "cache", "semantic.json")
	c := &Cache{path: path, entries: make(map[string]graph.SemanticFeature)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		rpglog.Get(rpglog.CategorySemantic).Warn("cache: failed to read %s: %v", path, err)
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		rpglog.Get(rpglog.CategorySemantic).Warn("cache: corrupt cache file %s, starting empty: %v", path, err)
		c.entries = make(map[string]graph.SemanticFeature)
	}
	return c, nil
}

// Get returns the cached feature for key, if present.
func (c *Cache) Get(key string) (graph.SemanticFeature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.entries[key]
	return f, ok
}

// Put records a feature under key, marking the cache dirty.
func (c *Cache) Put(key string, feature graph.SemanticFeature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = feature
	c.dirty = true
}

// Flush atomically writes the cache to disk (write-to-temp + rename) if
// anything changed since the last flush. Safe to call even if nothing is
// dirty; a no-op in that case.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
