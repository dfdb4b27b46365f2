// Package cache stores settled layouts on disk so repeated renders of the
// same data with the same options skip the simulation.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/recera/netgraph/pkg/graphdata"
)

const indexVersion = "1"

// Cache is a directory of laid-out data sets keyed by their inputs.
type Cache struct {
	mu         sync.Mutex
	dir        string
	index      *Index
	maxEntries int
	maxAge     time.Duration
	stats      Stats
	log        logr.Logger
}

// Index tracks all cached entries
type Index struct {
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Entry represents a single cached layout
type Entry struct {
	Key         string    `json:"key"`
	File        string    `json:"file"`
	Nodes       int       `json:"nodes"`
	Created     time.Time `json:"created"`
	LastAccess  time.Time `json:"last_access"`
	AccessCount int       `json:"access_count"`
}

// Stats counts cache lookups.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// Config holds cache configuration
type Config struct {
	Dir        string        // Cache directory (default: user cache dir + /netgraph)
	MaxEntries int           // Least recently used entries beyond this are evicted (default: 256)
	MaxAge     time.Duration // Entries older than this miss (default: 30 days, negative: never)
	Logger     logr.Logger   // Receives index write failures on lookups
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return Config{
		Dir:        filepath.Join(dir, "netgraph"),
		MaxEntries: 256,
		MaxAge:     30 * 24 * time.Hour,
	}
}

// New opens or creates a cache. A missing or corrupt index starts empty.
func New(config Config) (*Cache, error) {
	d := DefaultConfig()
	if config.Dir == "" {
		config.Dir = d.Dir
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = d.MaxEntries
	}
	if config.MaxAge == 0 {
		config.MaxAge = d.MaxAge
	}
	if err := os.MkdirAll(filepath.Join(config.Dir, "layouts"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:        config.Dir,
		maxEntries: config.MaxEntries,
		maxAge:     config.MaxAge,
		log:        config.Logger,
	}
	if c.log.GetSink() == nil {
		c.log = logr.Discard()
	}
	if err := c.loadIndex(); err != nil {
		c.index = &Index{Version: indexVersion, Entries: make(map[string]*Entry), Updated: time.Now()}
	}
	c.stats.Entries = len(c.index.Entries)
	return c, nil
}

// Key derives a cache key from the raw data file and anything else that
// changes the layout: options, seed, tick budget.
func Key(data []byte, inputs ...string) string {
	h := sha256.New()
	h.Write(data)
	for _, in := range inputs {
		// Length-prefixed so ("ab", "c") and ("a", "bc") differ.
		fmt.Fprintf(h, "%d:%s", len(in), in)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached layout for key.
func (c *Cache) Get(key string) (graphdata.Data, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[key]
	if !ok {
		c.stats.Misses++
		return graphdata.Data{}, false
	}
	if c.maxAge > 0 && time.Since(entry.Created) > c.maxAge {
		c.dropLocked(key)
		return graphdata.Data{}, false
	}
	b, err := os.ReadFile(filepath.Join(c.dir, "layouts", entry.File))
	if err != nil {
		c.dropLocked(key)
		return graphdata.Data{}, false
	}
	d, err := graphdata.Decode(bytes.NewReader(b), graphdata.FormatJSON)
	if err != nil {
		c.dropLocked(key)
		return graphdata.Data{}, false
	}

	entry.LastAccess = time.Now()
	entry.AccessCount++
	c.stats.Hits++
	if err := c.saveIndexLocked(); err != nil {
		c.log.Error(err, "failed to save cache index", "dir", c.dir)
	}
	return d, true
}

// dropLocked removes an unusable entry, counts the miss and persists the index
// so the entry does not come back on the next open.
func (c *Cache) dropLocked(key string) {
	c.removeLocked(key)
	c.stats.Misses++
	if err := c.saveIndexLocked(); err != nil {
		c.log.Error(err, "failed to save cache index", "dir", c.dir)
	}
}

// Put stores a layout under key, evicting the least recently used entries
// when the cache is full.
func (c *Cache) Put(key string, d graphdata.Data) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	file := key + ".json"
	if err := os.WriteFile(filepath.Join(c.dir, "layouts", file), b, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.index.Entries[key] = &Entry{
		Key:        key,
		File:       file,
		Nodes:      len(d.Nodes),
		Created:    now,
		LastAccess: now,
	}
	c.evictLocked()
	c.stats.Entries = len(c.index.Entries)
	return c.saveIndexLocked()
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.index.Entries {
		c.removeLocked(key)
	}
	c.stats = Stats{}
	return c.saveIndexLocked()
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index.Entries)
}

func (c *Cache) evictLocked() {
	excess := len(c.index.Entries) - c.maxEntries
	if excess <= 0 {
		return
	}
	entries := make([]*Entry, 0, len(c.index.Entries))
	for _, e := range c.index.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].LastAccess.Before(entries[j].LastAccess) })
	for _, e := range entries[:excess] {
		c.removeLocked(e.Key)
		c.stats.Evictions++
	}
}

func (c *Cache) removeLocked(key string) {
	if e, ok := c.index.Entries[key]; ok {
		os.Remove(filepath.Join(c.dir, "layouts", e.File))
		delete(c.index.Entries, key)
	}
	c.stats.Entries = len(c.index.Entries)
}

func (c *Cache) loadIndex() error {
	b, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return err
	}
	var index Index
	if err := json.Unmarshal(b, &index); err != nil {
		return err
	}
	if index.Version != indexVersion || index.Entries == nil {
		return fmt.Errorf("unsupported index version %q", index.Version)
	}
	c.index = &index
	return nil
}

func (c *Cache) saveIndexLocked() error {
	c.index.Updated = time.Now()
	b, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), b, 0o644)
}
