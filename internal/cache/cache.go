// Package cache provides the persistent image-analysis cache. It bounds the
// number of stored results, evicts the least recently used entry on overflow,
// and snapshots its full state to a single file between runs so a re-analyzed
// document never pays for a model call twice.
package cache

import (
	"container/list"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/spherical/docpipe/internal/domain"
)

// DefaultCapacity is used when the configuration does not set a cache size.
const DefaultCapacity = 100

// snapshotVersion guards against reading snapshots written by an
// incompatible layout. Bump on any change to the entry encoding.
const snapshotVersion = 1

// Cache is a bounded LRU mapping from derived keys to analysis results.
// It is not safe for concurrent use; callers that share it across goroutines
// must serialize access (see analyze.Analyzer).
type Cache struct {
	capacity int
	ll       *list.List // front = most recently used
	index    map[string]*list.Element
	logger   zerolog.Logger
}

type entry struct {
	key    string
	result domain.AnalysisResult
}

type snapshot struct {
	Version int             `json:"version"`
	Entries []snapshotEntry `json:"entries"` // ordered oldest-first
}

type snapshotEntry struct {
	Key    string                `json:"key"`
	Result domain.AnalysisResult `json:"result"`
}

// New creates an empty cache. A capacity of zero or less disables caching:
// Get always misses and Put is a no-op.
func New(capacity int, logger zerolog.Logger) *Cache {
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
		logger:   logger,
	}
}

// Load reads a snapshot from path and rebuilds the cache. A missing file
// yields an empty cache. A corrupt or unreadable snapshot is recoverable:
// it is logged and an empty cache returned, never an error. Snapshot entries
// are stored oldest-first, so replaying them through Put reconstructs the
// recency order exactly (and trims to capacity if the snapshot was written
// by a larger cache).
func Load(path string, capacity int, logger zerolog.Logger) *Cache {
	c := New(capacity, logger)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("Cache snapshot unreadable, starting empty")
		}
		return c
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Cache snapshot corrupt, starting empty")
		return c
	}
	if snap.Version != snapshotVersion {
		logger.Warn().Int("version", snap.Version).Str("path", path).Msg("Cache snapshot version mismatch, starting empty")
		return c
	}

	for _, e := range snap.Entries {
		c.Put(e.Key, e.Result)
	}

	logger.Debug().Int("entries", c.Len()).Str("path", path).Msg("Cache snapshot loaded")
	return c
}

// Get returns the stored result for key and promotes the entry to most
// recently used. A miss mutates nothing.
func (c *Cache) Get(key string) (domain.AnalysisResult, bool) {
	el, ok := c.index[key]
	if !ok {
		return domain.AnalysisResult{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).result, true
}

// Put inserts or overwrites the entry for key, marking it most recently
// used. When the insertion would exceed capacity, exactly one entry is
// evicted: the least recently used. Size never exceeds capacity after Put
// returns.
func (c *Cache) Put(key string, result domain.AnalysisResult) {
	if c.capacity <= 0 {
		return
	}

	if el, ok := c.index[key]; ok {
		el.Value.(*entry).result = result
		c.ll.MoveToFront(el)
		return
	}

	c.index[key] = c.ll.PushFront(&entry{key: key, result: result})

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		evicted := oldest.Value.(*entry)
		delete(c.index, evicted.key)
		c.logger.Debug().Str("key", evicted.key).Msg("Evicted least recently used cache entry")
	}
}

// Save writes a snapshot of the cache to path, replacing any prior snapshot.
// The write goes through a temp file and rename so a failed save never
// leaves a truncated snapshot behind, and never touches in-memory state.
func (c *Cache) Save(path string) error {
	snap := snapshot{Version: snapshotVersion}
	// Walk back-to-front so the serialized list is oldest-first.
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		snap.Entries = append(snap.Entries, snapshotEntry{Key: e.key, Result: e.result})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return domain.StorageError("marshal cache snapshot", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.StorageError("create cache directory", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.StorageError("write cache snapshot", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return domain.StorageError("replace cache snapshot", err)
	}
	return nil
}

// Len returns the number of entries currently stored.
func (c *Cache) Len() int {
	return c.ll.Len()
}

// Capacity returns the configured maximum entry count.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Keys returns all keys ordered oldest-first. Used by the cache CLI command.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.ll.Len())
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}
