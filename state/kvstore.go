// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// KV is the raw byte-oriented backend a [Versioned] store persists through.
// Once a key is written it is never overwritten — callers only ever write a
// fresh composite "{commit}:{logical_key}" key, so a KV implementation can
// assume append-only semantics.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte)
	Contains(key string) bool
}

// MemoryKV is a process-local, unbounded KV backend.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func (m *MemoryKV) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// DiskKV persists each key as a file under dir, named by a hash of the key
// to avoid filesystem path-length and character restrictions. It also keeps
// a small JSON manifest of every key it has written, so inspection tooling
// (e.g. `cmd/agexctl history`) can list a commit's keyset without a
// directory walk or knowing a key's hash up front.
type DiskKV struct {
	dir string
	mu  sync.Mutex
}

// NewDiskKV creates a backend rooted at dir, creating it if necessary.
func NewDiskKV(dir string) (*DiskKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskKV{dir: dir}, nil
}

func (d *DiskKV) path(key string) string {
	return filepath.Join(d.dir, diskFileName(key))
}

func (d *DiskKV) manifestPath() string {
	return filepath.Join(d.dir, "manifest.json")
}

func (d *DiskKV) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}
	return b, true
}

func (d *DiskKV) Set(key string, val []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Best-effort: a persisted state backend surfaces write failures to its
	// caller via a future Sync, not here, since Set has no error return in
	// the KV contract the in-memory backend shares.
	_ = os.WriteFile(d.path(key), val, 0o644)
	d.recordKey(key)
}

func (d *DiskKV) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := os.Stat(d.path(key))
	return err == nil
}

// recordKey appends key to the manifest's "keys" array if it isn't already
// present. Keys are append-only in this KV's contract, so the manifest never
// needs to remove an entry.
func (d *DiskKV) recordKey(key string) {
	raw, err := os.ReadFile(d.manifestPath())
	if err != nil {
		raw = []byte(`{"keys":[]}`)
	}
	for _, k := range gjson.GetBytes(raw, "keys").Array() {
		if k.String() == key {
			return
		}
	}
	n := int(gjson.GetBytes(raw, "keys.#").Int())
	updated, err := sjson.SetBytes(raw, "keys."+strconv.Itoa(n), key)
	if err != nil {
		return
	}
	_ = os.WriteFile(d.manifestPath(), updated, 0o644)
}

// Index lists every key this backend has recorded via Set, the keyset
// inspection tooling walks to describe a commit without reading every
// per-key file.
func (d *DiskKV) Index() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := os.ReadFile(d.manifestPath())
	if err != nil {
		return nil
	}
	var keys []string
	for _, k := range gjson.GetBytes(raw, "keys").Array() {
		keys = append(keys, k.String())
	}
	return keys
}

// CacheKV wraps a backing KV with a bounded LRU read-through/write-through
// cache, so repeated reads of hot commit keys avoid disk round-trips.
type CacheKV struct {
	backing KV
	cache   *lru.Cache[string, []byte]
}

// NewCacheKV wraps backing with an LRU cache holding up to size entries.
func NewCacheKV(backing KV, size int) (*CacheKV, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CacheKV{backing: backing, cache: c}, nil
}

func (c *CacheKV) Get(key string) ([]byte, bool) {
	if v, ok := c.cache.Get(key); ok {
		return v, true
	}
	v, ok := c.backing.Get(key)
	if ok {
		c.cache.Add(key, v)
	}
	return v, ok
}

func (c *CacheKV) Set(key string, val []byte) {
	c.backing.Set(key, val)
	c.cache.Add(key, val)
}

func (c *CacheKV) Contains(key string) bool {
	if c.cache.Contains(key) {
		return true
	}
	return c.backing.Contains(key)
}
