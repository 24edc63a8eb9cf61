package compat

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Digest identifies a table source by content hash.
type Digest = [32]byte

// Схема полезной нагрузки; увеличить при изменении формата.
const cacheSchemaVersion uint16 = 1

// DiskCache stores parsed compatibility tables keyed by source digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// tablePayload is the msgpack form of a parsed table.
type tablePayload struct {
	Schema   uint16
	Names    []string
	Versions []string
	Verified []bool
}

// OpenDiskCache initializes the cache at the standard user cache location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes the cache in an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог для удобства очистки
	return filepath.Join(c.dir, "tables", hexKey+".mp")
}

// Put serializes and writes a payload, replacing the entry atomically.
func (c *DiskCache) Put(key Digest, payload *tablePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry is (false, nil).
func (c *DiskCache) Get(key Digest, out *tablePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the whole cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func tableToPayload(t *Table) *tablePayload {
	names := t.Names()
	payload := &tablePayload{
		Schema:   cacheSchemaVersion,
		Names:    names,
		Versions: make([]string, len(names)),
		Verified: make([]bool, len(names)),
	}
	for i, name := range names {
		rec := t.records[name]
		payload.Versions[i] = rec.MinVersion
		payload.Verified[i] = rec.Verified
	}
	return payload
}

// payloadToTable rebuilds a table, rejecting stale or inconsistent payloads.
func payloadToTable(payload *tablePayload) *Table {
	if payload == nil || payload.Schema != cacheSchemaVersion {
		return nil
	}
	if len(payload.Names) != len(payload.Versions) || len(payload.Names) != len(payload.Verified) {
		return nil
	}
	records := make(map[string]Record, len(payload.Names))
	for i, name := range payload.Names {
		records[name] = Record{
			MinVersion: payload.Versions[i],
			Verified:   payload.Verified[i],
		}
	}
	return &Table{records: records}
}
