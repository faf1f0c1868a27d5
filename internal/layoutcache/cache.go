// Package layoutcache stores computed vector layout reports on disk, keyed by
// the hash of the class table inputs and the target.
package layoutcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dvgen/internal/layout"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Digest identifies one cached layout set.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key derives the cache key of a class table hash for target.
func Key(inputHash [32]byte, triple string) Digest {
	h := sha256.New()
	h.Write(inputHash[:])
	h.Write([]byte{0})
	h.Write([]byte(triple))
	h.Write([]byte{byte(schemaVersion >> 8), byte(schemaVersion)})
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Cache is safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached layout set.
type Payload struct {
	Schema    uint16
	Target    string
	InputHash [32]byte
	Created   int64 // unix seconds
	Classes   []layout.ClassReport
}

// Open returns the cache at $XDG_CACHE_HOME/<app>, falling back to ~/.cache.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app))
}

// OpenAt returns a cache rooted at dir, creating it.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "layouts", key.String()+".mp")
}

// Put writes payload atomically.
func (c *Cache) Put(key Digest, payload *Payload) (err error) {
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
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove temp file: %w", rmErr)
		}
	}()

	payload.Schema = schemaVersion
	if payload.Created == 0 {
		payload.Created = time.Now().Unix()
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload of key. A missing entry or one written by another
// schema version is a miss.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from the cache root and a hex digest
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	if p.Schema != schemaVersion {
		return false, nil
	}
	*out = p
	return true, nil
}

// DropAll removes every cached layout.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "layouts"))
}
