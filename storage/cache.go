package storage

import (
	"bytes"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tolelom/stakeledger/core"
)

// DefaultCacheSize is used when a non-positive size is passed to NewCachedDB.
const DefaultCacheSize = 4096

// CachedDB keeps recently read values of an underlying DB in an ARC cache.
// Writes go straight through and invalidate the cached key.
type CachedDB struct {
	DB
	cache *lru.ARCCache
}

type missing struct{}

// NewCachedDB wraps db with a read cache of the given number of entries.
func NewCachedDB(db DB, size int) (*CachedDB, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &CachedDB{DB: db, cache: cache}, nil
}

func (c *CachedDB) Get(key []byte) ([]byte, error) {
	if v, ok := c.cache.Get(string(key)); ok {
		if _, absent := v.(missing); absent {
			return nil, core.ErrNotFound
		}
		return bytes.Clone(v.([]byte)), nil
	}
	v, err := c.DB.Get(key)
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.cache.Add(string(key), missing{})
		return nil, err
	case err != nil:
		return nil, err
	}
	c.cache.Add(string(key), bytes.Clone(v))
	return v, nil
}

func (c *CachedDB) Set(key, value []byte) error {
	c.cache.Remove(string(key))
	return c.DB.Set(key, value)
}

func (c *CachedDB) Delete(key []byte) error {
	c.cache.Remove(string(key))
	return c.DB.Delete(key)
}

func (c *CachedDB) NewBatch() Batch {
	return &cachedBatch{Batch: c.DB.NewBatch(), cache: c.cache}
}

// cachedBatch evicts every written key once the batch lands.
type cachedBatch struct {
	Batch
	cache *lru.ARCCache
	keys  []string
}

func (b *cachedBatch) Set(key, value []byte) {
	b.keys = append(b.keys, string(key))
	b.Batch.Set(key, value)
}

func (b *cachedBatch) Delete(key []byte) {
	b.keys = append(b.keys, string(key))
	b.Batch.Delete(key)
}

func (b *cachedBatch) Reset() {
	b.keys = nil
	b.Batch.Reset()
}

func (b *cachedBatch) Write() error {
	err := b.Batch.Write()
	for _, k := range b.keys {
		b.cache.Remove(k)
	}
	return err
}
