// Copyright 2026 The tensorstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("tensorstore")

// LRUCache is the reference Cache implementation: a hot in-memory LRU tier
// (hashicorp/golang-lru) in front of a durable bbolt-backed store, used
// write-through with a dirty set flushed on demand.
type LRUCache struct {
	hot      *lru.Cache[string, []byte]
	db       *bolt.DB
	readOnly bool
	dirty    map[string][]byte
	deleted  map[string]struct{}
}

// Open returns an LRUCache backed by a bbolt database at path, with the
// given hot-tier capacity (number of entries). readOnly mirrors
// spec.md §5's check_readonly() gate: when true, Put/Delete/Flush fail.
func Open(path string, hotCapacity int, readOnly bool) (*LRUCache, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if !readOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cache: creating bucket: %w", err)
		}
	}
	hot, err := lru.New[string, []byte](hotCapacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating LRU tier: %w", err)
	}
	return &LRUCache{
		hot:      hot,
		db:       db,
		readOnly: readOnly,
		dirty:    make(map[string][]byte),
		deleted:  make(map[string]struct{}),
	}, nil
}

// Close closes the underlying bbolt database.
func (c *LRUCache) Close() error {
	return c.db.Close()
}

// Get implements Cache.
func (c *LRUCache) Get(key string) ([]byte, bool, error) {
	if v, ok := c.hot.Get(key); ok {
		return v, true, nil
	}
	if v, ok := c.dirty[key]; ok {
		return v, true, nil
	}
	if _, gone := c.deleted[key]; gone {
		return nil, false, nil
	}
	var value []byte
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if found {
		c.hot.Add(key, value)
	}
	return value, found, nil
}

// Put implements Cache.
func (c *LRUCache) Put(key string, value []byte) error {
	if c.readOnly {
		return fmt.Errorf("cache: put on read-only store")
	}
	c.hot.Add(key, value)
	c.dirty[key] = value
	delete(c.deleted, key)
	return nil
}

// Delete implements Cache.
func (c *LRUCache) Delete(key string) error {
	if c.readOnly {
		return fmt.Errorf("cache: delete on read-only store")
	}
	c.hot.Remove(key)
	delete(c.dirty, key)
	c.deleted[key] = struct{}{}
	return nil
}

// Flush implements Cache: writes every dirty/deleted entry to bbolt in one
// transaction.
func (c *LRUCache) Flush() error {
	if c.readOnly {
		return fmt.Errorf("cache: flush on read-only store")
	}
	if len(c.dirty) == 0 && len(c.deleted) == 0 {
		return nil
	}
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for k, v := range c.dirty {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		for k := range c.deleted {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: flush: %w", err)
	}
	c.dirty = make(map[string][]byte)
	c.deleted = make(map[string]struct{})
	return nil
}

// ReadOnly implements Cache.
func (c *LRUCache) ReadOnly() bool {
	return c.readOnly
}

var _ Cache = (*LRUCache)(nil)
