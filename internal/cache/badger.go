// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerCache persists cache entries on disk with native per-key TTLs, so
// upstream responses survive restarts.
type BadgerCache struct {
	db     *badger.DB
	logger zerolog.Logger
	stats  counters
}

// OpenBadgerCache opens (or creates) a Badger database in dir. An empty dir
// opens an in-memory database.
func OpenBadgerCache(dir string, logger zerolog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &BadgerCache{db: db, logger: logger}, nil
}

// Get retrieves a value, honouring its TTL.
func (c *BadgerCache) Get(key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
		}
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return out, true
}

// Set stores value with ttl.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	c.stats.sets.Add(1)
}

// Delete removes key.
func (c *BadgerCache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
	}
}

// Clear drops every entry.
func (c *BadgerCache) Clear() {
	if err := c.db.DropAll(); err != nil {
		c.logger.Warn().Err(err).Msg("badger drop failed")
	}
}

// Stats returns cache statistics. CurrentSize counts live keys.
func (c *BadgerCache) Stats() CacheStats {
	size := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if !it.Item().IsDeletedOrExpired() {
				size++
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("badger size scan failed")
	}
	return c.stats.snapshot(size)
}

// HealthCheck reports an error once the database has been closed.
func (c *BadgerCache) HealthCheck(context.Context) error {
	if c.db.IsClosed() {
		return errors.New("badger cache closed")
	}
	return nil
}

// Close flushes and closes the database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
