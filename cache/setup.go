// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"sync"
	"time"

	"github.com/bvault/bvaultd/background"
	"github.com/bvault/bvaultd/fault"
)

// EvictionCallback - called once for every removed entry, either by
// the sweep or by an explicit Remove
type EvictionCallback func(key string, value interface{})

type item struct {
	object     interface{}
	expiryTick uint64
}

// Cache - an expiring key/value map
type Cache struct {
	sync.Mutex
	items      map[string]item
	lifeTicks  uint64 // entry lifetime in whole sweep ticks
	tick       uint64 // logical clock, incremented by the sweeper
	onEviction EvictionCallback
	background *background.T
}

// New - create a cache whose entries expire after they have not been
// read for the given lifetime
//
// the lifetime is counted in whole sweep intervals, so it must be at
// least one sweep interval long
func New(lifetime time.Duration, sweepInterval time.Duration) (*Cache, error) {

	lifeTicks := uint64(lifetime / sweepInterval)
	if lifeTicks < 1 {
		return nil, fault.ErrCacheLifetimeTooShort
	}

	c := &Cache{
		items:     make(map[string]item),
		lifeTicks: lifeTicks,
	}

	c.background = background.Start(background.Processes{
		&sweeper{cache: c, interval: sweepInterval},
	}, nil)

	return c, nil
}

// OnEviction - register the eviction callback
//
// must be set before any entry can expire; only one callback is kept
func (c *Cache) OnEviction(callback EvictionCallback) {
	c.Lock()
	c.onEviction = callback
	c.Unlock()
}

// Put - store a key/value pair, stamping a fresh expiry
func (c *Cache) Put(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()

	c.items[key] = item{
		object:     value,
		expiryTick: c.tick + c.lifeTicks,
	}
}

// Get - fetch the value for a key
//
// a hit refreshes the expiry of the entry
func (c *Cache) Get(key string) (interface{}, bool) {
	c.Lock()
	defer c.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	it.expiryTick = c.tick + c.lifeTicks
	c.items[key] = it
	return it.object, true
}

// ComputeIfAbsent - fetch the value for a key, creating and storing
// it when there is no live entry
//
// the factory runs while the lock is held and must not call back into
// the cache
func (c *Cache) ComputeIfAbsent(key string, factory func(key string) interface{}) interface{} {
	c.Lock()
	defer c.Unlock()

	it, ok := c.items[key]
	if ok {
		it.expiryTick = c.tick + c.lifeTicks
		c.items[key] = it
		return it.object
	}
	value := factory(key)
	c.items[key] = item{
		object:     value,
		expiryTick: c.tick + c.lifeTicks,
	}
	return value
}

// Remove - immediately drop an entry
//
// the eviction callback fires for a live entry, exactly as if the
// sweep had removed it
func (c *Cache) Remove(key string) (interface{}, bool) {
	c.Lock()
	defer c.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	delete(c.items, key)
	if nil != c.onEviction {
		c.onEviction(key, it.object)
	}
	return it.object, true
}

// Items - snapshot copy of all live entries
func (c *Cache) Items() map[string]interface{} {
	c.Lock()
	defer c.Unlock()

	m := make(map[string]interface{}, len(c.items))
	for k, v := range c.items {
		m[k] = v.object
	}
	return m
}

// Size - number of live entries
func (c *Cache) Size() int {
	c.Lock()
	defer c.Unlock()

	return len(c.items)
}

// Close - stop the background sweep
//
// remaining entries are neither evicted nor flushed
func (c *Cache) Close() {
	c.background.Stop()
}
