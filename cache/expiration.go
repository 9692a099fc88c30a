// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"
)

// background process driving the logical clock
type sweeper struct {
	cache    *Cache
	interval time.Duration
}

func (s *sweeper) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	for {
		select {
		case <-ticker.C:
			s.cache.sweep()
		case <-shutdown:
			ticker.Stop()
			return
		}
	}
}

// advance the clock and drop every entry whose expiry has passed
//
// the whole pass runs under the lock; the eviction callback must not
// call back into the cache
func (c *Cache) sweep() {
	c.Lock()
	defer c.Unlock()

	c.tick += 1
	for key, it := range c.items {
		if it.expiryTick <= c.tick {
			delete(c.items, key)
			if nil != c.onEviction {
				c.onEviction(key, it.object)
			}
		}
	}
}
