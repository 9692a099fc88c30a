// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"testing"
	"time"

	"github.com/bvault/bvaultd/fault"
)

// sweep interval long enough that the background process never fires
// during a test run; expiry is driven by calling sweep() directly
const testInterval = time.Hour

func TestPool(t *testing.T) {
	c, err := New(3*testInterval, testInterval)
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer c.Close()

	c.Put("key-one", "data-one")
	c.Put("key-two", "data-two")
	c.Put("key-remove-me", "to be deleted")
	c.Remove("key-remove-me")
	c.Put("key-three", "data-three")
	c.Put("key-one", "data-one(NEW)") // duplicate
	c.Put("key-four", "data-four")

	expectedItems := map[string]string{
		"key-one":   "data-one(NEW)",
		"key-two":   "data-two",
		"key-three": "data-three",
		"key-four":  "data-four",
	}

	if c.Size() != len(expectedItems) {
		t.Errorf("length mismatch, got: %d  expected: %d", c.Size(), len(expectedItems))
	}

	for key, val := range c.Items() {
		expVal, ok := expectedItems[key]
		if !ok || val.(string) != expVal {
			t.Errorf("unexpected item: %q → %v", key, val)
		}
	}
}

func TestLifetimeTooShort(t *testing.T) {
	_, err := New(time.Second, time.Minute)
	if fault.ErrCacheLifetimeTooShort != err {
		t.Fatalf("expected lifetime error, got: %v", err)
	}
}

func TestExpiration(t *testing.T) {
	c, err := New(testInterval, testInterval)
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer c.Close()

	evicted := make(map[string]int)
	c.OnEviction(func(key string, value interface{}) {
		evicted[key] += 1
	})

	c.Put("a1", "one")
	c.Put("a2", "two")

	c.sweep()

	if _, ok := c.Get("a1"); ok {
		t.Fatal("a1 survived its lifetime")
	}
	if _, ok := c.Get("a2"); ok {
		t.Fatal("a2 survived its lifetime")
	}
	if 1 != evicted["a1"] || 1 != evicted["a2"] {
		t.Fatalf("eviction callback counts wrong: %v", evicted)
	}

	// a second sweep must not fire the callback again
	c.sweep()
	if 1 != evicted["a1"] || 1 != evicted["a2"] {
		t.Fatalf("repeated eviction: %v", evicted)
	}
}

func TestGetRefreshesExpiry(t *testing.T) {
	c, err := New(2*testInterval, testInterval)
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer c.Close()

	c.Put("key", "value")

	c.sweep()
	if _, ok := c.Get("key"); !ok { // refresh: expiry moves to tick+2
		t.Fatal("entry missing before its lifetime elapsed")
	}

	c.sweep()
	c.sweep()
	if _, ok := c.Get("key"); ok {
		t.Fatal("entry survived a full untouched lifetime")
	}
}

func TestRemoveFiresEviction(t *testing.T) {
	c, err := New(testInterval, testInterval)
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer c.Close()

	fired := 0
	c.OnEviction(func(key string, value interface{}) {
		fired += 1
		if "key" != key || "value" != value.(string) {
			t.Errorf("unexpected eviction: %q → %v", key, value)
		}
	})

	c.Put("key", "value")
	value, ok := c.Remove("key")
	if !ok || "value" != value.(string) {
		t.Fatalf("remove returned: %v, %v", value, ok)
	}
	if 1 != fired {
		t.Fatalf("eviction callback fired %d times", fired)
	}

	// the entry is gone: a second remove is a no-op
	if _, ok := c.Remove("key"); ok {
		t.Fatal("entry removed twice")
	}
	if 1 != fired {
		t.Fatalf("eviction callback fired %d times", fired)
	}
}

func TestComputeIfAbsent(t *testing.T) {
	c, err := New(testInterval, testInterval)
	if nil != err {
		t.Fatalf("new error: %s", err)
	}
	defer c.Close()

	calls := 0
	factory := func(key string) interface{} {
		calls += 1
		return "made:" + key
	}

	v := c.ComputeIfAbsent("key", factory)
	if "made:key" != v.(string) {
		t.Fatalf("unexpected value: %v", v)
	}
	v = c.ComputeIfAbsent("key", factory)
	if "made:key" != v.(string) {
		t.Fatalf("unexpected value: %v", v)
	}
	if 1 != calls {
		t.Fatalf("factory ran %d times", calls)
	}
}
