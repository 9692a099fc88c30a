// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/cache"
)

// ConnectedProbe - asks whether an identity currently has a live
// session; a nil probe means nobody is connected
type ConnectedProbe func(id uuid.UUID) bool

// the two tier account cache shared by the concrete backends
//
// the hot map never expires and holds accounts for connected
// identities; everything else lives in the expiring cold cache
//
// lock discipline: the mutex only guards the hot map and is never
// held across a call into the cold cache, because the cold cache
// calls back into the hot map on eviction
type tiers struct {
	sync.Mutex
	hot       map[uuid.UUID]*account.Account
	cold      *cache.Cache
	connected ConnectedProbe
}

func newTiers(lifetime time.Duration, sweepInterval time.Duration, connected ConnectedProbe) (*tiers, error) {
	cold, err := cache.New(lifetime, sweepInterval)
	if nil != err {
		return nil, err
	}
	t := &tiers{
		hot:       make(map[uuid.UUID]*account.Account),
		cold:      cold,
		connected: connected,
	}

	// an account swept out while its identity is still connected is
	// moved to the hot tier instead of being dropped
	cold.OnEviction(func(key string, value interface{}) {
		a := value.(*account.Account)
		if nil != t.connected && t.connected(a.Id()) {
			t.Lock()
			t.hot[a.Id()] = a
			t.Unlock()
		}
	})
	return t, nil
}

// fetch a live account from either tier, nil on miss
func (t *tiers) lookup(id uuid.UUID) *account.Account {
	t.Lock()
	a, ok := t.hot[id]
	t.Unlock()
	if ok {
		return a
	}
	if v, ok := t.cold.Get(id.String()); ok {
		return v.(*account.Account)
	}
	return nil
}

// place a freshly loaded account in the tier matching its session
// state; a racing load keeps the first stored account so balances
// are not forked
func (t *tiers) admit(a *account.Account) *account.Account {
	id := a.Id()

	t.Lock()
	if existing, ok := t.hot[id]; ok {
		t.Unlock()
		return existing
	}
	if nil != t.connected && t.connected(id) {
		t.hot[id] = a
		t.Unlock()
		return a
	}
	t.Unlock()

	return t.cold.ComputeIfAbsent(id.String(), func(string) interface{} {
		return a
	}).(*account.Account)
}

// move an account from the cold to the hot tier
func (t *tiers) promote(id uuid.UUID) {
	// the eviction callback already re-admits to the hot map when
	// the probe reports the session as connected
	t.cold.Remove(id.String())
}

// move an account from the hot to the cold tier
func (t *tiers) demote(id uuid.UUID) {
	t.Lock()
	a, ok := t.hot[id]
	delete(t.hot, id)
	t.Unlock()
	if ok {
		t.cold.Put(id.String(), a)
	}
}

// apply f to every live account in both tiers
func (t *tiers) forEach(f func(a *account.Account)) {
	t.Lock()
	accounts := make([]*account.Account, 0, len(t.hot))
	for _, a := range t.hot {
		accounts = append(accounts, a)
	}
	t.Unlock()

	for _, v := range t.cold.Items() {
		accounts = append(accounts, v.(*account.Account))
	}
	for _, a := range accounts {
		f(a)
	}
}

func (t *tiers) close() {
	t.cold.Close()
}

// the set of bank names seen so far
type bankSet struct {
	sync.Mutex
	names map[string]struct{}
}

func newBankSet() *bankSet {
	return &bankSet{names: make(map[string]struct{})}
}

// add - true when the bank was not seen before
func (s *bankSet) add(name string) bool {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// reset - forget every bank except the given survivors
func (s *bankSet) reset(survivors ...string) {
	s.Lock()
	s.names = make(map[string]struct{})
	for _, name := range survivors {
		s.names[name] = struct{}{}
	}
	s.Unlock()
}

func (s *bankSet) all() map[string]struct{} {
	s.Lock()
	defer s.Unlock()
	names := make(map[string]struct{}, len(s.names))
	for name := range s.names {
		names[name] = struct{}{}
	}
	return names
}
