// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package baltop - bounded per bank leaderboards
//
// every bank keeps an ordered set of at most topSize members, ranked
// by balance descending with ties broken by ascending account id; an
// index from account id to its current slot makes membership checks
// cheap
//
// balance updates are queued onto a single worker so they apply in
// submission order; reads take a snapshot and never see a partial
// update
//
// the leaderboard is never the source of truth for a balance, it only
// orders the values it was last told about
package baltop

import (
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"

	"github.com/bvault/bvaultd/avl"
	"github.com/bvault/bvaultd/background"
)

// one bank's bounded ordering
type bankTop struct {
	tree    *avl.Tree             // rankKey → *Entry, in rank order
	members map[uuid.UUID]rankKey // current slot per member
}

// BalTop - the set of per bank leaderboards
type BalTop struct {
	sync.Mutex
	log        *logger.L
	topSize    int
	tops       map[string]*bankTop
	queue      chan update
	background *background.T
}

// queued balance change; ack is only set for a sync barrier
type update struct {
	id          uuid.UUID
	bankName    string
	displayName string
	balance     float64
	ack         chan<- struct{}
}

// New - create an empty leaderboard set bounded to topSize members
// per bank
func New(topSize int) *BalTop {
	b := &BalTop{
		log:     logger.New("baltop"),
		topSize: topSize,
		tops:    make(map[string]*bankTop),
		queue:   make(chan update, 256),
	}
	b.background = background.Start(background.Processes{
		&applier{baltop: b},
	}, nil)
	return b
}

// TopSize - the configured bound
func (b *BalTop) TopSize() int {
	return b.topSize
}

// UpdateBalance - queue a balance change for ordering
//
// updates apply in submission order; the caller returns before the
// change is visible in GetTop
func (b *BalTop) UpdateBalance(id uuid.UUID, balance float64, bankName string, displayName string) {
	b.queue <- update{
		id:          id,
		bankName:    bankName,
		displayName: displayName,
		balance:     balance,
	}
}

// Sync - block until every previously queued update has been applied
func (b *BalTop) Sync() {
	ack := make(chan struct{})
	b.queue <- update{ack: ack}
	<-ack
}

// Close - drain the queue and stop the worker
func (b *BalTop) Close() {
	b.Sync()
	b.background.Stop()
}

// background worker applying queued updates in order
type applier struct {
	baltop *BalTop
}

func (a *applier) Run(args interface{}, shutdown <-chan struct{}) {
	b := a.baltop
	for {
		select {
		case u := <-b.queue:
			if nil != u.ack {
				close(u.ack)
				continue
			}
			b.apply(u)
		case <-shutdown:
			return
		}
	}
}

// apply one balance change
//
// an existing member is always re-slotted, even for a lower balance,
// so a member's shown value is never stale; a non member is only
// admitted when there is free capacity or it beats the current floor
func (b *BalTop) apply(u update) {
	b.Lock()
	defer b.Unlock()

	top, ok := b.tops[u.bankName]
	if !ok {
		top = &bankTop{
			tree:    avl.New(),
			members: make(map[uuid.UUID]rankKey),
		}
		b.tops[u.bankName] = top
	}

	oldKey, isMember := top.members[u.id]

	if !isMember && top.tree.Count() >= b.topSize {
		floor := top.tree.Last() // worst ranked member
		if nil != floor && u.balance <= floor.Key().(rankKey).balance {
			return
		}
	}

	displayName := u.displayName
	if isMember {
		if "" == displayName {
			displayName = top.tree.Search(oldKey).Value().(*Entry).DisplayName
		}
		top.tree.Delete(oldKey)
	}

	key := rankKey{balance: u.balance, id: u.id}
	top.tree.Insert(key, &Entry{
		Id:          u.id,
		DisplayName: displayName,
		Balance:     u.balance,
	})
	top.members[u.id] = key

	top.trim(b.topSize)
}

// evict the worst ranked members until the bound holds
func (t *bankTop) trim(topSize int) {
	for t.tree.Count() > topSize {
		last := t.tree.Last()
		key := last.Key().(rankKey)
		t.tree.Delete(key)
		delete(t.members, key.id)
	}
}

// GetTop - a read only snapshot of the first limit positions
//
// the result always holds exactly limit entries, padded with the
// Empty sentinel when the bank has fewer members
func (b *BalTop) GetTop(bankName string, limit int) []Entry {
	b.Lock()
	defer b.Unlock()

	result := make([]Entry, 0, limit)
	rank := 0
	if top, ok := b.tops[bankName]; ok {
		for p := top.tree.First(); nil != p && rank < limit; p = p.Next() {
			entry := *p.Value().(*Entry)
			entry.Rank = rank
			result = append(result, entry)
			rank += 1
		}
	}
	for ; rank < limit; rank += 1 {
		result = append(result, Empty)
	}
	return result
}

// SetTop - replace a bank's ordering wholesale
//
// used to seed from persistent storage at cold start; padding
// sentinels in the input are skipped and the bound is applied
func (b *BalTop) SetTop(bankName string, entries []Entry) {
	b.Lock()
	defer b.Unlock()

	top := &bankTop{
		tree:    avl.New(),
		members: make(map[uuid.UUID]rankKey),
	}
	for _, entry := range entries {
		if entry.IsEmpty() {
			continue
		}
		key := rankKey{balance: entry.Balance, id: entry.Id}
		e := entry
		e.Rank = 0
		top.tree.Insert(key, &e)
		top.members[entry.Id] = key
	}
	top.trim(b.topSize)
	b.tops[bankName] = top

	b.log.Debugf("seeded bank: %q with %d entries", bankName, top.tree.Count())
}

// ClearBank - drop one bank's ordering entirely
func (b *BalTop) ClearBank(bankName string) {
	b.Lock()
	delete(b.tops, bankName)
	b.Unlock()
	b.log.Infof("cleared bank: %q", bankName)
}

// ClearAll - drop every bank
func (b *BalTop) ClearAll() {
	b.Lock()
	b.tops = make(map[string]*bankTop)
	b.Unlock()
	b.log.Info("cleared all banks")
}
