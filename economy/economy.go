// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package economy - the account operations facade
//
// every balance changing operation validates its arguments first,
// then runs against the live account off the caller's goroutine; the
// returned channel delivers exactly one result
//
// balances may go negative, a withdrawal is never clamped at zero
package economy

import (
	"math"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/baltop"
	"github.com/bvault/bvaultd/bank"
	"github.com/bvault/bvaultd/fault"
	"github.com/bvault/bvaultd/storage"
)

// UnknownName - shown when no display name can be resolved
const UnknownName = "unknown"

// display name memo lifetime
const (
	nameMemoLifetime = 5 * time.Minute
	nameMemoSweep    = 10 * time.Minute
)

// SessionResolver - live session information from the hosting layer
//
// both calls are best effort and must not block
type SessionResolver interface {
	Connected(id uuid.UUID) bool
	DisplayName(id uuid.UUID) (string, bool)
}

// BalanceResult - outcome of an asynchronous balance operation
type BalanceResult struct {
	Balance float64
	Err     error
}

// BanksResult - outcome of an asynchronous bank set query
type BanksResult struct {
	Banks map[string]struct{}
	Err   error
}

// Economy - the facade over storage, accounts and the leaderboard
type Economy struct {
	log      *logger.L
	store    storage.Store
	top      *baltop.BalTop
	sessions SessionResolver
	names    *gocache.Cache // id string → last resolved display name
}

// New - create the facade
//
// store is normally the swappable wrapper, so the backend can be
// attached after the facade is handed out
func New(store storage.Store, top *baltop.BalTop, sessions SessionResolver) *Economy {
	return &Economy{
		log:      logger.New("economy"),
		store:    store,
		top:      top,
		sessions: sessions,
		names:    gocache.New(nameMemoLifetime, nameMemoSweep),
	}
}

// Name - the name of this economy implementation
func (e *Economy) Name() string {
	return "bvault"
}

func errored(err error) <-chan BalanceResult {
	ch := make(chan BalanceResult, 1)
	ch <- BalanceResult{Err: err}
	return ch
}

func validate(bankName string, amount float64) error {
	if err := bank.ValidateName(bankName); nil != err {
		return err
	}
	if amount < 0 || math.IsNaN(amount) {
		return fault.ErrInvalidAmount
	}
	return nil
}

// Withdraw - subtract an amount from one bank balance
//
// validation failures surface synchronously on the returned channel;
// a storage failure during the load surfaces the same way, while the
// write back is fire and forget
func (e *Economy) Withdraw(bankName string, id uuid.UUID, amount float64) <-chan BalanceResult {
	if err := validate(bankName, amount); nil != err {
		return errored(err)
	}
	return e.mutate(bankName, id, func(a *account.Account) (float64, error) {
		return a.Withdraw(bankName, amount)
	})
}

// Deposit - add an amount to one bank balance
func (e *Economy) Deposit(bankName string, id uuid.UUID, amount float64) <-chan BalanceResult {
	if err := validate(bankName, amount); nil != err {
		return errored(err)
	}
	return e.mutate(bankName, id, func(a *account.Account) (float64, error) {
		return a.Deposit(bankName, amount)
	})
}

func (e *Economy) mutate(bankName string, id uuid.UUID, op func(a *account.Account) (float64, error)) <-chan BalanceResult {
	ch := make(chan BalanceResult, 1)
	loaded := e.store.GetAccount(id)
	go func() {
		r := <-loaded
		if nil != r.Err {
			ch <- BalanceResult{Err: r.Err}
			return
		}
		e.refreshName(r.Account)
		balance, err := op(r.Account)
		if nil != err {
			ch <- BalanceResult{Err: err}
			return
		}
		r.Account.Flush(e.store)
		ch <- BalanceResult{Balance: balance}
	}()
	return ch
}

// Balance - current balance of one bank, zero for an unknown bank
func (e *Economy) Balance(bankName string, id uuid.UUID) <-chan BalanceResult {
	if err := bank.ValidateName(bankName); nil != err {
		return errored(err)
	}
	ch := make(chan BalanceResult, 1)
	loaded := e.store.GetAccount(id)
	go func() {
		r := <-loaded
		if nil != r.Err {
			ch <- BalanceResult{Err: r.Err}
			return
		}
		ch <- BalanceResult{Balance: r.Account.Balance(bankName)}
	}()
	return ch
}

// ExistingBanks - the banks an account holds a balance in
func (e *Economy) ExistingBanks(id uuid.UUID) <-chan BanksResult {
	ch := make(chan BanksResult, 1)
	loaded := e.store.GetAccount(id)
	go func() {
		r := <-loaded
		if nil != r.Err {
			ch <- BanksResult{Err: r.Err}
			return
		}
		ch <- BanksResult{Banks: r.Account.ExistingBanks()}
	}()
	return ch
}

// KnownBanks - every bank seen by the attached backend
func (e *Economy) KnownBanks() map[string]struct{} {
	return e.store.KnownBanks()
}

// TopByBank - the current leaderboard of one bank
//
// a limit outside [0, top size] is clamped to the configured top
// size; the result is padded with the Empty sentinel and never fails
func (e *Economy) TopByBank(bankName string, limit int) []baltop.Entry {
	if limit < 0 || limit > e.top.TopSize() {
		limit = e.top.TopSize()
	}
	return e.top.GetTop(bankName, limit)
}

// WipeBank - erase one bank from storage, caches and leaderboard
func (e *Economy) WipeBank(bankName string) <-chan error {
	if err := bank.ValidateName(bankName); nil != err {
		ch := make(chan error, 1)
		ch <- err
		return ch
	}
	e.log.Warnf("wiping bank: %q", bankName)
	return e.store.WipeBank(bankName)
}

// WipeAll - erase every bank everywhere
func (e *Economy) WipeAll() <-chan error {
	e.log.Warn("wiping all banks")
	return e.store.WipeAll()
}

// Connect - an identity session opened
//
// the account is pinned in the hot tier and loaded ahead of its
// first operation; the session name becomes the account's display
// name once the load completes
func (e *Economy) Connect(id uuid.UUID, displayName string) {
	if "" != displayName {
		e.names.Set(id.String(), displayName, gocache.DefaultExpiration)
	}
	e.store.Promote(id)
	loaded := e.store.GetAccount(id)
	go func() {
		r := <-loaded
		if nil != r.Err {
			e.log.Errorf("connect load: %s: %s", id, r.Err)
			return
		}
		if "" != displayName {
			r.Account.SetDisplayName(displayName)
		}
	}()
}

// Disconnect - an identity session closed
func (e *Economy) Disconnect(id uuid.UUID) {
	e.store.Demote(id)
}

// ResolveDisplayName - best effort identity to name mapping
//
// order: live session name, then the most recently seen name, then
// the fixed unknown sentinel
func (e *Economy) ResolveDisplayName(id uuid.UUID) string {
	if nil != e.sessions {
		if name, ok := e.sessions.DisplayName(id); ok && "" != name {
			e.names.Set(id.String(), name, gocache.DefaultExpiration)
			return name
		}
	}
	if name, ok := e.names.Get(id.String()); ok {
		return name.(string)
	}
	return UnknownName
}

// remember the freshest name for an account before a mutation
func (e *Economy) refreshName(a *account.Account) {
	name := ""
	if nil != e.sessions {
		if n, ok := e.sessions.DisplayName(a.Id()); ok {
			name = n
		}
	}
	if "" == name {
		if n, ok := e.names.Get(a.Id().String()); ok {
			name = n.(string)
		}
	}
	if "" != name {
		a.SetDisplayName(name)
		e.names.Set(a.Id().String(), name, gocache.DefaultExpiration)
	} else if n := a.DisplayName(); "" != n {
		e.names.Set(a.Id().String(), n, gocache.DefaultExpiration)
	}
}
