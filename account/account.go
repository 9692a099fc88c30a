// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account - the balance holding entity
//
// an account keeps one balance per bank, together with a shadow copy
// of the balances as last handed to persistent storage; a flush
// compares the two and forwards only the banks that changed
//
// all operations on one account are serialised by its own lock;
// separate accounts never contend
package account

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/bvault/bvaultd/fault"
)

// BalanceWriter - destination for changed balances during a flush
//
// the write is expected to be asynchronous and best effort: the
// account advances its shadow copy as soon as the write is handed
// over and never rolls back
type BalanceWriter interface {
	WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string)
}

// Account - per identity balances over all banks
type Account struct {
	sync.Mutex
	id          uuid.UUID
	displayName string
	balances    map[string]float64
	persisted   map[string]float64 // shadow copy for dirty detection
}

// New - create an account with no balances
func New(id uuid.UUID) *Account {
	return &Account{
		id:        id,
		balances:  make(map[string]float64),
		persisted: make(map[string]float64),
	}
}

// NewWithBalances - recreate an account from stored balances
//
// the stored balances become the shadow copy, so a flush right after
// a load writes nothing
func NewWithBalances(id uuid.UUID, balances map[string]float64, displayName string) *Account {
	a := &Account{
		id:          id,
		displayName: displayName,
		balances:    make(map[string]float64, len(balances)),
		persisted:   make(map[string]float64, len(balances)),
	}
	for bankName, balance := range balances {
		a.balances[bankName] = balance
		a.persisted[bankName] = balance
	}
	return a
}

// Id - the identifier of this account
func (a *Account) Id() uuid.UUID {
	return a.id
}

// DisplayName - last known display name, empty if never resolved
func (a *Account) DisplayName() string {
	a.Lock()
	defer a.Unlock()
	return a.displayName
}

// SetDisplayName - record a fresh display name
func (a *Account) SetDisplayName(name string) {
	a.Lock()
	a.displayName = name
	a.Unlock()
}

// a NaN would pass a plain < 0 test and poison the balance
func checkAmount(amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return fault.ErrInvalidAmount
	}
	return nil
}

// Withdraw - subtract an amount from one bank balance
//
// the amount must not be negative, but the resulting balance may go
// below zero; no floor is applied
func (a *Account) Withdraw(bankName string, amount float64) (float64, error) {
	if err := checkAmount(amount); nil != err {
		return 0, err
	}
	a.Lock()
	defer a.Unlock()

	newBalance := a.balances[bankName] - amount
	a.balances[bankName] = newBalance
	return newBalance, nil
}

// Deposit - add an amount to one bank balance
func (a *Account) Deposit(bankName string, amount float64) (float64, error) {
	if err := checkAmount(amount); nil != err {
		return 0, err
	}
	a.Lock()
	defer a.Unlock()

	newBalance := a.balances[bankName] + amount
	a.balances[bankName] = newBalance
	return newBalance, nil
}

// Balance - current balance for one bank, zero for an unknown bank
func (a *Account) Balance(bankName string) float64 {
	a.Lock()
	defer a.Unlock()
	return a.balances[bankName]
}

// ExistingBanks - the set of banks this account holds a balance in
func (a *Account) ExistingBanks() map[string]struct{} {
	a.Lock()
	defer a.Unlock()

	banks := make(map[string]struct{}, len(a.balances))
	for bankName := range a.balances {
		banks[bankName] = struct{}{}
	}
	return banks
}

// Flush - hand every dirty bank to the writer
//
// a bank is dirty when its balance differs from the shadow copy; the
// shadow advances immediately, accepting that a failed asynchronous
// write is lost
func (a *Account) Flush(w BalanceWriter) {
	a.Lock()
	defer a.Unlock()

	for bankName, balance := range a.balances {
		old, ok := a.persisted[bankName]
		if !ok || old != balance {
			w.WriteBalance(a.id, bankName, balance, a.displayName)
			a.persisted[bankName] = balance
		}
	}
}

// RemoveBank - drop one bank from the live and shadow maps
//
// used when a bank is wiped from persistent storage
func (a *Account) RemoveBank(bankName string) {
	a.Lock()
	delete(a.balances, bankName)
	delete(a.persisted, bankName)
	a.Unlock()
}

// Clear - drop every bank from the live and shadow maps
func (a *Account) Clear() {
	a.Lock()
	a.balances = make(map[string]float64)
	a.persisted = make(map[string]float64)
	a.Unlock()
}
