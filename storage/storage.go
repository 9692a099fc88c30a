// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/google/uuid"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/baltop"
)

// GetResult - outcome of an asynchronous account load
type GetResult struct {
	Account *account.Account
	Err     error
}

// TopResult - outcome of an asynchronous ranked query
type TopResult struct {
	Entries []baltop.Entry
	Err     error
}

// Store - the persistence adapter contract
//
// every method may be called from multiple goroutines
type Store interface {

	// load the account for an id, a completed GetResult is delivered
	// on the returned channel; an absent id yields a fresh empty
	// account, not an error
	GetAccount(id uuid.UUID) <-chan GetResult

	// asynchronous idempotent upsert of one (id, bank) balance row;
	// failures are logged and swallowed
	WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string)

	// banks seen so far, in memory copy of the durable set
	KnownBanks() map[string]struct{}

	// ranked query straight from durable storage, padded with the
	// Empty sentinel up to limit; used to seed the leaderboard at
	// cold start
	TopByBank(bankName string, limit int) <-chan TopResult

	// delete the persisted rows of one bank or of all banks, purge
	// the live cached accounts and clear the matching leaderboards
	WipeBank(bankName string) <-chan error
	WipeAll() <-chan error

	// hot/cold tier movement on identity connect and disconnect
	Promote(id uuid.UUID)
	Demote(id uuid.UUID)

	// release the durable handle; queued writes are drained first
	Close() error
}
