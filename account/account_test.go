// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account_test

import (
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bvault/bvaultd/account"
	"github.com/bvault/bvaultd/fault"
)

// records every write handed over by a flush
type recordingWriter struct {
	sync.Mutex
	writes []write
}

type write struct {
	id       uuid.UUID
	bankName string
	balance  float64
}

func (r *recordingWriter) WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string) {
	r.Lock()
	r.writes = append(r.writes, write{id, bankName, balance})
	r.Unlock()
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	a := account.New(uuid.New())

	before := a.Balance("bank1")

	newBalance, err := a.Deposit("bank1", 25)
	assert.NoError(t, err)
	assert.Equal(t, before+25, newBalance)

	newBalance, err = a.Withdraw("bank1", 25)
	assert.NoError(t, err)
	assert.Equal(t, before, newBalance)
	assert.Equal(t, before, a.Balance("bank1"))
}

func TestNegativeAmountRejected(t *testing.T) {
	a := account.New(uuid.New())
	a.Deposit("vault", 100)

	_, err := a.Deposit("vault", -5)
	assert.Equal(t, fault.ErrInvalidAmount, err)

	_, err = a.Withdraw("vault", -5)
	assert.Equal(t, fault.ErrInvalidAmount, err)

	// no state change occurred
	assert.Equal(t, 100.0, a.Balance("vault"))
}

func TestNaNAmountRejected(t *testing.T) {
	a := account.New(uuid.New())
	a.Deposit("vault", 100)

	_, err := a.Deposit("vault", math.NaN())
	assert.Equal(t, fault.ErrInvalidAmount, err)

	_, err = a.Withdraw("vault", math.NaN())
	assert.Equal(t, fault.ErrInvalidAmount, err)

	// the balance stayed a number
	assert.Equal(t, 100.0, a.Balance("vault"))
}

func TestWithdrawBelowZero(t *testing.T) {
	a := account.New(uuid.New())

	// a withdraw is not clamped at zero
	newBalance, err := a.Withdraw("vault", 10)
	assert.NoError(t, err)
	assert.Equal(t, -10.0, newBalance)
}

func TestUnknownBankBalance(t *testing.T) {
	a := account.New(uuid.New())
	assert.Equal(t, 0.0, a.Balance("never-used"))
}

func TestExistingBanks(t *testing.T) {
	a := account.New(uuid.New())
	a.Deposit("bank1", 1)
	a.Deposit("bank2", 2)

	banks := a.ExistingBanks()
	assert.Len(t, banks, 2)
	assert.Contains(t, banks, "bank1")
	assert.Contains(t, banks, "bank2")
}

func TestFlushOnlyDirtyBanks(t *testing.T) {
	id := uuid.New()
	a := account.NewWithBalances(id, map[string]float64{
		"bank1": 10,
		"bank2": 20,
	}, "tester")

	w := &recordingWriter{}

	// nothing dirty right after a load
	a.Flush(w)
	assert.Empty(t, w.writes)

	a.Deposit("bank1", 5)
	a.Deposit("bank3", 7)
	a.Flush(w)

	assert.Len(t, w.writes, 2)
	written := map[string]float64{}
	for _, wr := range w.writes {
		assert.Equal(t, id, wr.id)
		written[wr.bankName] = wr.balance
	}
	assert.Equal(t, map[string]float64{"bank1": 15, "bank3": 7}, written)

	// the shadow copy advanced: a second flush writes nothing
	w.writes = nil
	a.Flush(w)
	assert.Empty(t, w.writes)
}

func TestAccountsAreIndependent(t *testing.T) {
	a := account.New(uuid.New())
	b := account.New(uuid.New())

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i += 1 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j += 1 {
				a.Deposit("vault", 1)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j += 1 {
				b.Deposit("vault", 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800.0, a.Balance("vault"))
	assert.Equal(t, 800.0, b.Balance("vault"))
}
