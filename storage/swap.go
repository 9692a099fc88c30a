// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/google/uuid"
)

// Swap - a store whose backend can be replaced while callers hold a
// reference to the wrapper
//
// each operation is forwarded to the backend installed at the moment
// the call is made; swapping never interrupts a call already in flight
type Swap struct {
	sync.RWMutex
	backend Store
}

// NewSwap - wrap an initial backend
func NewSwap(backend Store) *Swap {
	return &Swap{backend: backend}
}

// Set - install a new backend and return the previous one
//
// the caller owns closing the returned store
func (s *Swap) Set(backend Store) Store {
	s.Lock()
	previous := s.backend
	s.backend = backend
	s.Unlock()
	return previous
}

func (s *Swap) current() Store {
	s.RLock()
	defer s.RUnlock()
	return s.backend
}

// GetAccount - forward to the current backend
func (s *Swap) GetAccount(id uuid.UUID) <-chan GetResult {
	return s.current().GetAccount(id)
}

// WriteBalance - forward to the current backend
func (s *Swap) WriteBalance(id uuid.UUID, bankName string, balance float64, displayName string) {
	s.current().WriteBalance(id, bankName, balance, displayName)
}

// KnownBanks - forward to the current backend
func (s *Swap) KnownBanks() map[string]struct{} {
	return s.current().KnownBanks()
}

// TopByBank - forward to the current backend
func (s *Swap) TopByBank(bankName string, limit int) <-chan TopResult {
	return s.current().TopByBank(bankName, limit)
}

// WipeBank - forward to the current backend
func (s *Swap) WipeBank(bankName string) <-chan error {
	return s.current().WipeBank(bankName)
}

// WipeAll - forward to the current backend
func (s *Swap) WipeAll() <-chan error {
	return s.current().WipeAll()
}

// Promote - forward to the current backend
func (s *Swap) Promote(id uuid.UUID) {
	s.current().Promote(id)
}

// Demote - forward to the current backend
func (s *Swap) Demote(id uuid.UUID) {
	s.current().Demote(id)
}

// Close - close the current backend
func (s *Swap) Close() error {
	return s.current().Close()
}
