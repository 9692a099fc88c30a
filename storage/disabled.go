// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/google/uuid"

	"github.com/bvault/bvaultd/fault"
)

// Disabled - a store with no backend
//
// every read fails with fault.ErrStorageDisabled and every write is
// silently dropped; it stands in for a real backend before one is
// configured and after the configured one is shut down
type Disabled struct{}

// NewDisabled - create the no backend store
func NewDisabled() *Disabled {
	return &Disabled{}
}

// GetAccount - always fails
func (d *Disabled) GetAccount(uuid.UUID) <-chan GetResult {
	ch := make(chan GetResult, 1)
	ch <- GetResult{Err: fault.ErrStorageDisabled}
	return ch
}

// WriteBalance - dropped
func (d *Disabled) WriteBalance(uuid.UUID, string, float64, string) {
}

// KnownBanks - always empty
func (d *Disabled) KnownBanks() map[string]struct{} {
	return map[string]struct{}{}
}

// TopByBank - always fails
func (d *Disabled) TopByBank(string, int) <-chan TopResult {
	ch := make(chan TopResult, 1)
	ch <- TopResult{Err: fault.ErrStorageDisabled}
	return ch
}

// WipeBank - always fails
func (d *Disabled) WipeBank(string) <-chan error {
	ch := make(chan error, 1)
	ch <- fault.ErrStorageDisabled
	return ch
}

// WipeAll - always fails
func (d *Disabled) WipeAll() <-chan error {
	ch := make(chan error, 1)
	ch <- fault.ErrStorageDisabled
	return ch
}

// Promote - ignored
func (d *Disabled) Promote(uuid.UUID) {
}

// Demote - ignored
func (d *Disabled) Demote(uuid.UUID) {
}

// Close - nothing to close
func (d *Disabled) Close() error {
	return nil
}
