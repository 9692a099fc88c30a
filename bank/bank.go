// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bank - bank name rules
//
// a bank is a namespace under which an account holds an independent
// balance; names are restricted so they can be embedded in storage
// keys and configuration files
package bank

import (
	"regexp"

	"github.com/bvault/bvaultd/fault"
)

// Default - the reserved default bank name
const Default = "vault"

// MaximumNameLength - longest acceptable bank name
const MaximumNameLength = 16

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// ValidateName - check a bank name against the naming rules
func ValidateName(name string) error {
	if len(name) > MaximumNameLength {
		return fault.ErrBankNameTooLong
	}
	if !namePattern.MatchString(name) {
		return fault.ErrInvalidBankName
	}
	return nil
}
