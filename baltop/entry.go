// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package baltop

import (
	"bytes"

	"github.com/google/uuid"
)

// Entry - one leaderboard position
//
// Rank is the zero based position inside a bank's ordering
type Entry struct {
	Id          uuid.UUID
	DisplayName string
	Balance     float64
	Rank        int
}

// Empty - the sentinel entry used to pad results up to the requested
// limit when a bank has fewer members
var Empty = Entry{Id: uuid.Nil}

// IsEmpty - true for the padding sentinel
func (e Entry) IsEmpty() bool {
	return uuid.Nil == e.Id
}

// ordering key for the per bank tree
//
// the in-order traversal must run from the best to the worst
// position, so a higher balance compares as lower; ties are broken by
// ascending account id to give a total order
type rankKey struct {
	balance float64
	id      uuid.UUID
}

func (k rankKey) Compare(x interface{}) int {
	other := x.(rankKey)
	if k.balance > other.balance {
		return -1
	}
	if k.balance < other.balance {
		return +1
	}
	return bytes.Compare(k.id[:], other.id[:])
}
