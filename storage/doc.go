// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the persistence adapters
//
// a Store owns the durable copy of every account balance; accounts
// are materialised on demand through a two tier cache: a hot map for
// connected identities and an expiring cache for the rest
//
// all durable I/O runs on a bounded worker pool, results come back on
// future style channels; balance write back is fire and forget and
// feeds the leaderboard as a side effect
//
// two concrete backends exist, an embedded leveldb database and a
// PostgreSQL pool, plus a disabled null adapter and a swappable
// wrapper so the daemon can come up before its backend is attached
package storage
