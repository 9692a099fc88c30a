// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache - expiring in-memory key/value store
//
// entries are stamped with a logical expiry tick; a background
// process advances the tick once per sweep interval and removes every
// entry whose tick has passed, calling the registered eviction
// callback for each one
//
// a Get refreshes the expiry of a live entry, so only entries that
// are left untouched for a full lifetime are swept
//
// the eviction callback runs synchronously while the internal lock is
// held: it must be fast and must not call back into the same cache
package cache
