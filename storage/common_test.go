// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"
)

const logDirectory = "log.test"

func TestMain(m *testing.M) {
	_ = os.MkdirAll(logDirectory, 0o700)
	_ = logger.Initialise(logger.Configuration{
		Directory: logDirectory,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
	rc := m.Run()
	_ = os.RemoveAll(logDirectory)
	os.Exit(rc)
}

// long lifetime and sweep so nothing expires during a test
var testConfig = Config{
	CacheLifetime: time.Hour,
	SweepInterval: time.Minute,
	Workers:       2,
}

var (
	idAlice = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	idBob   = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	idCarol = uuid.MustParse("00000000-0000-4000-8000-000000000003")
)

// wait for an account result
func mustGet(t *testing.T, s Store, id uuid.UUID) GetResult {
	t.Helper()
	select {
	case r := <-s.GetAccount(id):
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("get account timed out")
		return GetResult{}
	}
}
