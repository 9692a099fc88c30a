// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package iopool_test

import (
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/iopool"
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

func TestSubmitAndDrain(t *testing.T) {
	p := iopool.New("test-io", 4)
	defer p.Close()

	count := int64(0)
	for i := 0; i < 100; i += 1 {
		p.Submit(func() {
			atomic.AddInt64(&count, 1)
		})
	}
	p.Drain()

	if 100 != atomic.LoadInt64(&count) {
		t.Fatalf("ran %d tasks, expected 100", count)
	}
}

func TestCall(t *testing.T) {
	p := iopool.New("test-io", 2)
	defer p.Close()

	result := <-p.Call(func() (interface{}, error) {
		return 42, nil
	})
	if nil != result.Err {
		t.Fatalf("call error: %s", result.Err)
	}
	if 42 != result.Value.(int) {
		t.Fatalf("call value: %v", result.Value)
	}

	failure := errors.New("broken")
	result = <-p.Call(func() (interface{}, error) {
		return nil, failure
	})
	if failure != result.Err {
		t.Fatalf("call error: %v, expected: %v", result.Err, failure)
	}
}
