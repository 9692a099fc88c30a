// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package iopool - bounded worker pool for storage I/O
//
// all durable reads and writes run here so a caller never blocks on
// I/O while holding an in-memory lock; Submit is fire and forget,
// Call returns a single result on a channel
package iopool

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/background"
)

// Result - outcome of a Call task
type Result struct {
	Value interface{}
	Err   error
}

// Pool - a fixed set of worker goroutines fed from one queue
type Pool struct {
	log        *logger.L
	tasks      chan func()
	pending    sync.WaitGroup
	background *background.T
}

// New - start a pool of count workers
func New(name string, count int) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		log:   logger.New(name),
		tasks: make(chan func(), 256),
	}
	processes := make(background.Processes, count)
	for i := 0; i < count; i += 1 {
		processes[i] = &worker{pool: p}
	}
	p.background = background.Start(processes, nil)
	p.log.Infof("started %d workers", count)
	return p
}

type worker struct {
	pool *Pool
}

func (w *worker) Run(args interface{}, shutdown <-chan struct{}) {
	for {
		select {
		case task := <-w.pool.tasks:
			task()
			w.pool.pending.Done()
		case <-shutdown:
			return
		}
	}
}

// Submit - queue a task, fire and forget
func (p *Pool) Submit(task func()) {
	p.pending.Add(1)
	p.tasks <- task
}

// Call - queue a task and deliver its single result
//
// the returned channel is buffered, the result can be collected late
// or not at all
func (p *Pool) Call(task func() (interface{}, error)) <-chan Result {
	done := make(chan Result, 1)
	p.Submit(func() {
		value, err := task()
		done <- Result{Value: value, Err: err}
	})
	return done
}

// Drain - block until every queued task has finished
func (p *Pool) Drain() {
	p.pending.Wait()
}

// Close - drain outstanding tasks, then stop the workers
func (p *Pool) Close() {
	p.Drain()
	p.background.Stop()
	p.log.Info("stopped")
}
