// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

import (
	"sync"
)

// Process - object with a Run method that is backgrounded by Start
//
// the Run loop must return promptly after the shutdown channel is
// closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle for a started set of background processes
type T struct {
	wg       sync.WaitGroup
	finalise []chan struct{}
}

// Start - start up a set of background processes
// all with the same args value
func Start(processes Processes, args interface{}) *T {

	register := new(T)
	register.finalise = make([]chan struct{}, len(processes))

	// start each background
	for i, p := range processes {
		shutdown := make(chan struct{})
		register.finalise[i] = shutdown
		register.wg.Add(1)
		go func(p Process, shutdown <-chan struct{}) {
			defer register.wg.Done()
			p.Run(args, shutdown)
		}(p, shutdown)
	}
	return register
}

// Stop - signal shutdown to all background tasks and wait for
// their Run loops to return
func (t *T) Stop() {

	if nil == t {
		return
	}

	for _, shutdown := range t.finalise {
		close(shutdown)
	}

	t.wg.Wait()
}
