// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"time"

	"github.com/misterr-labs/Equilibria/background"
)

// sweep cadence
const sweepInterval = 30 * time.Second

// sweeper - periodic stuck transaction removal
type sweeper struct {
	pool *Pool
}

// NewSweeper - background process evicting timed out transactions
//
// start it with background.Start and stop it through the returned
// handle; each tick runs RemoveStuckTransactions
func (pool *Pool) NewSweeper() background.Process {
	return &sweeper{pool: pool}
}

// Run - the sweep loop
func (s *sweeper) Run(args interface{}, shutdown <-chan struct{}) {
	log := s.pool.log
	log.Info("sweeper: starting")

	timer := time.NewTicker(sweepInterval)
	defer timer.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer.C:
			if n := s.pool.RemoveStuckTransactions(); n > 0 {
				log.Infof("sweeper: removed %d stuck transactions", n)
			}
		}
	}

	log.Info("sweeper: shutting down")
}
