// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"time"

	"github.com/misterr-labs/Equilibria/background"
	"github.com/misterr-labs/Equilibria/crypto"
)

// relay cadence
const relayInterval = 5 * time.Second

// pacer - periodic propagation of due transactions
type pacer struct {
	pool    *Pool
	publish func([]RelayableTx)
}

// NewRelayPacer - background process draining the relay queue
//
// each tick hands the due transactions to publish and marks them
// fluffed, which arms the backoff for the next round; publish may be
// nil when no transport is attached
func (pool *Pool) NewRelayPacer(publish func([]RelayableTx)) background.Process {
	return &pacer{pool: pool, publish: publish}
}

// Run - the relay loop
func (p *pacer) Run(args interface{}, shutdown <-chan struct{}) {
	log := p.pool.log
	log.Info("relay: starting")

	timer := time.NewTicker(relayInterval)
	defer timer.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer.C:
			batch := p.pool.GetRelayableTransactions()
			if 0 == len(batch) {
				continue loop
			}
			log.Infof("relay: %d transactions due", len(batch))
			if nil != p.publish {
				p.publish(batch)
			}
			ids := make([]crypto.Hash, len(batch))
			for i, item := range batch {
				ids[i] = item.ID
			}
			p.pool.SetRelayed(ids, RelayFluff)
		}
	}

	log.Info("relay: shutting down")
}
