// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"math"
	"math/rand"
	"time"

	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// re-relay backoff clamp, in seconds
const (
	relayBackoffMin = int64(300)
	relayBackoffMax = int64(14400)
)

// source for the stem embargo draw, reseedable by tests
var relayRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// RelayableTx - one transaction due for propagation
type RelayableTx struct {
	ID     crypto.Hash
	Blob   transactionrecord.Packed
	Method RelayMethod
}

// GetRelayableTransactions - the transactions due for propagation now
//
// stem transactions surface once their embargo deadline passes, so
// the caller fluffing everything returned here implements the
// Dandelion++ embargo timer; broadcast transactions come back on an
// increasing backoff and stop entirely past half their livetime
func (pool *Pool) GetRelayableTransactions() []RelayableTx {
	pool.RLock()
	defer pool.RUnlock()

	now := clock().Unix()
	maxAge := int64(constants.MempoolTxLivetime / time.Second)

	var due []RelayableTx
	for id, entry := range pool.entries {
		if entry.Pruned || entry.DoNotRelay || entry.IsDeregister || 0 == entry.Fee {
			continue
		}
		age := now - entry.ReceiveTime
		if age > maxAge/2 {
			continue
		}

		switch entry.RelayMethod {
		case RelayNone:
			continue

		case RelayStem:
			// LastRelayedTime holds the embargo deadline
			if now < entry.LastRelayedTime {
				continue
			}

		default:
			backoff := (age + relayBackoffMin) / relayBackoffMin * relayBackoffMin
			if backoff < relayBackoffMin {
				backoff = relayBackoffMin
			} else if backoff > relayBackoffMax {
				backoff = relayBackoffMax
			}
			if entry.LastRelayedTime+backoff > now {
				continue
			}
		}

		_, blob, err := pool.transaction(id)
		if nil != err {
			pool.log.Errorf("relay: cannot load tx %s: %s", id, err)
			continue
		}
		due = append(due, RelayableTx{ID: id, Blob: blob, Method: entry.RelayMethod})
	}

	return due
}

// SetRelayed - record that transactions went out under a method
//
// entering stem state arms the embargo timer with a Poisson draw
// around the configured average, anything else stamps the relay time
// for the backoff schedule
func (pool *Pool) SetRelayed(ids []crypto.Hash, method RelayMethod) {
	pool.Lock()
	defer pool.Unlock()

	now := clock().Unix()
	mean := float64(constants.DandelionEmbargoAverage / time.Second)

	for _, id := range ids {
		entry, ok := pool.entries[id]
		if !ok {
			continue
		}
		entry.UpgradeRelayMethod(method)
		if RelayStem == entry.RelayMethod {
			entry.LastRelayedTime = now + poissonSeconds(mean)
		} else {
			entry.LastRelayedTime = now
			entry.Relayed = true
		}
		pool.update(id, entry)
	}
}

// poissonSeconds - one Poisson draw, Knuth's method
func poissonSeconds(mean float64) int64 {
	limit := math.Exp(-mean)
	k := int64(0)
	p := 1.0
	for {
		p *= relayRand.Float64()
		if p <= limit {
			return k
		}
		k += 1
	}
}
