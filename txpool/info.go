// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"sort"

	"github.com/misterr-labs/Equilibria/crypto"
)

// Stats - aggregate figures over the pool contents
type Stats struct {
	Count        uint64
	WeightTotal  uint64
	WeightMin    uint64
	WeightMax    uint64
	WeightMedian uint64
	FeeTotal     uint64
	Oldest       int64
	DoubleSpends uint64
	NotRelayed   uint64
}

// BacklogEntry - the miner-relevant view of one pool transaction
type BacklogEntry struct {
	ID          crypto.Hash
	Weight      uint64
	Fee         uint64
	ReceiveTime int64
}

// Count - the number of pool transactions
//
// with includeSensitive false, transactions still on the stem path
// are not counted so the public figure leaks nothing about them
func (pool *Pool) Count(includeSensitive bool) int {
	pool.RLock()
	defer pool.RUnlock()

	if includeSensitive {
		return len(pool.entries)
	}
	n := 0
	for _, entry := range pool.entries {
		if !entry.IsSensitive() {
			n += 1
		}
	}
	return n
}

// TotalWeight - the current pool weight tally
func (pool *Pool) TotalWeight() uint64 {
	pool.RLock()
	defer pool.RUnlock()
	return pool.totalWeight
}

// Hashes - the pool transaction ids in priority order
func (pool *Pool) Hashes(includeSensitive bool) []crypto.Hash {
	pool.RLock()
	defer pool.RUnlock()

	hashes := make([]crypto.Hash, 0, len(pool.entries))
	for node := pool.priority.First(); nil != node; node = node.Next() {
		id := node.Value().(crypto.Hash)
		if !includeSensitive && pool.entries[id].IsSensitive() {
			continue
		}
		hashes = append(hashes, id)
	}
	return hashes
}

// GetStats - aggregate figures over the broadcast pool contents
func (pool *Pool) GetStats() Stats {
	pool.RLock()
	defer pool.RUnlock()

	stats := Stats{}
	var weights []uint64

	for _, entry := range pool.entries {
		if entry.IsSensitive() {
			continue
		}
		stats.Count += 1
		stats.WeightTotal += entry.Weight
		stats.FeeTotal += entry.Fee
		weights = append(weights, entry.Weight)

		if 0 == stats.WeightMin || entry.Weight < stats.WeightMin {
			stats.WeightMin = entry.Weight
		}
		if entry.Weight > stats.WeightMax {
			stats.WeightMax = entry.Weight
		}
		if 0 == stats.Oldest || entry.ReceiveTime < stats.Oldest {
			stats.Oldest = entry.ReceiveTime
		}
		if entry.DoubleSpendSeen {
			stats.DoubleSpends += 1
		}
		if !entry.Relayed {
			stats.NotRelayed += 1
		}
	}

	if n := len(weights); n > 0 {
		sort.Slice(weights, func(i int, j int) bool { return weights[i] < weights[j] })
		if 0 == n%2 {
			stats.WeightMedian = (weights[n/2-1] + weights[n/2]) / 2
		} else {
			stats.WeightMedian = weights[n/2]
		}
	}

	return stats
}

// Backlog - weight, fee and arrival of every broadcast transaction,
// in priority order
func (pool *Pool) Backlog() []BacklogEntry {
	pool.RLock()
	defer pool.RUnlock()

	backlog := make([]BacklogEntry, 0, len(pool.entries))
	for node := pool.priority.First(); nil != node; node = node.Next() {
		id := node.Value().(crypto.Hash)
		entry := pool.entries[id]
		if entry.IsSensitive() {
			continue
		}
		backlog = append(backlog, BacklogEntry{
			ID:          id,
			Weight:      entry.Weight,
			Fee:         entry.Fee,
			ReceiveTime: entry.ReceiveTime,
		})
	}
	return backlog
}
