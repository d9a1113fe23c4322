// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"bytes"
	"sort"

	"github.com/misterr-labs/Equilibria/crypto"
)

// SwarmCalc - external swarm assignment callout
//
// receives the current swarm membership keyed by swarm id, with keys
// in ascending order inside each bucket, plus the block seed; returns
// the new swarm for every node that must move.  the unassigned swarm
// id groups nodes waiting for a first assignment
type SwarmCalc func(buckets map[uint64][]crypto.PublicKey, seed uint64) map[crypto.PublicKey]uint64

// updateSwarms - rebalance swarms after membership changed; lock must
// be held
//
// every reassignment is an ordinary change event so rollbacks restore
// the previous layout
func (reg *Registry) updateSwarms(height uint64, blockHash crypto.Hash) {
	if nil == reg.swarmCalc {
		return
	}

	buckets := make(map[uint64][]crypto.PublicKey)
	for _, key := range reg.sortedKeys() {
		id := reg.infos[key].SwarmID
		buckets[id] = append(buckets[id], key)
	}

	moves := reg.swarmCalc(buckets, blockHash.Seed())
	if 0 == len(moves) {
		return
	}

	keys := make([]crypto.PublicKey, 0, len(moves))
	for key := range moves {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	for _, key := range keys {
		info, ok := reg.infos[key]
		if !ok {
			reg.log.Errorf("swarm move for unknown service node: %s", key)
			continue
		}
		id := moves[key]
		if info.SwarmID == id {
			continue
		}
		reg.pushChange(height, key, info)
		info.SwarmID = id
	}
}
