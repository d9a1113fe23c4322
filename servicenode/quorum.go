// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
)

// QuorumState - the uptime testing committee drawn at one height
//
// QuorumNodes vote, NodesToTest is the slice of the network under
// test; deregistration transactions index into NodesToTest
type QuorumState struct {
	QuorumNodes []crypto.PublicKey
	NodesToTest []crypto.PublicKey
}

// Copy - deep copy
func (state *QuorumState) Copy() *QuorumState {
	duplicate := &QuorumState{
		QuorumNodes: make([]crypto.PublicKey, len(state.QuorumNodes)),
		NodesToTest: make([]crypto.PublicKey, len(state.NodesToTest)),
	}
	copy(duplicate.QuorumNodes, state.QuorumNodes)
	copy(duplicate.NodesToTest, state.NodesToTest)
	return duplicate
}

// QuorumState - the committee drawn at a height
//
// an unknown height yields an empty state, never nil
func (reg *Registry) QuorumState(height uint64) *QuorumState {
	reg.RLock()
	defer reg.RUnlock()

	state, ok := reg.quorums[height]
	if !ok {
		return &QuorumState{}
	}
	return state.Copy()
}

// snapshotQuorum - draw the committee for a block; lock must be held
//
// the eligible key list is shuffled with the block hash as seed, the
// first ten become the quorum and one percent of the rest, or up to
// fifty when the network is small, become the nodes under test
func (reg *Registry) snapshotQuorum(height uint64, blockHash crypto.Hash) {
	keys := reg.eligibleKeys()

	indexes := make([]int, len(keys))
	for i := range indexes {
		indexes[i] = i
	}
	mt := crypto.NewMT19937(blockHash.Seed())
	mt.Shuffle(len(indexes), func(i int, j int) {
		indexes[i], indexes[j] = indexes[j], indexes[i]
	})

	quorumSize := len(keys)
	if quorumSize > constants.QuorumSize {
		quorumSize = constants.QuorumSize
	}

	state := &QuorumState{
		QuorumNodes: make([]crypto.PublicKey, quorumSize),
	}
	for i := 0; i < quorumSize; i += 1 {
		state.QuorumNodes[i] = keys[indexes[i]]
	}

	remaining := len(keys) - quorumSize
	testCount := remaining / constants.NthOfNetworkToTest
	most := constants.MinNodesToTest
	if remaining < most {
		most = remaining
	}
	if most > testCount {
		testCount = most
	}

	state.NodesToTest = make([]crypto.PublicKey, testCount)
	for i := 0; i < testCount; i += 1 {
		state.NodesToTest[i] = keys[indexes[quorumSize+i]]
	}

	reg.quorums[height] = state
}
