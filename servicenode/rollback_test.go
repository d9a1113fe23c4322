// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// rewind the harness chain to a height, dropping later blocks
func (h *testHarness) detachChain(height uint64) {
	h.chain.Lock()
	defer h.chain.Unlock()
	for hh := height; hh < h.chain.tip; hh += 1 {
		block, ok := h.chain.blocks[hh]
		if ok {
			for _, hash := range block.TxHashes {
				delete(h.chain.txs, hash)
			}
			delete(h.chain.blocks, hh)
		}
	}
	h.chain.tip = height
}

func TestDetachRestoresPriorState(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	_ = h.registerNode(reg)

	before := reg.ListState(nil)
	detachHeight := h.chain.CurrentHeight()

	_ = h.registerNode(reg)
	require.Len(t, reg.ListState(nil), 2)

	h.detachChain(detachHeight)
	require.NoError(t, reg.BlockchainDetached(detachHeight))

	assert.Equal(t, detachHeight, reg.Height())
	assert.Equal(t, before, reg.ListState(nil))
}

func TestDetachDiscardsQuorums(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	_ = h.registerNode(reg)
	h.extendTo(reg, 35)

	require.NotEmpty(t, reg.QuorumState(33).QuorumNodes)

	h.detachChain(33)
	require.NoError(t, reg.BlockchainDetached(33))

	assert.Empty(t, reg.QuorumState(33).QuorumNodes)
	assert.Empty(t, reg.QuorumState(34).QuorumNodes)
	assert.NotEmpty(t, reg.QuorumState(32).QuorumNodes)
}

func TestDetachPastBarrierFallsBackToRescan(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	nodeA := h.registerNode(reg)
	h.extendTo(reg, 95)
	nodeB := h.registerNode(reg)
	h.extendTo(reg, 100)

	// node A's stake lock already ran out on this branch
	require.False(t, reg.IsServiceNode(nodeA.pub))
	require.True(t, reg.IsServiceNode(nodeB.pub))

	// detaching below the rollback window cannot unwind event by
	// event, the registry must replay the remaining chain instead
	h.detachChain(60)
	require.NoError(t, reg.BlockchainDetached(60))

	assert.Equal(t, uint64(60), reg.Height())
	assert.True(t, reg.IsServiceNode(nodeA.pub))
	assert.False(t, reg.IsServiceNode(nodeB.pub))

	control := h.newRegistry(newMemStore())
	require.NoError(t, control.Init())
	assert.Equal(t, control.ListState(nil), reg.ListState(nil))
}

func TestDeregisterRemovesVotedNode(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)

	// eleven nodes so the quorum snapshot has one node under test
	nodes := make([]*testNode, 11)
	txs := make([]*transactionrecord.Transaction, 11)
	for i := range nodes {
		nodes[i] = newTestNode(t)
		txs[i] = h.registrationTx(nodes[i], regOptions{})
	}
	quorumHeight := h.chain.CurrentHeight()
	h.extend(reg, crypto.PublicKey{}, txs...)

	state := reg.QuorumState(quorumHeight)
	require.Len(t, state.QuorumNodes, 10)
	require.Len(t, state.NodesToTest, 1)
	victim := state.NodesToTest[0]
	require.True(t, reg.IsServiceNode(victim))

	detachHeight := h.chain.CurrentHeight()
	h.extend(reg, crypto.PublicKey{}, h.deregisterTx(quorumHeight, 0))

	assert.False(t, reg.IsServiceNode(victim))
	assert.Len(t, reg.Pubkeys(), 10)

	// an index outside the tested list is ignored
	h.extend(reg, crypto.PublicKey{}, h.deregisterTx(quorumHeight, 5))
	assert.Len(t, reg.Pubkeys(), 10)

	// unwinding the deregistration restores the node
	h.detachChain(detachHeight)
	require.NoError(t, reg.BlockchainDetached(detachHeight))
	assert.True(t, reg.IsServiceNode(victim))
	assert.Len(t, reg.Pubkeys(), 11)
}
