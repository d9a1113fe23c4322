// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/minertx"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/servicenode"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

func minerAddress(t *testing.T) account.Address {
	t.Helper()
	spend, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	view, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	return account.Address{SpendKey: spend, ViewKey: view}
}

func buildCoinbase(t *testing.T, h *testHarness, reg *servicenode.Registry, winnerKey crypto.PublicKey) (*transactionrecord.Transaction, reward.BlockRewardParts, uint64, uint8) {
	t.Helper()

	height := reg.Height()
	forkVersion := h.params.ForkVersionAtHeight(height)
	winners := reg.WinnerPortions()

	parts, err := reward.Compute(h.params, nil, 80000, 80000, 1000000*constants.Coin, forkVersion,
		reward.Context{Height: height, Fee: 5000, WinnerInfo: winners})
	require.NoError(t, err)

	tx, err := minertx.Build(h.params, height, forkVersion, minerAddress(t), parts, winnerKey, winners, 1, nil)
	require.NoError(t, err)

	return tx, parts, height, forkVersion
}

func TestValidateMinerTxAcceptsBuiltCoinbase(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	node := h.registerNode(reg)

	winnerKey := reg.SelectWinner()
	require.Equal(t, node.pub, winnerKey)

	tx, parts, height, forkVersion := buildCoinbase(t, h, reg, winnerKey)
	assert.NoError(t, reg.ValidateMinerTx(tx, height, forkVersion, parts))
}

func TestValidateMinerTxRejectsWrongWinner(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	_ = h.registerNode(reg)

	impostor, _, err := crypto.RandomKeypair()
	require.NoError(t, err)

	tx, parts, height, forkVersion := buildCoinbase(t, h, reg, impostor)
	assert.Equal(t, fault.ErrInvalidWinner, reg.ValidateMinerTx(tx, height, forkVersion, parts))
}

func TestValidateMinerTxRejectsTamperedOutput(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	h.extendTo(reg, 30)
	_ = h.registerNode(reg)

	tx, parts, height, forkVersion := buildCoinbase(t, h, reg, reg.SelectWinner())

	// flip one bit in the staker's one time key
	target := tx.Vout[1].Target.(transactionrecord.TxOutToKey)
	target.Key[0] ^= 0x01
	tx.Vout[1].Target = target
	assert.Equal(t, fault.ErrServiceNodeRewardOutput, reg.ValidateMinerTx(tx, height, forkVersion, parts))

	// and a wrong amount as well
	target.Key[0] ^= 0x01
	tx.Vout[1].Target = target
	tx.Vout[1].Amount += 1
	assert.Equal(t, fault.ErrRewardAmountMismatch, reg.ValidateMinerTx(tx, height, forkVersion, parts))
}

func TestValidateMinerTxBeforeServiceNodeFork(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	// any coinbase passes before the staking fork
	tx := &transactionrecord.Transaction{
		Version: transactionrecord.TxVersion1,
		Vin: []transactionrecord.TxInput{
			transactionrecord.TxInGen{Height: 3},
		},
	}
	assert.NoError(t, reg.ValidateMinerTx(tx, 3, 4, reward.BlockRewardParts{}))
}

func TestWinnerPortionsNullWhenEmpty(t *testing.T) {
	h := newHarness(t)
	reg := h.newRegistry(newMemStore())

	assert.Equal(t, crypto.PublicKey{}, reg.SelectWinner())
	assert.Equal(t, reward.NullWinner(), reg.WinnerPortions())
}
