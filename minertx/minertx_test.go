// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package minertx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/minertx"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

func testAddress(t *testing.T) account.Address {
	t.Helper()
	spend, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	view, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	return account.Address{SpendKey: spend, ViewKey: view}
}

func computeParts(t *testing.T, params *netparams.Params, height uint64, forkVersion uint8, fee uint64, winners []reward.Winner) reward.BlockRewardParts {
	t.Helper()
	parts, err := reward.Compute(params, nil, 80000, 80000, 1000000*constants.Coin, forkVersion,
		reward.Context{Height: height, Fee: fee, WinnerInfo: winners})
	require.NoError(t, err)
	return parts
}

func TestBuildConservation(t *testing.T) {
	params := netparams.Fakechain()

	operator := testAddress(t)
	staker := testAddress(t)
	winnerKey, _, err := crypto.RandomKeypair()
	require.NoError(t, err)

	height := uint64(1000)
	forkVersion := params.ForkVersionAtHeight(height)

	winners := []reward.Winner{
		{Address: operator, Portions: constants.StakingPortions / 2},
		{Address: staker, Portions: constants.StakingPortions / 2},
	}
	parts := computeParts(t, params, height, forkVersion, 12345, winners)

	tx, err := minertx.Build(params, height, forkVersion, testAddress(t), parts, winnerKey, winners, 1, nil)
	require.NoError(t, err)

	total := uint64(0)
	for _, out := range tx.Vout {
		total += out.Amount
	}
	assert.Equal(t, parts.MinerReward()+parts.ServiceNodePaid+parts.Governance+parts.DevFund, total)

	// one miner output plus one per winner
	require.GreaterOrEqual(t, len(tx.Vout), 3)
	assert.Equal(t, parts.MinerReward(), tx.Vout[0].Amount)

	// coinbase input commits the height
	require.Len(t, tx.Vin, 1)
	gen, ok := tx.Vin[0].(transactionrecord.TxInGen)
	require.True(t, ok)
	assert.Equal(t, height, gen.Height)

	// miner output unlocks after the mined money window
	assert.Equal(t, height+constants.MinedMoneyUnlockWindow, tx.OutputUnlockTimes[0])
}

func TestBuildExtraCarriesWinner(t *testing.T) {
	params := netparams.Fakechain()

	winnerKey, _, err := crypto.RandomKeypair()
	require.NoError(t, err)

	height := uint64(200)
	forkVersion := params.ForkVersionAtHeight(height)
	winners := []reward.Winner{{Address: testAddress(t), Portions: constants.StakingPortions}}
	parts := computeParts(t, params, height, forkVersion, 0, winners)

	tx, err := minertx.Build(params, height, forkVersion, testAddress(t), parts, winnerKey, winners, 1, []byte{0x01, 0x02})
	require.NoError(t, err)

	fields, err := transactionrecord.ParseExtra(tx.Extra)
	require.NoError(t, err)
	require.NotNil(t, fields.Winner)
	assert.Equal(t, winnerKey, *fields.Winner)
	require.NotNil(t, fields.ServiceNodePubKey)

	snPub, _ := crypto.DeterministicKeypair(height)
	assert.Equal(t, snPub, *fields.ServiceNodePubKey)
}

func TestGovernanceOutputValidation(t *testing.T) {
	params := netparams.Mainnet()

	// first periodic governance grant after the fork
	height := uint64(352846)
	forkVersion := params.ForkVersionAtHeight(height)
	require.Equal(t, uint8(7), forkVersion)

	winners := []reward.Winner{{Address: testAddress(t), Portions: constants.StakingPortions}}
	parts := computeParts(t, params, height, forkVersion, 0, winners)
	require.NotZero(t, parts.Governance)

	winnerKey, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	tx, err := minertx.Build(params, height, forkVersion, testAddress(t), parts, winnerKey, winners, 1, nil)
	require.NoError(t, err)

	govIndex := 1 + len(winners)
	require.NoError(t, minertx.ValidateGovernanceOutput(params, tx, govIndex, height, forkVersion, parts.Governance))

	// governance output unlocks on the short treasury window
	assert.Equal(t, height+constants.GovernanceUnlockWindow, tx.OutputUnlockTimes[govIndex])

	// tampering with the one time key must be detected
	target := tx.Vout[govIndex].Target.(transactionrecord.TxOutToKey)
	target.Key[0] ^= 0x01
	tx.Vout[govIndex].Target = target
	assert.Equal(t, fault.ErrGovernanceRewardOutput,
		minertx.ValidateGovernanceOutput(params, tx, govIndex, height, forkVersion, parts.Governance))

	// and a wrong amount as well
	target.Key[0] ^= 0x01
	tx.Vout[govIndex].Target = target
	assert.Equal(t, fault.ErrRewardAmountMismatch,
		minertx.ValidateGovernanceOutput(params, tx, govIndex, height, forkVersion, parts.Governance+1))
}

func TestDevFundOutputValidation(t *testing.T) {
	params := netparams.Mainnet()

	// inside the dev fund schedule
	height := uint64(352846 + 703568)
	forkVersion := params.ForkVersionAtHeight(height)
	require.GreaterOrEqual(t, forkVersion, uint8(17))

	winners := []reward.Winner{{Address: testAddress(t), Portions: constants.StakingPortions}}
	parts := computeParts(t, params, height, forkVersion, 0, winners)
	require.NotZero(t, parts.DevFund)

	winnerKey, _, err := crypto.RandomKeypair()
	require.NoError(t, err)
	tx, err := minertx.Build(params, height, forkVersion, testAddress(t), parts, winnerKey, winners, 1, nil)
	require.NoError(t, err)

	devIndex := len(tx.Vout) - 1
	require.NoError(t, minertx.ValidateDevFundOutput(params, tx, devIndex, height, forkVersion, parts.DevFund))

	target := tx.Vout[devIndex].Target.(transactionrecord.TxOutToKey)
	target.Key[3] ^= 0x80
	tx.Vout[devIndex].Target = target
	assert.Equal(t, fault.ErrDevFundRewardOutput,
		minertx.ValidateDevFundOutput(params, tx, devIndex, height, forkVersion, parts.DevFund))
}

func TestBuildBeforeServiceNodeFork(t *testing.T) {
	params := netparams.Fakechain()

	height := uint64(3)
	forkVersion := params.ForkVersionAtHeight(height)
	require.Less(t, forkVersion, uint8(5))

	parts := computeParts(t, params, height, forkVersion, 0, nil)

	tx, err := minertx.Build(params, height, forkVersion, testAddress(t), parts, crypto.PublicKey{}, nil, 1, nil)
	require.NoError(t, err)

	// only the miner output before the service node fork
	assert.Len(t, tx.Vout, 1)
	assert.Equal(t, parts.MinerReward(), tx.Vout[0].Amount)
}
