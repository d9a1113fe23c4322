// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reward_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/reward"
)

func TestPortionOfReward(t *testing.T) {
	full := constants.StakingPortions

	testData := []struct {
		portions uint64
		amount   uint64
		expected uint64
	}{
		{full, 0, 0},
		{full, 1, 1},
		{full, 1000000, 1000000},
		{full, math.MaxUint64, math.MaxUint64},
		{0, 1000000, 0},
		{full / 2, 1000, 500},
		{full / 4, 1000, 250},
		{1, 1000000, 0},
	}

	for i, item := range testData {
		actual := reward.PortionOfReward(item.portions, item.amount)
		assert.Equal(t, item.expected, actual, "%d: portion %x of %d", i, item.portions, item.amount)
	}
}

func TestServiceNodeRewardFormula(t *testing.T) {
	testData := []struct {
		version  uint8
		expected uint64
	}{
		{1, 0},
		{4, 0},
		{5, 500000},
		{11, 500000},
		{12, 750000},
		{17, 750000},
		{19, 750000},
	}

	for i, item := range testData {
		actual := reward.ServiceNodeRewardFormula(1000000, item.version)
		assert.Equal(t, item.expected, actual, "%d: version %d", i, item.version)
	}
}

func TestContributorPart(t *testing.T) {
	parts := reward.BlockRewardParts{
		ServiceNodeTotal: 901,
		OperatorReward:   450,
		StakerReward:     451,
	}

	// flat share before pooled staking and again after the dev fund
	// fork
	assert.Equal(t, uint64(901), reward.ContributorPart(parts, 0, 5), "v5 operator")
	assert.Equal(t, uint64(901), reward.ContributorPart(parts, 3, 5), "v5 staker")
	assert.Equal(t, uint64(901), reward.ContributorPart(parts, 0, 17), "v17 operator")
	assert.Equal(t, uint64(901), reward.ContributorPart(parts, 3, 17), "v17 staker")

	// pooled staking pays the operator and stakers from separate
	// halves
	assert.Equal(t, uint64(450), reward.ContributorPart(parts, 0, 12), "v12 operator")
	assert.Equal(t, uint64(451), reward.ContributorPart(parts, 1, 12), "v12 staker")
	assert.Equal(t, uint64(451), reward.ContributorPart(parts, 9, 16), "v16 staker")
}

func TestNullWinner(t *testing.T) {
	winners := reward.NullWinner()
	require.Len(t, winners, 1, "length")
	assert.True(t, winners[0].Address.IsZero(), "address")
	assert.Equal(t, constants.StakingPortions, winners[0].Portions, "portions")
}

func TestComputeDevFundHeight(t *testing.T) {
	params := netparams.Mainnet()

	parts, err := reward.Compute(params, nil, 0, 0, 600000000000, 17, reward.Context{
		Height: 1056414,
		Fee:    1000,
	})
	require.NoError(t, err, "compute")

	assert.Equal(t, uint64(803458882221), parts.Governance, "governance")
	assert.Equal(t, uint64(1250000000), parts.DevFund, "dev fund")
	assert.Equal(t, uint64(804709792221), parts.OriginalBaseReward, "original")
	assert.Equal(t, uint64(910000), parts.AdjustedBaseReward, "adjusted")
	assert.Equal(t, uint64(682500), parts.ServiceNodeTotal, "node total")
	assert.Equal(t, uint64(341250), parts.OperatorReward, "operator")
	assert.Equal(t, uint64(341250), parts.StakerReward, "staker")
	assert.Equal(t, uint64(682500), parts.ServiceNodePaid, "paid")
	assert.Equal(t, uint64(227500), parts.BaseMiner, "base miner")
	assert.Equal(t, uint64(1000), parts.BaseMinerFee, "fee")
	assert.Equal(t, uint64(228500), parts.MinerReward(), "miner reward")

	// the treasury mints sit above the curve
	assert.Equal(t,
		parts.Governance+parts.DevFund,
		parts.OriginalBaseReward-parts.AdjustedBaseReward,
		"mints above the curve",
	)
	assert.Equal(t,
		parts.AdjustedBaseReward,
		parts.BaseMiner+parts.ServiceNodeTotal,
		"curve split",
	)
}

func TestComputePooledStaking(t *testing.T) {
	params := netparams.Mainnet()

	// with no winner the whole share collapses onto the null winner,
	// which only ever draws the operator half under pooled staking
	parts, err := reward.Compute(params, nil, 0, 0, 500000000000, 12, reward.Context{
		Height: 841197,
	})
	require.NoError(t, err, "compute")

	assert.Equal(t, constants.Burn2, parts.Governance, "governance")
	assert.Zero(t, parts.DevFund, "dev fund before its fork")
	assert.Equal(t, uint64(1290000), parts.AdjustedBaseReward, "adjusted")
	assert.Equal(t, uint64(967500), parts.ServiceNodeTotal, "node total")
	assert.Equal(t, uint64(483750), parts.OperatorReward, "operator")
	assert.Equal(t, parts.OperatorReward, parts.ServiceNodePaid, "null winner draws the operator half")
}

func TestComputeWinnerSplit(t *testing.T) {
	params := netparams.Mainnet()

	operator := account.Address{}
	operator.SpendKey[0] = 1
	staker := account.Address{}
	staker.SpendKey[0] = 2

	winners := []reward.Winner{
		{Address: operator, Portions: constants.StakingPortions / 2},
		{Address: staker, Portions: constants.StakingPortions / 2},
	}

	parts, err := reward.Compute(params, nil, 0, 0, 500000000000, 12, reward.Context{
		Height:     841197,
		WinnerInfo: winners,
	})
	require.NoError(t, err, "compute")

	expected := reward.PortionOfReward(winners[0].Portions, parts.OperatorReward) +
		reward.PortionOfReward(winners[1].Portions, parts.StakerReward)
	assert.Equal(t, expected, parts.ServiceNodePaid, "paid")
	assert.Equal(t, uint64(483750), parts.ServiceNodePaid, "half of each pool")
}

func TestComputeEarlyForks(t *testing.T) {
	params := netparams.Mainnet()

	// before service nodes everything goes to the miner
	parts, err := reward.Compute(params, nil, 0, 0, 500000000000, 4, reward.Context{
		Height: 200000,
		Fee:    50,
	})
	require.NoError(t, err, "version 4")
	assert.Zero(t, parts.ServiceNodeTotal, "node total")
	assert.Zero(t, parts.ServiceNodePaid, "paid")
	assert.Equal(t, uint64(1290000), parts.BaseMiner, "base miner")
	assert.Equal(t, uint64(1290050), parts.MinerReward(), "miner reward")

	// the first service node fork takes half
	parts, err = reward.Compute(params, nil, 0, 0, 500000000000, 5, reward.Context{
		Height: 200000,
	})
	require.NoError(t, err, "version 5")
	assert.Equal(t, uint64(645000), parts.ServiceNodeTotal, "node total")
	assert.Equal(t, uint64(645000), parts.ServiceNodePaid, "paid")
	assert.Equal(t, uint64(645000), parts.BaseMiner, "base miner")
}

func TestComputeGovernanceGate(t *testing.T) {
	params := netparams.Mainnet()

	// same height, one fork version apart: the gate holds the mint
	// back entirely
	parts, err := reward.Compute(params, nil, 0, 0, 500000000000, 6, reward.Context{
		Height: 352846,
	})
	require.NoError(t, err, "version 6")
	assert.Zero(t, parts.Governance, "governance before its fork")

	parts, err = reward.Compute(params, nil, 0, 0, 500000000000, 7, reward.Context{
		Height: 352846,
	})
	require.NoError(t, err, "version 7")
	assert.Equal(t, uint64(10000000000), parts.Governance, "governance")
}

func TestComputeGenesis(t *testing.T) {
	params := netparams.Mainnet()

	parts, err := reward.Compute(params, nil, 0, 0, 0, 1, reward.Context{
		Height: 0,
		Fee:    77,
	})
	require.NoError(t, err, "compute")

	assert.Equal(t, uint64(3200000), parts.OriginalBaseReward, "original")
	assert.Equal(t, uint64(3200000), parts.AdjustedBaseReward, "adjusted")
	assert.Equal(t, uint64(3200000), parts.BaseMiner, "base miner")
	assert.Zero(t, parts.BaseMinerFee, "genesis carries no fee")
	assert.Equal(t, uint64(3200000), parts.MinerReward(), "miner reward")
	assert.Zero(t, parts.ServiceNodeTotal, "node total")
	assert.Zero(t, parts.ServiceNodePaid, "paid")
}

func TestComputeZeroBaseReward(t *testing.T) {
	params := netparams.Stagenet()

	_, err := reward.Compute(params, nil, 0, 0, constants.MoneySupply, 17, reward.Context{
		Height: 5000,
	})
	assert.Equal(t, fault.ErrZeroBaseReward, err, "exhausted curve")
}

func TestComputeBaseErrorPropagates(t *testing.T) {
	params := netparams.Mainnet()

	_, err := reward.Compute(params, nil, 1000000, 3000000, 1000, 17, reward.Context{
		Height: 2000000,
	})
	assert.Equal(t, fault.ErrBlockWeightTooBig, err, "over weight block")
}

func TestComputeInjectedBase(t *testing.T) {
	params := netparams.Mainnet()

	var seenHeight uint64
	base := func(medianWeight uint64, currentWeight uint64, generated uint64, forkVersion uint8, height uint64) (uint64, error) {
		seenHeight = height
		return 4000000, nil
	}

	parts, err := reward.Compute(params, base, 0, 0, 500000000000, 17, reward.Context{
		Height: 2000000,
	})
	require.NoError(t, err, "compute")

	assert.Equal(t, uint64(2000000), seenHeight, "callout height")
	assert.Equal(t, uint64(4000000), parts.OriginalBaseReward, "original")
	assert.Equal(t, uint64(3000000), parts.ServiceNodeTotal, "node total")
	assert.Equal(t, uint64(1000000), parts.BaseMiner, "base miner")
}
