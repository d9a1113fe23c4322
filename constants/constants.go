// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constants

import (
	"time"
)

// currency unit
//
// one coin is 10000 atomic units
const (
	Coin        = uint64(10000)
	MoneySupply = uint64(840000000000)
)

// emission curve
const (
	EmissionSpeedFactor      = 18
	BaseRewardClampThreshold = uint64(10000)
)

// block limits
const (
	MaxBlockNumber         = uint64(500000000)
	MinedMoneyUnlockWindow = uint64(60)
	GovernanceUnlockWindow = uint64(4)

	CurrentTransactionVersion = 4
	CurrentBlockMajorVersion  = 1
	CurrentBlockMinorVersion  = 0

	GrantedFullRewardZoneV1 = uint64(90000)
	GrantedFullRewardZoneV2 = uint64(80000)
	GrantedFullRewardZoneV5 = uint64(1000000)

	CoinbaseBlobReservedSize = uint64(600)
)

// fee rules
const (
	FeePerByte = uint64(3)

	ForkVersionFeeBurning = uint8(9)
	ForkVersionPerByteFee = uint8(100)
)

// fixed-point staking share denominator
//
// a portion of N grants N/StakingPortions of the staking reward
const (
	StakingPortions = uint64(0xfffffffffffffffc)
	MinPortions     = StakingPortions / MaxContributorsV1
)

// staking amounts, already scaled to atomic units
const (
	MaxContributorsV1 = 4
	MaxContributorsV2 = 100
	MaxContributorsV3 = 1000

	MinOperatorStakeV12    = 10000 * Coin
	MaxOperatorStakeV12    = 35000 * Coin
	MinPoolStakeV12        = 100 * Coin
	MaxPoolStakeV12        = 65000 * Coin
	FullPoolRequirementV12 = MaxOperatorStakeV12 + MaxPoolStakeV12
)

// margin added to the stake lock when computing node expiry, in blocks
const (
	StakeLockExcessBlocks = uint64(20)
)

// one-off treasury amounts used by the governance schedule
const (
	MintBridge   = uint64(167195840000)
	Burn2        = uint64(40000000000)
	CorpMint     = uint64(80000000000)
	NewXeqBridge = uint64(20000000000)
)

// quorum layout
const (
	QuorumSize         = 10
	MinVotesToKick     = 7
	NthOfNetworkToTest = 100
	MinNodesToTest     = 50
)

// swarm layout
const (
	UnassignedSwarmID = uint64(0xffffffffffffffff)
	MaxSwarmSize      = 10
	MinSwarmSize      = 5
	IdealSwarmSize    = 7
	SwarmBuffer       = 5
)

// deregister windows, in blocks
const (
	DeregisterLifetime   = uint64(60)
	DeregisterLifetimeV2 = uint64(30)
)

// hard-fork versions at which specific rules begin
const (
	ForkVersionServiceNode = uint8(5)
	ForkVersionGovernance  = uint8(7)
	ForkVersionPoolStaking = uint8(12)
	ForkVersionMinimalBurn = uint8(16)
	ForkVersionDevFund     = uint8(17)
	ForkVersionTypedStakes = uint8(18)
)

// memory pool lifetimes
const (
	MempoolTxLivetime              = 259200 * time.Second
	MempoolTxFromAltBlockLivetime  = 604800 * time.Second
	MempoolPruneDeregisterLifetime = 86400 * time.Second

	DandelionEmbargoAverage = 173 * time.Second

	DefaultTxPoolMaxWeight = uint64(648000000)
)
