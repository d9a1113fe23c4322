// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reward - the per block coin emission schedule
//
// a block mints coins for up to four kinds of recipient: the miner,
// the contributors behind the winning service node, a treasury wallet
// on governance heights and the development fund late in the chain
//
// the treasury mints sit above the emission curve: they are added to
// the base reward and immediately subtracted back out, so the split
// between miner and service node only ever sees the curve amount
//
// everything here is a pure function of the block position and the
// chain parameters; the base curve itself is a callout so the daemon
// can substitute the historical formula when replaying old heights
package reward

import (
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
)

// Context - per block reward inputs that do not come from the chain
// weights
//
// WinnerInfo lists the contributors of the winning service node in
// payout order, operator first; leave it empty when no node is
// eligible and the null winner placeholder takes the whole share
type Context struct {
	Height     uint64
	Fee        uint64
	WinnerInfo []Winner
}

// BlockRewardParts - the full breakdown of one block's mint
//
// AdjustedBaseReward is the emission curve amount after the treasury
// mints are backed out; the miner and service node shares always sum
// to it exactly
type BlockRewardParts struct {
	OriginalBaseReward uint64
	AdjustedBaseReward uint64

	BaseMiner    uint64
	BaseMinerFee uint64

	ServiceNodeTotal uint64
	OperatorReward   uint64
	StakerReward     uint64
	ServiceNodePaid  uint64

	Governance uint64
	DevFund    uint64
}

// MinerReward - the amount the miner output must carry
func (parts BlockRewardParts) MinerReward() uint64 {
	return parts.BaseMiner + parts.BaseMinerFee
}

// Compute - assemble the reward parts for one block
//
// a nil base callout selects the built in emission curve
//
// when no coins have been generated yet the whole amount goes to the
// miner and the split fields stay zero
func Compute(params *netparams.Params, base BaseReward, medianWeight uint64, currentWeight uint64, generated uint64, forkVersion uint8, context Context) (BlockRewardParts, error) {

	parts := BlockRewardParts{}

	if nil == base {
		base = DefaultBaseReward
	}

	baseReward, err := base(medianWeight, currentWeight, generated, forkVersion, context.Height)
	if nil != err {
		return parts, err
	}

	if forkVersion >= constants.ForkVersionGovernance {
		parts.Governance = GovernancePayout(params, context.Height)
	}
	baseReward += parts.Governance

	if forkVersion >= constants.ForkVersionDevFund {
		parts.DevFund = DevFundPayout(params, context.Height)
	}
	baseReward += parts.DevFund

	if 0 == baseReward {
		return parts, fault.ErrZeroBaseReward
	}

	if 0 == generated {
		parts.OriginalBaseReward = baseReward
		parts.AdjustedBaseReward = baseReward
		parts.BaseMiner = baseReward
		return parts, nil
	}

	parts.OriginalBaseReward = baseReward
	parts.AdjustedBaseReward = parts.OriginalBaseReward - (parts.Governance + parts.DevFund)
	parts.ServiceNodeTotal = ServiceNodeRewardFormula(parts.AdjustedBaseReward, forkVersion)
	parts.OperatorReward = parts.ServiceNodeTotal / 2
	parts.StakerReward = parts.ServiceNodeTotal - parts.OperatorReward

	winners := context.WinnerInfo
	if 0 == len(winners) {
		winners = NullWinner()
	}
	parts.ServiceNodePaid = sumOfPortions(winners, parts, forkVersion)

	parts.BaseMiner = parts.AdjustedBaseReward - parts.ServiceNodeTotal
	parts.BaseMinerFee = context.Fee

	return parts, nil
}
