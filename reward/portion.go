// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reward

import (
	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
)

// divisor of the adjusted base reward before pooled staking
const serviceNodeBaseRewardDivisor = 2

// Winner - one reward recipient with its fixed point share
type Winner struct {
	Address  account.Address
	Portions uint64
}

// NullWinner - the placeholder paying the whole service node share to
// the null address when no node is eligible for the next block
func NullWinner() []Winner {
	return []Winner{{
		Address:  account.Address{},
		Portions: constants.StakingPortions,
	}}
}

// ServiceNodeRewardFormula - the share of the adjusted base reward
// set aside for the winning service node at a fork version
func ServiceNodeRewardFormula(baseReward uint64, forkVersion uint8) uint64 {
	if forkVersion >= constants.ForkVersionPoolStaking {
		return baseReward / 4 * 3
	}
	if forkVersion >= constants.ForkVersionServiceNode {
		return baseReward / serviceNodeBaseRewardDivisor
	}
	return 0
}

// PortionOfReward - the fixed point share of a reward amount
//
// reward·portions/STAKING_PORTIONS through a 128 bit intermediate,
// truncated to 64 bits exactly as the reference arithmetic does
func PortionOfReward(portions uint64, reward uint64) uint64 {
	hi, lo := crypto.Mul128(reward, portions)
	return crypto.Div128By64(hi, lo, constants.StakingPortions)
}

// ContributorPart - the reward pool a winner entry draws from
//
// entry 0 is the operator; pooled staking splits the node share into
// operator and staker halves until the dev fund fork flattens it back
// to the whole share
func ContributorPart(parts BlockRewardParts, index int, forkVersion uint8) uint64 {
	switch {
	case forkVersion >= constants.ForkVersionDevFund:
		return parts.ServiceNodeTotal

	case forkVersion >= constants.ForkVersionPoolStaking:
		if 0 == index {
			return parts.OperatorReward
		}
		return parts.StakerReward

	default:
		return parts.ServiceNodeTotal
	}
}

func sumOfPortions(winners []Winner, parts BlockRewardParts, forkVersion uint8) uint64 {
	total := uint64(0)
	for i, winner := range winners {
		total += PortionOfReward(winner.Portions, ContributorPart(parts, i, forkVersion))
	}
	return total
}
