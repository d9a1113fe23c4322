// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"math"

	"github.com/misterr-labs/Equilibria/chain"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/netparams"
)

// StakingRequirement - the stake a node registering at a height must
// lock up, in atomic units
//
// heights below the network's staking anchor are clamped to it, so
// the curve starts flat at 40000 coins and decays towards the base;
// from height 841197 the requirement is a flat 100000 coins
func StakingRequirement(params *netparams.Params, height uint64) uint64 {
	if height < params.StakingAnchorHeight {
		height = params.StakingAnchorHeight
	}
	adjusted := float64(height - params.StakingAnchorHeight)

	if chain.Testnet == params.Name {
		if height >= 150 {
			return 100000 * constants.Coin
		}
		// the anchor clamp keeps testnet heights at 581 or above so
		// the two decay branches never run; they mirror the mainnet
		// curve shape
		if height >= 14 {
			return 70000*constants.Coin + uint64(20000.0*float64(constants.Coin)/math.Exp2(adjusted/356446.0))
		}
		return 10000*constants.Coin + uint64(30000.0*float64(constants.Coin)/math.Exp2(adjusted/129600.0))
	}

	switch {
	case height >= 841197:
		return 100000 * constants.Coin
	case height >= 352846:
		return 70000*constants.Coin + uint64(20000.0*float64(constants.Coin)/math.Exp2(adjusted/356446.0))
	default:
		return 10000*constants.Coin + uint64(30000.0*float64(constants.Coin)/math.Exp2(adjusted/129600.0))
	}
}

// PortionsToAmount - convert a fixed point share of the staking
// requirement into atomic units, truncating
func PortionsToAmount(portions uint64, stakingRequirement uint64) uint64 {
	hi, lo := crypto.Mul128(stakingRequirement, portions)
	return crypto.Div128By64(hi, lo, constants.StakingPortions)
}

// PortionsToMakeAmount - the smallest fixed point share worth at
// least the given amount, rounding up
func PortionsToMakeAmount(amount uint64, stakingRequirement uint64) uint64 {
	hi, lo := crypto.Mul128(amount, constants.StakingPortions)
	hi, lo = crypto.Add128(hi, lo, 0, stakingRequirement-1)
	return crypto.Div128By64(hi, lo, stakingRequirement)
}

// CheckPortions - verify a registration's share list
//
// every share must meet the minimum, capped at whatever is still
// unallocated, and the shares must never overrun the whole
func CheckPortions(portions []uint64, minimum uint64) bool {
	portionsLeft := constants.StakingPortions

	for _, portion := range portions {
		required := minimum
		if portionsLeft < required {
			required = portionsLeft
		}
		if portion < required || portion > portionsLeft {
			return false
		}
		portionsLeft -= portion
	}

	return true
}

// MinNodeContribution - the smallest stake a new contributor may add
// to a node's pool
func MinNodeContribution(forkVersion uint8, stakingRequirement uint64, totalReserved uint64) uint64 {
	if forkVersion >= constants.ForkVersionPoolStaking {
		return constants.MinPoolStakeV12
	}

	open := stakingRequirement - totalReserved
	slice := stakingRequirement / constants.MaxContributorsV1
	if forkVersion > 9 {
		slice = stakingRequirement / constants.MaxContributorsV2
	}
	if open < slice {
		return open
	}
	return slice
}

// MaxContributors - the pool size limit at a fork version
func MaxContributors(forkVersion uint8) int {
	switch {
	case forkVersion > 11:
		return constants.MaxContributorsV3
	case forkVersion > 9:
		return constants.MaxContributorsV2
	default:
		return constants.MaxContributorsV1
	}
}
