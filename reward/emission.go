// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reward

import (
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// BaseReward - the emission formula callout
//
// produces the pre treasury base reward for a block from the median
// and current block weights, the coins already generated and the
// block position; an error aborts reward computation entirely
type BaseReward func(medianWeight uint64, currentWeight uint64, generated uint64, forkVersion uint8, height uint64) (uint64, error)

// MinBlockWeight - the full reward zone for a fork version
//
// blocks up to this weight never pay a penalty regardless of the
// median
func MinBlockWeight(forkVersion uint8) uint64 {
	if forkVersion < 2 {
		return constants.GrantedFullRewardZoneV1
	}
	if forkVersion < 5 {
		return constants.GrantedFullRewardZoneV2
	}
	return constants.GrantedFullRewardZoneV5
}

// DefaultBaseReward - the built in emission curve
//
// the remaining supply halves every 2^18 blocks, rounded down to the
// clamp threshold; oversize blocks lose reward quadratically over
// (median, 2·median] and anything past twice the median is an error
//
// the treasury mints push the generated total past the curve cap late
// in the chain, so the subtraction saturates at zero instead of
// wrapping
func DefaultBaseReward(medianWeight uint64, currentWeight uint64, generated uint64, forkVersion uint8, height uint64) (uint64, error) {

	remaining := uint64(0)
	if generated < constants.MoneySupply {
		remaining = constants.MoneySupply - generated
	}

	baseReward := remaining >> constants.EmissionSpeedFactor
	baseReward -= baseReward % constants.BaseRewardClampThreshold

	fullRewardZone := MinBlockWeight(forkVersion)
	if medianWeight < fullRewardZone {
		medianWeight = fullRewardZone
	}

	if currentWeight <= medianWeight {
		return baseReward, nil
	}

	if currentWeight > 2*medianWeight {
		return 0, fault.ErrBlockWeightTooBig
	}

	// penalised = base·(2·median − current)·current / median²
	//
	// the reference divides the 128 bit product by the median twice;
	// one divide by median² is identical because the nested integer
	// divisions share a divisor, and median² cannot overflow for any
	// realistic byte weight
	multiplicand := (2*medianWeight - currentWeight) * currentWeight
	hi, lo := crypto.Mul128(baseReward, multiplicand)
	return crypto.Div128By64(hi, lo, medianWeight*medianWeight), nil
}
