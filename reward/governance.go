// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reward

import (
	"math"

	"github.com/misterr-labs/Equilibria/chain"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/netparams"
)

// one-off bridge swap mint paid at fork height + 703568
//
// kept as the original floating point expression; it truncates to
// 803458882221 and the .24 fraction keeps the conversion stable
// across conforming exp2 implementations
var bridgeSwapGrant = uint64(float64(0x502f9000/0x2*0x3) / math.Exp2(0xfe014/130500.0) / 100 * 10e6)

// GovernancePayout - the treasury mint scheduled at a height
//
// every branch below is consensus critical: the schedules are ordered
// and the first match wins, so a height that satisfies two rules pays
// the earlier one
//
// the caller gates on the governance fork version
func GovernancePayout(params *netparams.Params, height uint64) uint64 {
	switch params.Name {
	case chain.Mainnet:
		return mainnetGovernancePayout(params.GovernanceForkHeight, height)
	case chain.Testnet:
		return testnetGovernancePayout(params.GovernanceForkHeight, height)
	default:
		return 0
	}
}

func mainnetGovernancePayout(forkHeight uint64, height uint64) uint64 {
	switch {

	// seven monthly grants starting at the governance fork
	case height == forkHeight,
		height == forkHeight+1*21600,
		height == forkHeight+2*21600,
		height == forkHeight+3*21600,
		height == forkHeight+4*21600,
		height == forkHeight+5*21600,
		height == forkHeight+6*21600:
		return 1000000 * constants.Coin

	// wXEQ pre-sale, burnt at height 500100
	case 500000 == height:
		return 11000000 * constants.Coin

	case 663269 == height:
		return constants.MintBridge

	case 841197 == height:
		return constants.Burn2

	case 898176 == height:
		return constants.CorpMint

	case height == forkHeight+583654:
		return constants.NewXeqBridge

	case height > forkHeight+583654 && 0 == height%21600 && height < 991430:
		return 200000 * constants.Coin

	case height == forkHeight+638584:
		return 5 * constants.CorpMint

	case height > forkHeight+638584 && 0 == height%10800 && height < 1056414:
		return 225000 * constants.Coin

	case height == forkHeight+703568:
		return bridgeSwapGrant

	// swap wind-down: every second block, then every block
	case height > forkHeight+0xd8303 && 0 == height%2 && height < 0x12e56f:
		return 0xBA43B7400

	case height > forkHeight+0xd8321 && height < 0x12e5d4:
		return 0x2540BE400
	}

	return 0
}

func testnetGovernancePayout(forkHeight uint64, height uint64) uint64 {
	switch {

	case height == forkHeight,
		height == forkHeight+1*216,
		height == forkHeight+2*216,
		height == forkHeight+3*216,
		height == forkHeight+4*216,
		height == forkHeight+5*216,
		height == forkHeight+6*216:
		return 1000000 * constants.Coin

	case height == forkHeight+7:
		return constants.NewXeqBridge

	case height > forkHeight+7 && 0 == height%10:
		return 200000 * constants.Coin

	// shadowed: fork height + 50 is a multiple of ten
	case height == forkHeight+50:
		return 5 * constants.CorpMint

	case height > forkHeight+50 && 0 == height%5:
		return 225000 * constants.Coin

	// shadowed: also a multiple of ten
	case 500000 == height:
		return 11000000 * constants.Coin
	}

	return 0
}

// DevFundPayout - the development fund mint scheduled at a height
//
// mainnet only; the caller gates on the dev fund fork version
func DevFundPayout(params *netparams.Params, height uint64) uint64 {
	if chain.Mainnet != params.Name {
		return 0
	}

	forkHeight := params.GovernanceForkHeight

	switch {
	case height == forkHeight+703568:
		return 125000 * constants.Coin

	case height > forkHeight+703568 && 0 == height%10800 && height < 1238350:
		return 125000 * constants.Coin

	case height > forkHeight+885504 && 0 == height%5400:
		return 125000 * constants.Coin
	}

	return 0
}
