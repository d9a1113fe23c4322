// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"github.com/misterr-labs/Equilibria/account"
)

// treasury wallets as raw key material
//
// the daemon never renders addresses so only the spend and view
// public keys are carried; the base58 form each pair was lifted from
// is kept alongside for operators cross-checking against a wallet
func mustWallet(spendHex string, viewHex string) *account.Address {
	address, err := account.AddressFromHexKeys(spendHex, viewHex)
	if nil != err {
		panic("netparams: invalid wallet key material")
	}
	return address
}

var (
	// TvziQSEi93chTMViBzw8Y4eerEjmGq2Q6ajekvgyTyqkGcsj97YJDzF8TMnTWdv7NXQ2ZXfeWJPwRAbVHUjbgFcN2AvU35KfX
	mainnetGovernanceWallet = mustWallet(
		"76e314ce01cff1dc61ada4792685e11c287773966b4fc9b0c7ec781b559b5d60",
		"87fb85b765002c9138913a03d66089ab3d6dfb742384395cc9c5ba59e9338865",
	)

	// Tw16wVGVwjqY2sSKx11UNjQ8NAosTSwzzitYZfVrXt3iP3DgL5beLz55quDcqpqUvoQTvjyNyRb7mUXf3JKDAyLd36AtDf2ei
	mainnetBridgeWallet = mustWallet(
		"a4243709f71cb987945d60ae0c188a4466d757067283fa6fa65e24e4fb8983c2",
		"12a4e98269421cf47e797baf872c8c489979860a41b0a4951af20dd9eefaf354",
	)

	// TvyjwByVHjgCqNKrngt4TQRDgJL7cazWnTXYHXmbFewsKMuN6ozKNcBVkgcpyQwVPRYZCyaAe1W7xN8SdgxqnT4S1UMStejYx
	mainnetNewBridgeWallet = mustWallet(
		"057cbfa5588b46c01b5bc72a3e2f90cb1dadcc23e61b9e978212abf56af26dc5",
		"05dd2f2d5dccabe7654dc9aecb24bca81e9437a4a5d77e51626ced3d989736ed",
	)

	// TvzdbKGga5fSr7fgCTuvR1GY4g9v3No28a6QrcdnnwBkFtisk4MKPLnARAunWBxQJ82L96nGS3ET7BQMhzM788Kp1pweuUfPD
	mainnetDevFundWallet = mustWallet(
		"6d391580897a9a87297dfed5b6445ce1921aa698c6c1c5da1653e881919f5908",
		"31851feaab43384c8b897ec7feb507f396713f8177be3e3197c6c1aa90776046",
	)

	// TvzXGov4tNr6jYG2gdox7bcuEBwwSTpQYAb6w7qgSxuu4hsxY9CMgMgaL6EeqVcQ6hS7Cppn73W8ZSMU8gLMi4N42yTShfkP9
	mainnetNewGovWallet = mustWallet(
		"6088891d046722472709298923cad6a288cdac6328d139529e7c94b0b1901626",
		"4a3e363f5e3bc7430d6e0d3ce57e961acf53914f0cda97933619568cc0f9e5d8",
	)

	// the published replacement dev wallet string is one block short of
	// a decodable address, so no key material exists for it and miner
	// transactions cannot fund it; kept nil to reproduce that outcome
	mainnetNewDevWallet *account.Address

	// XT1mQ4qNhqARHKawpsC4DkCmJxGSiW6EfGej4jssjY7QEzKZgSHmkeuQYHsY3gRhDv4KMt8QQX8TEPBmJQe1SEea38fHATH5C
	testnetGovernanceWallet = mustWallet(
		"2a4a60f70b71912b3ec8c3a1ed87465504ea42d123c45d915deb57a7d7bf53a1",
		"64badaaf3de28cbbc4412486cdbd13d4100cbd2027ad84a39114409f2b9ff853",
	)

	// XT2SoQm1yCJNJrp1c4fUMbFAXfsoVLkPnh85ut4BTexrWbet6DS5qBP2oDxX4aHVSNVTFXCPY1y34Hp3uG8E8EmF1qkkKBs3S
	testnetNewBridgeWallet = mustWallet(
		"796aa776358f7f6444a8e89991f654aec901e154432defdfe9be42fb792bb0f3",
		"a267dab18f8a0abe487419bb411faa1b601a3d1d32c76481f4c1a1b594e261e7",
	)
)
