// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

// VerifyContext - the outcome flags of one admission attempt
//
// the daemon inspects these to decide whether to relay, to penalise
// the sending peer or just to drop the transaction quietly; an error
// return always comes with the matching flag set
type VerifyContext struct {
	AddedToPool            bool
	ShouldBeRelayed        bool
	VerificationFailed     bool
	VerificationImpossible bool
	DoubleSpend            bool
	FeeTooLow              bool
	TooBig                 bool
	InvalidInput           bool
	InvalidOutput          bool
}
