// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netparams - per network consensus parameters
//
// Each chain carries its own hard-fork schedule, treasury wallets,
// staking lock period and genesis data. The exported constructors
// return immutable parameter sets; callers select one at start-up and
// thread it through the consensus packages.
package netparams
