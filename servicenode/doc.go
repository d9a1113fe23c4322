// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package servicenode - the staked node registry driven by the chain
//
// the chain feeds every accepted block through the registry exactly
// once and in order.  registration, contribution, swap and
// deregistration transactions mutate the node table; expired stakes
// fall out once their lock window passes.  an append-only rollback
// log makes short reorganisations cheap to unwind and a barrier entry
// marks the depth beyond which only a full rescan can recover.
//
// the registry also draws the uptime testing quorum for each block
// and picks the reward winner for the next one, so block validation
// and block assembly both read from it
package servicenode
