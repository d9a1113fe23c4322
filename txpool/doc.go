// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txpool - the memory pool of transactions waiting for a block
//
// admission checks versions, fees, weight and double spends before a
// transaction is stored; a fee-priority index orders the pool so that
// deregistrations come first, then the highest fee per byte, then the
// earliest arrival.  every accepted transaction is persisted so the
// pool survives a restart.
//
// propagation follows Dandelion++: a transaction enters in one relay
// state and can only move up the lattice none < local < stem < fluff
// < block; a stem transaction looping back to its origin is promoted
// to fluff and broadcast.
//
// the pool holds six mutually dependent indices (primary store,
// priority order, key images, timed out memo, parsed cache, input
// check cache).  all of them are private and every mutation runs
// under one lock so the invariants hold at every exit
package txpool
