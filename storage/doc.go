// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintains a single LevelDB database split into a series of pools,
// each pool being defined by a prefix byte
//
//	Transactions     the memory pool backing store
//	                 key: transaction digest
//	                 value: meta version byte ‖ packed pool entry ‖ transaction blob
//
//	ServiceNodes     the service node registry snapshot
//	                 key: single state key
//	                 value: versioned registry blob
//
//	Properties       database schema markers
//	                 key: property name
//	                 value: property dependent
//
// writes are batched: a Transaction obtained from NewDBTransaction
// collects puts and deletes and nothing reaches the database until
// Commit; Abort drops the batch.  reads see pending writes through a
// short lived cache overlay so a writer observes its own transaction
package storage
