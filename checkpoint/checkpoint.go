// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package checkpoint - pinned block hashes used as a block
// acceptance gate
//
// a checkpoint binds one block height to one block hash; once
// recorded the binding is immutable.  The store answers three
// questions for the chain logic:
//
// 1. does an incoming block at a checkpointed height carry the
//    pinned hash (CheckBlock)
//
// 2. is a height still covered by the checkpoint table
//    (IsInCheckpointZone)
//
// 3. may an alternative chain branch below the current tip
//    (IsAlternativeBlockAllowed)
//
// the hard-coded table covers mainnet only; further checkpoints are
// merged from a local JSON file and from DNS TXT records
package checkpoint

import (
	"sort"
	"sync"

	"github.com/misterr-labs/Equilibria/chain"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
)

// hard-coded mainnet checkpoints
//
// these pin the early chain across the first six fork boundaries,
// the JSON file and DNS records can only extend this table
var mainnetPoints = []struct {
	height uint64
	hash   string
}{
	{0, "85bb9128c170896673aa1b47f2c7d238f77b6c6f06cd7f25b399747d5015577e"},
	{1, "ed1dd5a452b32bdc13cd11aee5e2485ca69d2a2ae8beb1e28e7da2d30959c799"},
	{8, "5311cf4bd7a02cb267f89bf9e727aeaf27f669468979876fbd42c3f6a2ed0808"},
	{100, "a46c1f2818fe83cb65b6a83dc9c4c50eb7eaa00e6a8acf3716549c220f5815cc"},
	{45000, "e632e631eeb62c94c40c19c9eb5f04d11f634477e9293cde889a4478c85ef16f"},
	{106950, "c00fa5ecd7c2e08f6b88f39a3fd3acc31e9ee5ef2872e0543324d2c58ad2c57c"},
	{181056, "180d0ac84048d1dd57126c38b53c353df90fa73aeb60def9359e21e55b4b2946"},
}

// Point - one checkpoint entry
type Point struct {
	Height uint64
	Hash   crypto.Hash
}

// Store - height to hash checkpoint table
type Store struct {
	sync.RWMutex
	points map[uint64]crypto.Hash
	max    uint64
}

// NewStore - create a checkpoint store seeded with the hard-coded
// table for the given network
//
// testnet and stagenet carry no hard-coded checkpoints
func NewStore(params *netparams.Params) *Store {
	store := &Store{
		points: make(map[uint64]crypto.Hash),
	}

	if chain.Mainnet == params.Name {
		for _, point := range mainnetPoints {
			if err := store.Add(point.height, mustHash(point.hash)); nil != err {
				panic("checkpoint: conflicting hard-coded checkpoint")
			}
		}
	}

	return store
}

// mustHash - decode a hard-coded hex hash constant
func mustHash(hexHash string) crypto.Hash {
	hash, err := crypto.HashFromHexString(hexHash)
	if nil != err {
		panic("checkpoint: invalid hard-coded checkpoint hash")
	}
	return hash
}

// Add - record a checkpoint
//
// re-adding the identical hash at an existing height is allowed, a
// different hash at an existing height is an error
func (store *Store) Add(height uint64, hash crypto.Hash) error {
	store.Lock()
	defer store.Unlock()

	if existing, ok := store.points[height]; ok && existing != hash {
		return fault.ErrCheckpointMismatch
	}

	store.points[height] = hash
	if height > store.max {
		store.max = height
	}
	return nil
}

// AddHex - record a checkpoint supplied as a hex hash string
func (store *Store) AddHex(height uint64, hexHash string) error {
	hash, err := crypto.HashFromHexString(hexHash)
	if nil != err {
		return err
	}
	return store.Add(height, hash)
}

// CheckBlock - test a block hash against the table
//
// returns (passes, isCheckpoint); a height with no checkpoint
// always passes
func (store *Store) CheckBlock(height uint64, hash crypto.Hash) (bool, bool) {
	store.RLock()
	defer store.RUnlock()

	expected, ok := store.points[height]
	if !ok {
		return true, false
	}
	return expected == hash, true
}

// IsInCheckpointZone - true when the height is at or below the
// highest checkpoint
func (store *Store) IsInCheckpointZone(height uint64) bool {
	store.RLock()
	defer store.RUnlock()

	return 0 != len(store.points) && height <= store.max
}

// IsAlternativeBlockAllowed - true when a candidate alternative
// block cannot rewrite checkpointed history
//
// the highest checkpoint at or below the current chain height must
// be strictly below the candidate block height; a candidate at
// height zero is never allowed
func (store *Store) IsAlternativeBlockAllowed(blockchainHeight uint64, blockHeight uint64) bool {
	store.RLock()
	defer store.RUnlock()

	if 0 == blockHeight {
		return false
	}

	found := false
	last := uint64(0)
	for height := range store.points {
		if height <= blockchainHeight && (!found || height > last) {
			found = true
			last = height
		}
	}

	if !found {
		return true
	}
	return last < blockHeight
}

// MaxHeight - highest checkpointed height, zero when the table is
// empty
func (store *Store) MaxHeight() uint64 {
	store.RLock()
	defer store.RUnlock()

	return store.max
}

// Points - copy of the table ordered by ascending height
func (store *Store) Points() []Point {
	store.RLock()
	defer store.RUnlock()

	points := make([]Point, 0, len(store.points))
	for height, hash := range store.points {
		points = append(points, Point{Height: height, Hash: hash})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Height < points[j].Height
	})
	return points
}
