// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// FillBlockTemplate - pick transactions for a new block
//
// iterates the priority order and keeps taking transactions while
// they improve the expected coinbase; before the service node fork
// the classic rule applies instead and filling stops once the block
// grows past the median weight.  returns the chosen ids with their
// cumulative weight and fee
func (pool *Pool) FillBlockTemplate(medianWeight uint64, generated uint64, forkVersion uint8, height uint64, stemMining bool) ([]crypto.Hash, uint64, uint64, error) {
	pool.Lock()
	defer pool.Unlock()

	base := pool.baseReward
	if nil == base {
		base = reward.DefaultBaseReward
	}

	classic := forkVersion < constants.ForkVersionServiceNode
	maxTotalWeight := 2 * medianWeight
	if classic {
		maxTotalWeight = medianWeight * 130 / 100
	}
	if maxTotalWeight > constants.CoinbaseBlobReservedSize {
		maxTotalWeight -= constants.CoinbaseBlobReservedSize
	} else {
		maxTotalWeight = 0
	}

	bestCoinbase := uint64(0)
	if !classic {
		b, err := base(medianWeight, 0, generated, forkVersion, height)
		if nil != err {
			return nil, 0, 0, err
		}
		bestCoinbase = b
	}

	var chosen []crypto.Hash
	totalWeight := uint64(0)
	totalFee := uint64(0)
	spent := make(map[crypto.KeyImage]struct{})

	for node := pool.priority.First(); nil != node; node = node.Next() {
		id := node.Value().(crypto.Hash)
		entry := pool.entries[id]

		if entry.Pruned || entry.DoNotRelay {
			continue
		}
		if entry.RelayMethod < RelayFluff && !stemMining {
			continue
		}

		if classic {
			if totalWeight+entry.Weight > maxTotalWeight {
				continue
			}
			if totalWeight+entry.Weight > medianWeight {
				pool.log.Debugf("fill: total weight %d past median %d, stopping", totalWeight+entry.Weight, medianWeight)
				break
			}
		} else {
			if totalWeight+entry.Weight > maxTotalWeight {
				pool.log.Debugf("fill: skipping %s, would exceed weight cap", id)
				continue
			}

			b, err := base(medianWeight, totalWeight+entry.Weight, generated, forkVersion, height)
			if nil != err {
				return nil, 0, 0, err
			}
			coinbase := b + totalFee + entry.Fee
			if coinbase < bestCoinbase {
				pool.log.Debugf("fill: skipping %s, coinbase %d would drop below %d", id, coinbase, bestCoinbase)
				continue
			}
			bestCoinbase = coinbase
		}

		tx, _, err := pool.transaction(id)
		if nil != err {
			pool.log.Errorf("fill: cannot load tx %s: %s", id, err)
			continue
		}

		if !pool.readyToGo(id, entry, tx, forkVersion) {
			continue
		}

		collides := false
		for _, image := range tx.KeyImages() {
			if _, ok := spent[image]; ok {
				collides = true
				break
			}
		}
		if collides {
			continue
		}
		for _, image := range tx.KeyImages() {
			spent[image] = struct{}{}
		}

		chosen = append(chosen, id)
		totalWeight += entry.Weight
		totalFee += entry.Fee
	}

	return chosen, totalWeight, totalFee, nil
}

// readyToGo - can this transaction enter a block right now
//
// verification results are pinned to the current top block: the meta
// remembers where the inputs last verified or last failed so a chain
// that has not moved costs nothing to recheck, and the per-top cache
// short-circuits repeated calls entirely.  lock must be held
func (pool *Pool) readyToGo(id crypto.Hash, entry *Entry, tx *transactionrecord.Transaction, forkVersion uint8) bool {
	if cached, ok := pool.inputCache.Get(id.String()); ok {
		return cached.(bool)
	}
	ready := pool.checkReady(id, entry, tx, forkVersion)
	pool.inputCache.Set(id.String(), ready, gocache.DefaultExpiration)
	return ready
}

func (pool *Pool) checkReady(id crypto.Hash, entry *Entry, tx *transactionrecord.Transaction, forkVersion uint8) bool {
	zero := crypto.Hash{}
	changed := false
	defer func() {
		if changed {
			pool.update(id, entry)
		}
	}()

	if zero == entry.MaxUsedBlockID {
		height, blockID, err := pool.blockchain.CheckTxInputs(tx)
		if nil != err {
			pool.markFailed(entry)
			changed = true
			return false
		}
		entry.MaxUsedBlockHeight = height
		entry.MaxUsedBlockID = blockID
		changed = true
	} else {
		currentHeight := pool.blockchain.CurrentHeight()
		if entry.MaxUsedBlockHeight >= currentHeight {
			return false
		}
		topID, err := pool.blockchain.BlockIDByHeight(entry.MaxUsedBlockHeight)
		if nil != err || topID != entry.MaxUsedBlockID {
			// the block the inputs verified against is gone
			if pool.failureStillCurrent(entry) {
				return false
			}
			height, blockID, err := pool.blockchain.CheckTxInputs(tx)
			if nil != err {
				pool.markFailed(entry)
				changed = true
				return false
			}
			entry.MaxUsedBlockHeight = height
			entry.MaxUsedBlockID = blockID
			changed = true
		} else if pool.failureStillCurrent(entry) {
			return false
		}
	}

	if pool.blockchain.HaveTxKeyImagesAsSpent(tx.KeyImages()) {
		if !entry.DoubleSpendSeen {
			entry.DoubleSpendSeen = true
			changed = true
		}
		return false
	}

	if entry.IsDeregister {
		lifetime := netparams.DeregisterLifetime(forkVersion)
		currentHeight := pool.blockchain.CurrentHeight()
		if currentHeight > entry.DeregisterHeight &&
			currentHeight-entry.DeregisterHeight > lifetime {
			pool.log.Infof("deregister %s too old: quorum height %d current %d", id, entry.DeregisterHeight, currentHeight)
			pool.markFailed(entry)
			changed = true
			return false
		}
	}

	return true
}

// failureStillCurrent - the recorded failure happened on the chain we
// are still on, no point rechecking
func (pool *Pool) failureStillCurrent(entry *Entry) bool {
	zero := crypto.Hash{}
	if zero == entry.LastFailedID {
		return false
	}
	if entry.LastFailedHeight >= pool.blockchain.CurrentHeight() {
		return false
	}
	blockID, err := pool.blockchain.BlockIDByHeight(entry.LastFailedHeight)
	return nil == err && blockID == entry.LastFailedID
}

func (pool *Pool) markFailed(entry *Entry) {
	currentHeight := pool.blockchain.CurrentHeight()
	if 0 == currentHeight {
		return
	}
	top := currentHeight - 1
	if blockID, err := pool.blockchain.BlockIDByHeight(top); nil == err {
		entry.LastFailedHeight = top
		entry.LastFailedID = blockID
	}
}
