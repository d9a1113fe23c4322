// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"bytes"
	"math"
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/blockrecord"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// rollback log retention, in blocks
const rollbackEventExpirationBlocks = uint64(30)

// chain replay batch size, in blocks
const rescanBatchBlocks = uint64(1000)

// Blockchain - the chain access needed to rebuild the registry
//
// only Init and the rescan after a blocked rollback call these; block
// processing and queries never re-enter the chain.  CurrentHeight is
// the number of blocks on the chain, i.e. the next block's height
type Blockchain interface {
	CurrentHeight() uint64
	BlocksRange(start uint64, count uint64) ([]*blockrecord.Block, error)
	TransactionsByHash(hashes []crypto.Hash) ([]*transactionrecord.Transaction, error)
}

// Entry - one node key with a copy of its state
type Entry struct {
	PubKey crypto.PublicKey
	Info   Info
}

// rollback event kinds
const (
	eventChange  = iota + 1 // restore a previous info
	eventNew                // drop a fresh registration
	eventBarrier            // no further rollback, rescan instead
)

// rollbackEvent - one undo record in the rollback log
type rollbackEvent struct {
	kind   int
	height uint64
	key    crypto.PublicKey
	prior  *Info // eventChange only
}

// Registry - the service node table with its undo log and quorums
//
// height is the next block height the registry expects; BlockAdded
// rejects anything else
type Registry struct {
	sync.RWMutex
	log        *logger.L
	params     *netparams.Params
	blockchain Blockchain
	store      Store
	swarmCalc  SwarmCalc
	infos      map[crypto.PublicKey]*Info
	quorums    map[uint64]*QuorumState
	events     []rollbackEvent
	height     uint64
}

// New - create an empty registry
//
// store may be nil to run without persistence and swarmCalc may be
// nil to leave every node in the unassigned swarm
func New(params *netparams.Params, blockchain Blockchain, store Store, swarmCalc SwarmCalc, log *logger.L) *Registry {
	reg := &Registry{
		log:        log,
		params:     params,
		blockchain: blockchain,
		store:      store,
		swarmCalc:  swarmCalc,
	}
	reg.clear(false)
	return reg
}

// Init - bring the registry in line with the chain
//
// a saved snapshot matching the chain tip is used as is; anything
// else is discarded and the chain is replayed block by block
func (reg *Registry) Init() error {
	reg.Lock()
	defer reg.Unlock()
	return reg.rescan()
}

// rescan - load or replay up to the chain tip; lock must be held
func (reg *Registry) rescan() error {
	currentHeight := reg.blockchain.CurrentHeight()

	if reg.params.ForkVersionAtHeight(currentHeight) < constants.ForkVersionServiceNode {
		reg.clear(true)
		return nil
	}

	loaded := reg.load()
	if loaded && reg.height == currentHeight {
		return nil
	}

	if !loaded || reg.height > currentHeight {
		reg.clear(true)
	}

	reg.log.Infof("rescanning blocks: %d..%d", reg.height, currentHeight)

	for reg.height < currentHeight {
		count := currentHeight - reg.height
		if count > rescanBatchBlocks {
			count = rescanBatchBlocks
		}

		blocks, err := reg.blockchain.BlocksRange(reg.height, count)
		if nil != err {
			return err
		}
		if 0 == len(blocks) {
			return fault.ErrInvalidCount
		}

		for _, block := range blocks {
			txs, err := reg.blockchain.TransactionsByHash(block.TxHashes)
			if nil != err {
				return err
			}
			if err := reg.processBlock(block, txs); nil != err {
				return err
			}
		}
	}

	return nil
}

// BlockAdded - feed one accepted block through the registry
//
// blocks must arrive exactly once and in height order; the updated
// state is saved before returning
func (reg *Registry) BlockAdded(block *blockrecord.Block, txs []*transactionrecord.Transaction) error {
	reg.Lock()
	defer reg.Unlock()

	if err := reg.processBlock(block, txs); nil != err {
		return err
	}
	return reg.save()
}

// BlockchainDetached - unwind state above a height after a reorg
//
// the chain hook fires after the chain storage has rolled back, so
// when the unwind runs into the rollback barrier the registry replays
// the whole chain instead
func (reg *Registry) BlockchainDetached(height uint64) error {
	reg.Lock()
	defer reg.Unlock()

	for n := len(reg.events); n > 0; n = len(reg.events) {
		event := &reg.events[n-1]
		if event.height < height {
			break
		}
		if err := reg.applyRollback(event); nil != err {
			reg.log.Errorf("rollback to height %d: %s", height, err)
			if err := reg.rescan(); nil != err {
				return err
			}
			break
		}
		reg.events = reg.events[:n-1]
	}

	for h := range reg.quorums {
		if h >= height {
			delete(reg.quorums, h)
		}
	}

	reg.height = height

	return reg.save()
}

// applyRollback - undo one event
//
// returns fault.ErrRollbackBarrier when the log cannot unwind any
// further
func (reg *Registry) applyRollback(event *rollbackEvent) error {
	switch event.kind {
	case eventChange:
		reg.infos[event.key] = event.prior
		return nil

	case eventNew:
		if _, ok := reg.infos[event.key]; !ok {
			reg.log.Errorf("rollback of unknown service node: %s", event.key)
			return fault.ErrServiceNodeNotFound
		}
		delete(reg.infos, event.key)
		return nil

	default:
		return fault.ErrRollbackBarrier
	}
}

// processBlock - apply one block to the registry; lock must be held
func (reg *Registry) processBlock(block *blockrecord.Block, txs []*transactionrecord.Transaction) error {
	blockHeight, err := block.Height()
	if nil != err {
		return err
	}

	forkVersion := reg.params.ForkVersionAtHeight(blockHeight)
	if forkVersion < constants.ForkVersionServiceNode {
		return nil
	}

	if reg.height != blockHeight {
		reg.log.Errorf("block out of order: height: %d  expected: %d", blockHeight, reg.height)
		return fault.ErrInvalidBlockHeight
	}
	reg.height += 1

	// cull the rollback log and fence it at the cull height
	cullHeight := blockHeight
	if blockHeight >= rollbackEventExpirationBlocks {
		cullHeight = blockHeight - rollbackEventExpirationBlocks
	}
	drop := 0
	for drop < len(reg.events) && reg.events[drop].height < cullHeight {
		drop += 1
	}
	events := make([]rollbackEvent, 0, len(reg.events)-drop+1)
	events = append(events, rollbackEvent{kind: eventBarrier, height: cullHeight})
	events = append(events, reg.events[drop:]...)
	reg.events = events

	expired := 0
	for _, key := range reg.expiredNodes(blockHeight) {
		reg.log.Infof("service node expired: %s  height: %d", key, blockHeight)
		reg.pushChange(blockHeight, key, reg.infos[key])
		delete(reg.infos, key)
		expired += 1
	}

	// the winner named by the miner transaction drops to the back of
	// the reward queue
	if fields, err := transactionrecord.ParseExtra(block.MinerTx.Extra); nil == err && nil != fields.Winner {
		if info, ok := reg.infos[*fields.Winner]; ok {
			reg.pushChange(blockHeight, *fields.Winner, info)
			info.LastRewardBlockHeight = blockHeight
			info.LastRewardTransactionIndex = math.MaxUint32
		}
	}

	registrations := 0
	deregistrations := 0
	index := uint32(0)
	for _, tx := range txs {
		switch {
		case tx.IsStaking(forkVersion):
			if reg.processRegistration(tx, block.Timestamp, blockHeight, index) {
				registrations += 1
			}
			reg.processContribution(tx, blockHeight, index)

		case tx.IsSwap(forkVersion):
			reg.processSwap(tx, blockHeight)

		case tx.IsDeregister():
			if reg.processDeregister(tx, blockHeight) {
				deregistrations += 1
			}
		}
		index += 1
	}

	blockHash, err := block.Hash()
	if nil != err {
		return err
	}

	if registrations > 0 || deregistrations > 0 || expired > 0 {
		reg.updateSwarms(blockHeight, blockHash)
	}

	// quorum snapshot for this height, then trim heights that have
	// fallen out of the voting window
	lifetime := constants.DeregisterLifetime
	if forkVersion >= 8 {
		lifetime = constants.DeregisterLifetimeV2
	}
	quorumLifetime := 6 * lifetime
	keepFrom := uint64(0)
	if blockHeight >= quorumLifetime {
		keepFrom = blockHeight - quorumLifetime
	}
	reg.snapshotQuorum(blockHeight, blockHash)
	for h := range reg.quorums {
		if h < keepFrom {
			delete(reg.quorums, h)
		}
	}

	return nil
}

// expiredNodes - keys whose stake lock has run out at a height, in
// ascending key order
func (reg *Registry) expiredNodes(blockHeight uint64) []crypto.PublicKey {
	lockBlocks := reg.params.StakingLockBlocks + constants.StakeLockExcessBlocks

	if blockHeight < lockBlocks {
		return nil
	}

	expired := []crypto.PublicKey{}
	for key, info := range reg.infos {
		if blockHeight > info.RegistrationHeight+lockBlocks {
			expired = append(expired, key)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return bytes.Compare(expired[i][:], expired[j][:]) < 0
	})
	return expired
}

// pushChange - record the pre-change state of a node for rollback
func (reg *Registry) pushChange(height uint64, key crypto.PublicKey, info *Info) {
	reg.events = append(reg.events, rollbackEvent{
		kind:   eventChange,
		height: height,
		key:    key,
		prior:  info.Copy(),
	})
}

// clear - drop all state; the height restarts at the staking
// activation height
func (reg *Registry) clear(deleteSaved bool) {
	reg.infos = make(map[crypto.PublicKey]*Info)
	reg.quorums = make(map[uint64]*QuorumState)
	reg.events = nil

	if deleteSaved && nil != reg.store {
		if err := reg.store.ClearState(); nil != err {
			reg.log.Errorf("clear saved state: %s", err)
		}
	}

	height, ok := reg.params.ForkHeight(constants.ForkVersionServiceNode)
	if !ok {
		height = 0
	}
	reg.height = height
}

// Height - the next block height the registry expects
func (reg *Registry) Height() uint64 {
	reg.RLock()
	defer reg.RUnlock()
	return reg.height
}

// IsServiceNode - whether a key belongs to an eligible node
func (reg *Registry) IsServiceNode(key crypto.PublicKey) bool {
	reg.RLock()
	defer reg.RUnlock()

	info, ok := reg.infos[key]
	if !ok {
		return false
	}
	forkVersion := reg.params.ForkVersionAtHeight(reg.height)
	return (info.IsValid() && forkVersion > 9) || info.IsFullyFunded()
}

// Pubkeys - every eligible node key in ascending key order
func (reg *Registry) Pubkeys() []crypto.PublicKey {
	reg.RLock()
	defer reg.RUnlock()
	return reg.eligibleKeys()
}

// eligibleKeys - sorted keys passing the eligibility filter; lock
// must be held
func (reg *Registry) eligibleKeys() []crypto.PublicKey {
	forkVersion := reg.params.ForkVersionAtHeight(reg.height)

	keys := make([]crypto.PublicKey, 0, len(reg.infos))
	for key, info := range reg.infos {
		if (info.IsValid() && forkVersion > 9) || info.IsFullyFunded() {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// sortedKeys - every registered key in ascending key order; lock must
// be held
func (reg *Registry) sortedKeys() []crypto.PublicKey {
	keys := make([]crypto.PublicKey, 0, len(reg.infos))
	for key := range reg.infos {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// ListState - the state of the named nodes, skipping unknown keys, or
// of every node when no keys are given
func (reg *Registry) ListState(keys []crypto.PublicKey) []Entry {
	reg.RLock()
	defer reg.RUnlock()

	if 0 == len(keys) {
		keys = reg.sortedKeys()
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		info, ok := reg.infos[key]
		if !ok {
			continue
		}
		entries = append(entries, Entry{PubKey: key, Info: *info.Copy()})
	}
	return entries
}
