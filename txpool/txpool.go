// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	gocache "github.com/patrickmn/go-cache"

	"github.com/misterr-labs/Equilibria/avl"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// injectable clock, overridden by tests
var clock = time.Now

// lifetimes of the volatile caches
const (
	parsedCacheExpiry = 5 * time.Minute
	inputCacheExpiry  = 2 * time.Minute
	cacheSweepPeriod  = 10 * time.Minute
)

// Blockchain - the chain access the pool depends on
//
// CurrentHeight is the number of blocks on the chain, i.e. the next
// block's height.  all calls happen while the pool lock is held, so
// implementations must never call back into the pool
type Blockchain interface {
	CurrentHeight() uint64
	BlockIDByHeight(height uint64) (crypto.Hash, error)
	HardForkVersion(height uint64) uint8
	CheckFee(weight uint64, fee uint64) bool
	CheckTxOutputs(tx *transactionrecord.Transaction) error
	CheckTxInputs(tx *transactionrecord.Transaction) (uint64, crypto.Hash, error)
	HaveTx(id crypto.Hash) bool
	HaveTxKeyImagesAsSpent(images []crypto.KeyImage) bool
}

// deregisterKey - the uniqueness key of a pool deregistration
type deregisterKey struct {
	height uint64
	index  uint32
}

// Pool - the transaction memory pool
//
// entries is the primary index; priority, keyImages, deregisters and
// timedOut are derived from it and every mutation keeps all of them
// consistent before the lock is released
type Pool struct {
	sync.RWMutex
	log        *logger.L
	params     *netparams.Params
	blockchain Blockchain
	store      Store
	baseReward reward.BaseReward

	entries     map[crypto.Hash]*Entry
	priority    *avl.Tree // sortKey -> crypto.Hash
	keyImages   map[crypto.KeyImage]map[crypto.Hash]struct{}
	deregisters map[deregisterKey]map[crypto.Hash]struct{}
	timedOut    map[crypto.Hash]struct{}

	parsedCache *gocache.Cache // id hex -> *transactionrecord.Transaction
	inputCache  *gocache.Cache // id hex -> input check passed at current top

	totalWeight uint64
	maxWeight   uint64
}

// New - create an empty pool
//
// the store holds every accepted transaction so the pool survives a
// restart; base may be nil to use the built in emission curve and
// maxWeight zero selects the default
func New(params *netparams.Params, blockchain Blockchain, store Store, base reward.BaseReward, maxWeight uint64, log *logger.L) *Pool {
	if 0 == maxWeight {
		maxWeight = constants.DefaultTxPoolMaxWeight
	}
	return &Pool{
		log:         log,
		params:      params,
		blockchain:  blockchain,
		store:       store,
		baseReward:  base,
		entries:     make(map[crypto.Hash]*Entry),
		priority:    avl.New(),
		keyImages:   make(map[crypto.KeyImage]map[crypto.Hash]struct{}),
		deregisters: make(map[deregisterKey]map[crypto.Hash]struct{}),
		timedOut:    make(map[crypto.Hash]struct{}),
		parsedCache: gocache.New(parsedCacheExpiry, cacheSweepPeriod),
		inputCache:  gocache.New(inputCacheExpiry, cacheSweepPeriod),
		maxWeight:   maxWeight,
	}
}

// Init - rebuild the in-memory indices from the backing store
//
// runs two passes so transactions seen on the wire claim their key
// images first and block-carried duplicates never evict them; records
// that fail to decode are dropped from the store
func (pool *Pool) Init() error {
	if nil == pool.store {
		return nil
	}

	pool.Lock()
	defer pool.Unlock()

	type loaded struct {
		id    crypto.Hash
		entry *Entry
		blob  transactionrecord.Packed
	}

	records := make([]loaded, 0, 16)
	var corrupt []crypto.Hash

	err := pool.store.ForEach(func(id crypto.Hash, record []byte) error {
		entry, blob, err := UnpackEntry(record)
		if nil != err {
			pool.log.Errorf("init: dropping undecodable pool record: %s", id)
			corrupt = append(corrupt, id)
			return nil
		}
		b := make(transactionrecord.Packed, len(blob))
		copy(b, blob)
		records = append(records, loaded{id: id, entry: entry, blob: b})
		return nil
	})
	if nil != err {
		return err
	}

	for _, id := range corrupt {
		if err := pool.store.Delete(id); nil != err {
			return err
		}
	}

	for pass := 0; pass < 2; pass += 1 {
		keptPass := 1 == pass
		for _, r := range records {
			if r.entry.KeptByBlock != keptPass {
				continue
			}
			tx, _, err := r.blob.Unpack()
			if nil != err {
				pool.log.Errorf("init: dropping unparsable pool tx: %s", r.id)
				if err := pool.store.Delete(r.id); nil != err {
					return err
				}
				continue
			}

			// wire-received entries give way to duplicates already
			// claimed in pass one; kept-by-block ones always enter
			if !keptPass && pool.conflicts(tx, r.entry, r.id) {
				pool.log.Warnf("init: dropping conflicting pool tx: %s", r.id)
				if err := pool.store.Delete(r.id); nil != err {
					return err
				}
				continue
			}

			pool.attach(r.id, r.entry, tx)
			pool.parsedCache.Set(r.id.String(), tx, gocache.DefaultExpiration)
		}
	}

	return nil
}

// AddTx - admit one transaction to the pool
//
// keptByBlock marks transactions carried by an alternative block:
// they bypass the timed-out memo, the fee check and the double-spend
// exclusion, and an input check failure stores them anyway for a
// later retry
func (pool *Pool) AddTx(blob transactionrecord.Packed, method RelayMethod, keptByBlock bool, forkVersion uint8) (VerifyContext, error) {
	tvc := VerifyContext{}
	id := blob.Hash()
	weight := blob.Weight()

	tx, _, err := blob.Unpack()
	if nil != err {
		tvc.VerificationFailed = true
		return tvc, err
	}

	if 0 == tx.Version {
		tvc.VerificationFailed = true
		return tvc, fault.ErrTransactionVersion
	}

	pool.Lock()
	defer pool.Unlock()

	if !keptByBlock {
		if _, ok := pool.timedOut[id]; ok {
			tvc.VerificationFailed = true
			return tvc, fault.ErrPreviouslyTimedOut
		}
	}

	// merge path for a transaction already pooled
	if existing, ok := pool.entries[id]; ok {
		upgraded := pool.mergeRelay(existing, id, method)
		tvc.ShouldBeRelayed = upgraded && existing.RelayMethod >= RelayFluff
		return tvc, nil
	}

	// every input must be a ring spend; only a deregister, which
	// carries its authority in extra, may have none at all
	images := tx.KeyImages()
	if len(images) != len(tx.Vin) || (0 == len(tx.Vin) && !tx.IsDeregister()) {
		tvc.VerificationFailed = true
		return tvc, fault.ErrUnsupportedInputType
	}

	fee, err := tx.MinerFee(forkVersion >= constants.ForkVersionFeeBurning)
	if nil != err {
		tvc.VerificationFailed = true
		return tvc, err
	}

	if !keptByBlock && tx.IsTransfer() && !pool.blockchain.CheckFee(weight, fee) {
		tvc.VerificationFailed = true
		tvc.FeeTooLow = true
		return tvc, fault.ErrFeeTooLow
	}

	if weight > weightLimit(forkVersion) {
		tvc.VerificationFailed = true
		tvc.TooBig = true
		return tvc, fault.ErrTransactionTooBig
	}

	entry := &Entry{
		Weight:       weight,
		Fee:          fee,
		ReceiveTime:  clock().Unix(),
		KeptByBlock:  keptByBlock,
		IsDeregister: tx.IsDeregister(),
		RelayMethod:  method,
	}
	entry.LastRelayedTime = entry.ReceiveTime

	if entry.IsDeregister {
		fields, err := transactionrecord.ParseExtra(tx.Extra)
		if nil != err {
			tvc.VerificationFailed = true
			return tvc, err
		}
		if nil == fields.Deregister {
			tvc.VerificationFailed = true
			return tvc, fault.ErrInvalidExtraField
		}
		entry.DeregisterHeight = fields.Deregister.BlockHeight
		entry.DeregisterIndex = fields.Deregister.ServiceNodeIndex
	}

	if !keptByBlock && pool.conflicts(tx, entry, id) {
		tvc.VerificationFailed = true
		tvc.DoubleSpend = true
		if entry.IsDeregister {
			return tvc, fault.ErrDuplicateDeregister
		}
		return tvc, fault.ErrDoubleSpend
	}

	if err := pool.blockchain.CheckTxOutputs(tx); nil != err {
		tvc.VerificationFailed = true
		tvc.InvalidOutput = true
		return tvc, err
	}

	maxUsedHeight, maxUsedID, err := pool.blockchain.CheckTxInputs(tx)
	if nil != err {
		if !keptByBlock {
			tvc.VerificationFailed = true
			tvc.InvalidInput = true
			return tvc, err
		}
		// an alternative chain may validate it later
		tvc.VerificationImpossible = true
		entry.MaxUsedBlockHeight = 0
		entry.MaxUsedBlockID = crypto.Hash{}
	} else {
		entry.MaxUsedBlockHeight = maxUsedHeight
		entry.MaxUsedBlockID = maxUsedID
	}

	pool.attach(id, entry, tx)
	pool.parsedCache.Set(id.String(), tx, gocache.DefaultExpiration)

	if err := pool.persist(id, entry, blob); nil != err {
		pool.detach(id, entry, tx)
		tvc.VerificationFailed = true
		return tvc, err
	}

	tvc.AddedToPool = true
	tvc.ShouldBeRelayed = method >= RelayFluff && fee > 0 && !entry.IsDeregister

	if pool.totalWeight > pool.maxWeight {
		pool.prune(pool.maxWeight)
	}

	return tvc, nil
}

// TakeTx - remove a transaction, returning it for block inclusion
func (pool *Pool) TakeTx(id crypto.Hash) (*transactionrecord.Transaction, transactionrecord.Packed, *Entry, error) {
	pool.Lock()
	defer pool.Unlock()

	entry, ok := pool.entries[id]
	if !ok {
		return nil, nil, nil, fault.ErrTransactionNotFound
	}

	tx, blob, err := pool.transaction(id)
	if nil != err {
		return nil, nil, nil, err
	}

	pool.detach(id, entry, tx)
	if nil != pool.store {
		if err := pool.store.Delete(id); nil != err {
			return nil, nil, nil, err
		}
	}
	return tx, blob, entry, nil
}

// HaveTx - check for a transaction without touching it
func (pool *Pool) HaveTx(id crypto.Hash) bool {
	pool.RLock()
	defer pool.RUnlock()
	_, ok := pool.entries[id]
	return ok
}

// GetTransaction - the stored blob of one pool transaction
func (pool *Pool) GetTransaction(id crypto.Hash) (transactionrecord.Packed, error) {
	pool.RLock()
	defer pool.RUnlock()

	if _, ok := pool.entries[id]; !ok {
		return nil, fault.ErrTransactionNotFound
	}
	_, blob, err := pool.transaction(id)
	return blob, err
}

// HaveTxKeyImageAsSpent - would this key image double-spend against
// the pool
//
// a single holder that is the asking transaction itself only counts
// once it has been broadcast, so re-admission of an fluffed tx still
// sees its own images as spent
func (pool *Pool) HaveTxKeyImageAsSpent(image crypto.KeyImage, id crypto.Hash) bool {
	pool.RLock()
	defer pool.RUnlock()

	holders, ok := pool.keyImages[image]
	if !ok {
		return false
	}
	for holder := range holders {
		if holder != id {
			return true
		}
		if entry, ok := pool.entries[holder]; ok && entry.RelayMethod >= RelayFluff && !entry.DoNotRelay {
			return true
		}
	}
	return false
}

// Prune - evict until the pool weight is within its cap
func (pool *Pool) Prune() {
	pool.Lock()
	defer pool.Unlock()
	pool.prune(pool.maxWeight)
}

// prune - evict from the low-priority end; lock must be held
//
// kept-by-block entries are skipped and the scan stops cold at the
// first standard transaction or still-fresh deregistration, so in
// practice only stale deregistrations are ever evicted
func (pool *Pool) prune(limit uint64) {
	now := clock().Unix()

pruning:
	for pool.totalWeight > limit {
		for node := pool.priority.Last(); nil != node; node = node.Prev() {
			id := node.Value().(crypto.Hash)
			entry := pool.entries[id]
			if entry.KeptByBlock {
				continue
			}
			if !entry.IsDeregister ||
				now-entry.ReceiveTime <= int64(constants.MempoolPruneDeregisterLifetime/time.Second) {
				// the worst evictable entry is still wanted
				break pruning
			}

			pool.log.Infof("pruning stale deregister: %s", id)
			pool.removeLocked(id, entry)
			continue pruning
		}
		break pruning
	}

	if pool.totalWeight > limit {
		pool.log.Warnf("pool weight %d still above limit %d after pruning", pool.totalWeight, limit)
	}
}

// RemoveStuckTransactions - sweep out transactions past their livetime
//
// swept ids join the timed-out memo so a later re-broadcast of the
// same transaction is refused
func (pool *Pool) RemoveStuckTransactions() int {
	pool.Lock()
	defer pool.Unlock()

	now := clock().Unix()
	var stuck []crypto.Hash

	for id, entry := range pool.entries {
		age := time.Duration(now-entry.ReceiveTime) * time.Second
		remove := false
		switch {
		case entry.IsDeregister && age > constants.MempoolPruneDeregisterLifetime:
			remove = true
		case entry.KeptByBlock && age > constants.MempoolTxFromAltBlockLivetime:
			remove = true
		case !entry.KeptByBlock && age > constants.MempoolTxLivetime:
			remove = true
		}
		if remove {
			stuck = append(stuck, id)
		}
	}

	for _, id := range stuck {
		entry := pool.entries[id]
		pool.log.Infof("removing stuck tx: %s age: %ds", id, now-entry.ReceiveTime)
		pool.removeLocked(id, entry)
		pool.timedOut[id] = struct{}{}
	}

	return len(stuck)
}

// Validate - reconcile the pool against the chain at a fork version
//
// rebuilds the weight tally and drops transactions that are now over
// the admission weight limit or already included in a block; returns
// the number removed
func (pool *Pool) Validate(forkVersion uint8) int {
	pool.Lock()
	defer pool.Unlock()

	limit := weightLimit(forkVersion)
	total := uint64(0)
	var drop []crypto.Hash

	for id, entry := range pool.entries {
		if !entry.KeptByBlock && entry.Weight > limit {
			pool.log.Warnf("dropping pool tx over weight limit: %s weight: %d", id, entry.Weight)
			drop = append(drop, id)
			continue
		}
		if pool.blockchain.HaveTx(id) {
			pool.log.Infof("dropping pool tx already in chain: %s", id)
			drop = append(drop, id)
			continue
		}
		total += entry.Weight
	}

	for _, id := range drop {
		pool.removeLocked(id, pool.entries[id])
	}
	pool.totalWeight = total

	return len(drop)
}

// OnBlockchainInc - a block was added to the chain
func (pool *Pool) OnBlockchainInc(height uint64, id crypto.Hash) {
	pool.Lock()
	defer pool.Unlock()
	pool.inputCache.Flush()
	pool.parsedCache.Flush()
}

// OnBlockchainDec - a block was popped from the chain
func (pool *Pool) OnBlockchainDec(height uint64, id crypto.Hash) {
	pool.Lock()
	defer pool.Unlock()
	pool.inputCache.Flush()
	pool.parsedCache.Flush()
}

// weightLimit - the largest admissible transaction at a fork version
func weightLimit(forkVersion uint8) uint64 {
	limit := reward.MinBlockWeight(forkVersion)
	if forkVersion >= 8 {
		limit /= 2
	}
	return limit - constants.CoinbaseBlobReservedSize
}

// conflicts - would this entry double-spend against the pool; lock
// must be held
func (pool *Pool) conflicts(tx *transactionrecord.Transaction, entry *Entry, id crypto.Hash) bool {
	for _, image := range tx.KeyImages() {
		if holders, ok := pool.keyImages[image]; ok {
			if _, self := holders[id]; !self && len(holders) > 0 {
				return true
			}
		}
	}
	if entry.IsDeregister {
		key := deregisterKey{height: entry.DeregisterHeight, index: entry.DeregisterIndex}
		if holders, ok := pool.deregisters[key]; ok {
			if _, self := holders[id]; !self && len(holders) > 0 {
				return true
			}
		}
	}
	return false
}

// attach - link an entry into every index; lock must be held
func (pool *Pool) attach(id crypto.Hash, entry *Entry, tx *transactionrecord.Transaction) {
	pool.entries[id] = entry
	pool.priority.Insert(makeSortKey(entry, id), id)

	for _, image := range tx.KeyImages() {
		holders, ok := pool.keyImages[image]
		if !ok {
			holders = make(map[crypto.Hash]struct{})
			pool.keyImages[image] = holders
		}
		holders[id] = struct{}{}
	}

	if entry.IsDeregister {
		key := deregisterKey{height: entry.DeregisterHeight, index: entry.DeregisterIndex}
		holders, ok := pool.deregisters[key]
		if !ok {
			holders = make(map[crypto.Hash]struct{})
			pool.deregisters[key] = holders
		}
		holders[id] = struct{}{}
	}

	pool.totalWeight += entry.Weight
}

// detach - unlink an entry from every index; lock must be held
func (pool *Pool) detach(id crypto.Hash, entry *Entry, tx *transactionrecord.Transaction) {
	delete(pool.entries, id)
	pool.priority.Delete(makeSortKey(entry, id))

	for _, image := range tx.KeyImages() {
		if holders, ok := pool.keyImages[image]; ok {
			delete(holders, id)
			if 0 == len(holders) {
				delete(pool.keyImages, image)
			}
		}
	}

	if entry.IsDeregister {
		key := deregisterKey{height: entry.DeregisterHeight, index: entry.DeregisterIndex}
		if holders, ok := pool.deregisters[key]; ok {
			delete(holders, id)
			if 0 == len(holders) {
				delete(pool.deregisters, key)
			}
		}
	}

	pool.totalWeight -= entry.Weight
	pool.parsedCache.Delete(id.String())
	pool.inputCache.Delete(id.String())
}

// removeLocked - detach and erase from the store; lock must be held
func (pool *Pool) removeLocked(id crypto.Hash, entry *Entry) {
	tx, _, err := pool.transaction(id)
	if nil != err {
		// blob is gone, still drop the indexable parts
		pool.log.Errorf("remove: cannot load tx %s: %s", id, err)
		delete(pool.entries, id)
		pool.priority.Delete(makeSortKey(entry, id))
		pool.totalWeight -= entry.Weight
	} else {
		pool.detach(id, entry, tx)
	}
	if nil != pool.store {
		if err := pool.store.Delete(id); nil != err {
			pool.log.Errorf("remove: cannot erase tx %s: %s", id, err)
		}
	}
}

// mergeRelay - lattice merge for a duplicate admission; lock must be
// held
//
// a stem transaction coming back to a node that already holds it in
// stem state has looped the stem path, so it is promoted to fluff and
// broadcast instead of circling forever
func (pool *Pool) mergeRelay(entry *Entry, id crypto.Hash, method RelayMethod) bool {
	if RelayStem == method && RelayStem == entry.RelayMethod {
		method = RelayFluff
		pool.log.Debugf("stem loopback, fluffing: %s", id)
	}
	if !entry.UpgradeRelayMethod(method) {
		return false
	}
	pool.update(id, entry)
	return true
}

// transaction - parse a pooled transaction, through the cache; lock
// must be held at least for reading
func (pool *Pool) transaction(id crypto.Hash) (*transactionrecord.Transaction, transactionrecord.Packed, error) {
	if nil == pool.store {
		return nil, nil, fault.ErrNotInitialised
	}

	record := pool.store.Get(id)
	if nil == record {
		return nil, nil, fault.ErrTransactionNotFound
	}
	_, blob, err := UnpackEntry(record)
	if nil != err {
		return nil, nil, err
	}

	if cached, ok := pool.parsedCache.Get(id.String()); ok {
		return cached.(*transactionrecord.Transaction), blob, nil
	}
	tx, _, err := transactionrecord.Packed(blob).Unpack()
	if nil != err {
		return nil, nil, err
	}
	pool.parsedCache.Set(id.String(), tx, gocache.DefaultExpiration)
	return tx, blob, nil
}

// persist - write an entry and its blob; lock must be held
func (pool *Pool) persist(id crypto.Hash, entry *Entry, blob transactionrecord.Packed) error {
	if nil == pool.store {
		return nil
	}
	record := entry.Pack()
	record = append(record, blob...)
	return pool.store.Put(id, record)
}

// update - rewrite the stored meta keeping the blob; lock must be
// held
func (pool *Pool) update(id crypto.Hash, entry *Entry) {
	if nil == pool.store {
		return
	}
	record := pool.store.Get(id)
	if nil == record {
		pool.log.Errorf("update: missing stored record: %s", id)
		return
	}
	_, blob, err := UnpackEntry(record)
	if nil != err {
		pool.log.Errorf("update: corrupt stored record: %s", id)
		return
	}
	if err := pool.persist(id, entry, blob); nil != err {
		pool.log.Errorf("update: cannot rewrite record %s: %s", id, err)
	}
}
