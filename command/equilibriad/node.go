// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/binary"

	"github.com/misterr-labs/Equilibria/blockrecord"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/genesis"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/storage"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// properties pool keys maintained by the embedding chain engine
var (
	heightKey      = []byte("height")
	blockIDPrefix  = []byte("B")
	snapshotSubKey = []byte("servicenodes")
)

// node - the chain boundary of a standalone daemon
//
// block data lives with the embedding chain engine; the standalone
// daemon keeps only the height marker and the block ids the engine
// published into the properties pool, enough to restore the pool and
// registry and to answer relay time queries.  a chain that was never
// advanced sits at the genesis block
type node struct {
	params *netparams.Params
}

func newNode(params *netparams.Params) *node {
	return &node{
		params: params,
	}
}

// CurrentHeight - the number of blocks on the chain
func (n *node) CurrentHeight() uint64 {
	marker := storage.Pool.Properties.Get(heightKey)
	if 8 != len(marker) {
		return 1 // genesis only
	}
	return binary.LittleEndian.Uint64(marker)
}

// BlockIDByHeight - the id of the block at a height
func (n *node) BlockIDByHeight(height uint64) (crypto.Hash, error) {
	key := make([]byte, len(blockIDPrefix)+8)
	copy(key, blockIDPrefix)
	binary.LittleEndian.PutUint64(key[len(blockIDPrefix):], height)

	value := storage.Pool.Properties.Get(key)
	if len(value) == crypto.HashLength {
		var id crypto.Hash
		copy(id[:], value)
		return id, nil
	}

	if 0 == height {
		return genesis.BlockHash(n.params)
	}
	return crypto.Hash{}, fault.ErrInvalidBlockHeight
}

// HardForkVersion - the scheduled fork version at a height
func (n *node) HardForkVersion(height uint64) uint8 {
	return n.params.ForkVersionAtHeight(height)
}

// CheckFee - the per byte fee floor
func (n *node) CheckFee(weight uint64, fee uint64) bool {
	return fee >= weight*constants.FeePerByte
}

// CheckTxOutputs - structural output validation
//
// amounts are masked under RingCT so only the target keys can be
// checked here
func (n *node) CheckTxOutputs(tx *transactionrecord.Transaction) error {
	if 0 == len(tx.Vout) {
		return fault.ErrInvalidOutput
	}
	for _, output := range tx.Vout {
		target, ok := output.Target.(transactionrecord.TxOutToKey)
		if !ok {
			return fault.ErrInvalidOutput
		}
		if !crypto.CheckKey(target.Key) {
			return fault.ErrInvalidOutput
		}
	}
	return nil
}

// CheckTxInputs - structural input validation
//
// ring signature verification needs the referenced outputs so it
// belongs to the chain engine; standalone admission checks the input
// shape and pins the transaction to the current top block
func (n *node) CheckTxInputs(tx *transactionrecord.Transaction) (uint64, crypto.Hash, error) {
	if 0 == len(tx.Vin) {
		return 0, crypto.Hash{}, fault.ErrInvalidInput
	}
	for _, input := range tx.Vin {
		inToKey, ok := input.(transactionrecord.TxInToKey)
		if !ok {
			return 0, crypto.Hash{}, fault.ErrUnsupportedInputType
		}
		if 0 == len(inToKey.KeyOffsets) {
			return 0, crypto.Hash{}, fault.ErrInvalidInput
		}
	}

	top := n.CurrentHeight() - 1
	id, err := n.BlockIDByHeight(top)
	if nil != err {
		return 0, crypto.Hash{}, err
	}
	return top, id, nil
}

// HaveTx - is the transaction already on the chain
//
// the chain transaction index lives with the engine; a standalone
// daemon treats every announcement as new
func (n *node) HaveTx(id crypto.Hash) bool {
	return false
}

// HaveTxKeyImagesAsSpent - are any key images spent on the chain
func (n *node) HaveTxKeyImagesAsSpent(images []crypto.KeyImage) bool {
	return false
}

// BlocksRange - blocks for the registry rescan
//
// only called when the chain is past the service node fork, which
// cannot happen without an attached engine
func (n *node) BlocksRange(start uint64, count uint64) ([]*blockrecord.Block, error) {
	return nil, fault.ErrInvalidBlockHeight
}

// TransactionsByHash - transactions for the registry rescan
func (n *node) TransactionsByHash(hashes []crypto.Hash) ([]*transactionrecord.Transaction, error) {
	return nil, fault.ErrTransactionNotFound
}

// snapshotStore - registry persistence over the service nodes pool
type snapshotStore struct{}

func (snapshotStore) SetState(blob []byte) error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Put(storage.Pool.ServiceNodes, snapshotSubKey, blob)
	return trx.Commit()
}

func (snapshotStore) GetState() ([]byte, error) {
	blob := storage.Pool.ServiceNodes.Get(snapshotSubKey)
	if nil == blob {
		return nil, fault.ErrNoSavedState
	}
	return blob, nil
}

func (snapshotStore) ClearState() error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Delete(storage.Pool.ServiceNodes, snapshotSubKey)
	return trx.Commit()
}
