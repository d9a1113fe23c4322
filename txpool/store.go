// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/storage"
)

// Store - persistent backing for pool entries
//
// records are keyed by transaction id; callers pass the packed entry
// followed by the transaction blob
type Store interface {
	Put(id crypto.Hash, record []byte) error
	Get(id crypto.Hash) []byte
	Delete(id crypto.Hash) error
	ForEach(f func(id crypto.Hash, record []byte) error) error
}

type levelDBStore struct{}

// NewStore - backing store over the shared transactions pool
//
// storage.Initialise must have been called first
func NewStore() Store {
	return levelDBStore{}
}

func (levelDBStore) Put(id crypto.Hash, record []byte) error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Put(storage.Pool.Transactions, id[:], record)
	return trx.Commit()
}

func (levelDBStore) Get(id crypto.Hash) []byte {
	return storage.Pool.Transactions.Get(id[:])
}

func (levelDBStore) Delete(id crypto.Hash) error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Delete(storage.Pool.Transactions, id[:])
	return trx.Commit()
}

func (levelDBStore) ForEach(f func(id crypto.Hash, record []byte) error) error {
	return storage.Pool.Transactions.ForEach(func(key []byte, value []byte) error {
		var id crypto.Hash
		copy(id[:], key)
		return f(id, value)
	})
}
