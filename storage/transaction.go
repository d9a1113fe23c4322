// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// Transaction - a scoped batch of writes
//
// Begin reserves the batch, Commit writes it atomically, Abort drops
// it; exactly one of Commit or Abort must run on every exit path
type Transaction interface {
	Begin() error
	Put(*PoolHandle, []byte, []byte)
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) []byte
	Has(*PoolHandle, []byte) bool
	Commit() error
	Abort()
	InUse() bool
}

type transactionData struct {
	access Access
}

func newTransaction(access Access) Transaction {
	return &transactionData{access: access}
}

func (t *transactionData) Begin() error {
	return t.access.Begin()
}

func (t *transactionData) Put(handle *PoolHandle, key []byte, value []byte) {
	handle.put(key, value)
}

func (t *transactionData) Delete(handle *PoolHandle, key []byte) {
	handle.remove(key)
}

func (t *transactionData) Get(handle *PoolHandle, key []byte) []byte {
	return handle.Get(key)
}

func (t *transactionData) Has(handle *PoolHandle, key []byte) bool {
	return handle.Has(key)
}

func (t *transactionData) Commit() error {
	err := t.access.Commit()
	t.access.Abort() // reset the batch whether or not the write succeeded
	return err
}

func (t *transactionData) Abort() {
	t.access.Abort()
}

func (t *transactionData) InUse() bool {
	return t.access.InUse()
}
