// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/logger"
)

// PoolHandle - access to one prefix-tagged pool in the database
type PoolHandle struct {
	prefix     byte
	limit      []byte
	dataAccess Access
}

// Element - a binary key/value pair
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// put - store a key/value pair into the pending batch
func (p *PoolHandle) put(key []byte, value []byte) {
	p.dataAccess.Put(p.prefixKey(key), value)
}

// remove - delete a key in the pending batch
func (p *PoolHandle) remove(key []byte) {
	p.dataAccess.Delete(p.prefixKey(key))
}

// Get - read a value for a given key
//
// returns nil if the key is not present
func (p *PoolHandle) Get(key []byte) []byte {
	value, err := p.dataAccess.Get(p.prefixKey(key))
	if leveldb.ErrNotFound == err {
		return nil
	}
	logger.PanicIfError("storage.Get", err)
	return value
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) bool {
	found, err := p.dataAccess.Has(p.prefixKey(key))
	logger.PanicIfError("storage.Has", err)
	return found
}

// searchRange - the key range covering the whole pool
func (p *PoolHandle) searchRange() *ldb_util.Range {
	return &ldb_util.Range{
		Start: []byte{p.prefix},
		Limit: p.limit,
	}
}

// ForEach - call a function with every element in the pool in key
// order
//
// pending uncommitted writes are not visible; the contents of the key
// and value slices must be copied if they are to be preserved
func (p *PoolHandle) ForEach(f func(key []byte, value []byte) error) error {
	iter := p.dataAccess.Iterator(p.searchRange())
	defer iter.Release()

	for iter.Next() {
		if err := f(iter.Key()[1:], iter.Value()); nil != err {
			return err
		}
	}
	return iter.Error()
}

// LastElement - get the element with the highest key in the pool
func (p *PoolHandle) LastElement() (Element, bool) {
	iter := p.dataAccess.Iterator(p.searchRange())
	defer iter.Release()

	if !iter.Last() {
		return Element{}, false
	}

	// slices returned by the iterator are only valid until the next
	// call so must be copied out
	key := iter.Key()
	value := iter.Value()

	dataKey := make([]byte, len(key)-1) // strip the prefix
	copy(dataKey, key[1:])

	dataValue := make([]byte, len(value))
	copy(dataValue, value)

	return Element{Key: dataKey, Value: dataValue}, true
}
