// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// RelayMethod - how a pool transaction may be propagated
type RelayMethod uint8

// the upgrade lattice: a transaction can only move towards block
const (
	RelayNone RelayMethod = iota
	RelayLocal
	RelayStem
	RelayFluff
	RelayBlock
)

// String - name of a relay method
func (method RelayMethod) String() string {
	switch method {
	case RelayNone:
		return "none"
	case RelayLocal:
		return "local"
	case RelayStem:
		return "stem"
	case RelayFluff:
		return "fluff"
	case RelayBlock:
		return "block"
	default:
		return "*unknown*"
	}
}

// Entry - the metadata kept per pool transaction
//
// DeregisterHeight and DeregisterIndex are copied out of the
// transaction extra at admission so duplicate checks and staleness
// checks do not have to re-parse the blob
type Entry struct {
	Weight             uint64
	Fee                uint64
	MaxUsedBlockHeight uint64
	MaxUsedBlockID     crypto.Hash
	LastFailedHeight   uint64
	LastFailedID       crypto.Hash
	ReceiveTime        int64
	LastRelayedTime    int64
	KeptByBlock        bool
	Relayed            bool
	DoNotRelay         bool
	DoubleSpendSeen    bool
	Pruned             bool
	IsDeregister       bool
	RelayMethod        RelayMethod
	DeregisterHeight   uint64
	DeregisterIndex    uint32
}

// UpgradeRelayMethod - move up the lattice, never down
//
// returns true when the method changed
func (entry *Entry) UpgradeRelayMethod(method RelayMethod) bool {
	if method > entry.RelayMethod {
		entry.RelayMethod = method
		return true
	}
	return false
}

// IsSensitive - true while the transaction has not been broadcast
//
// sensitive transactions are hidden from public introspection so a
// passive observer cannot map the stem path
func (entry *Entry) IsSensitive() bool {
	return entry.RelayMethod < RelayFluff || entry.DoNotRelay
}

// FeePerByte - the priority component of the sort key
func (entry *Entry) FeePerByte() float64 {
	if 0 == entry.Weight {
		return 0
	}
	return float64(entry.Fee) / float64(entry.Weight)
}

// persisted meta layout version
const entryBlobVersion = byte(0x01)

// size of a packed entry, including the version byte
const packedEntrySize = 1 + 8 + 8 + 8 + crypto.HashLength + 8 + crypto.HashLength + 8 + 8 + 1 + 1 + 8 + 4

// flag bits of the packed form
const (
	flagKeptByBlock = 1 << iota
	flagRelayed
	flagDoNotRelay
	flagDoubleSpendSeen
	flagPruned
	flagIsDeregister
)

// Pack - serialise an entry for the backing store
func (entry *Entry) Pack() []byte {
	buffer := make([]byte, 0, packedEntrySize)
	buffer = append(buffer, entryBlobVersion)
	buffer = appendUint64(buffer, entry.Weight)
	buffer = appendUint64(buffer, entry.Fee)
	buffer = appendUint64(buffer, entry.MaxUsedBlockHeight)
	buffer = append(buffer, entry.MaxUsedBlockID[:]...)
	buffer = appendUint64(buffer, entry.LastFailedHeight)
	buffer = append(buffer, entry.LastFailedID[:]...)
	buffer = appendUint64(buffer, uint64(entry.ReceiveTime))
	buffer = appendUint64(buffer, uint64(entry.LastRelayedTime))

	flags := byte(0)
	if entry.KeptByBlock {
		flags |= flagKeptByBlock
	}
	if entry.Relayed {
		flags |= flagRelayed
	}
	if entry.DoNotRelay {
		flags |= flagDoNotRelay
	}
	if entry.DoubleSpendSeen {
		flags |= flagDoubleSpendSeen
	}
	if entry.Pruned {
		flags |= flagPruned
	}
	if entry.IsDeregister {
		flags |= flagIsDeregister
	}
	buffer = append(buffer, flags)
	buffer = append(buffer, byte(entry.RelayMethod))
	buffer = appendUint64(buffer, entry.DeregisterHeight)

	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], entry.DeregisterIndex)
	buffer = append(buffer, scratch[:]...)

	return buffer
}

// UnpackEntry - split a stored record into its entry and the
// transaction blob that follows it
func UnpackEntry(record []byte) (*Entry, []byte, error) {
	if len(record) < packedEntrySize || entryBlobVersion != record[0] {
		return nil, nil, fault.ErrStorageCorruption
	}

	entry := &Entry{}
	offset := 1

	u64 := func() uint64 {
		v := binary.LittleEndian.Uint64(record[offset:])
		offset += 8
		return v
	}
	hash := func() crypto.Hash {
		var h crypto.Hash
		copy(h[:], record[offset:])
		offset += crypto.HashLength
		return h
	}

	entry.Weight = u64()
	entry.Fee = u64()
	entry.MaxUsedBlockHeight = u64()
	entry.MaxUsedBlockID = hash()
	entry.LastFailedHeight = u64()
	entry.LastFailedID = hash()
	entry.ReceiveTime = int64(u64())
	entry.LastRelayedTime = int64(u64())

	flags := record[offset]
	offset += 1
	entry.KeptByBlock = 0 != flags&flagKeptByBlock
	entry.Relayed = 0 != flags&flagRelayed
	entry.DoNotRelay = 0 != flags&flagDoNotRelay
	entry.DoubleSpendSeen = 0 != flags&flagDoubleSpendSeen
	entry.Pruned = 0 != flags&flagPruned
	entry.IsDeregister = 0 != flags&flagIsDeregister

	entry.RelayMethod = RelayMethod(record[offset])
	offset += 1
	if entry.RelayMethod > RelayBlock {
		return nil, nil, fault.ErrStorageCorruption
	}

	entry.DeregisterHeight = u64()
	entry.DeregisterIndex = binary.LittleEndian.Uint32(record[offset:])
	offset += 4

	return entry, record[offset:], nil
}

func appendUint64(buffer []byte, value uint64) []byte {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], value)
	return append(buffer, scratch[:]...)
}

// sortKey - priority index key
//
// the tree iterates deregistrations first, then the highest fee per
// byte, then the earliest receive time; the digest breaks exact ties
type sortKey struct {
	isDeregister bool
	feePerByte   float64
	receiveTime  int64
	id           crypto.Hash
}

func makeSortKey(entry *Entry, id crypto.Hash) sortKey {
	return sortKey{
		isDeregister: entry.IsDeregister,
		feePerByte:   entry.FeePerByte(),
		receiveTime:  entry.ReceiveTime,
		id:           id,
	}
}

// Compare - avl ordering, best transaction first
func (key sortKey) Compare(x interface{}) int {
	rhs := x.(sortKey)

	if key.isDeregister != rhs.isDeregister {
		if key.isDeregister {
			return -1
		}
		return 1
	}
	if key.feePerByte != rhs.feePerByte {
		// NaN cannot occur: weight is never zero for a stored tx
		if key.feePerByte > rhs.feePerByte || math.IsNaN(rhs.feePerByte) {
			return -1
		}
		return 1
	}
	if key.receiveTime != rhs.receiveTime {
		if key.receiveTime < rhs.receiveTime {
			return -1
		}
		return 1
	}
	return bytes.Compare(key.id[:], rhs.id[:])
}
