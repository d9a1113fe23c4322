// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"encoding/binary"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/transactionrecord"
	"github.com/misterr-labs/Equilibria/util"
)

// PackedBlock - packed blocks are just a byte slice
type PackedBlock []byte

// maximum transactions in a block
const MaximumTransactions = 0x10000000

// nonce is a fixed-width little-endian field so miners can overwrite
// it in place
const nonceSize = 4

// Block - the unpacked block structure
//
// the coinbase is embedded whole, other transactions appear as hashes
type Block struct {
	MajorVersion uint8                         `json:"majorVersion"`
	MinorVersion uint8                         `json:"minorVersion"`
	Timestamp    uint64                        `json:"timestamp"`
	PrevID       crypto.Hash                   `json:"prevId"`
	Nonce        uint32                        `json:"nonce"`
	MinerTx      transactionrecord.Transaction `json:"minerTx"`
	TxHashes     []crypto.Hash                 `json:"txHashes"`
}

// Height - the height committed by the coinbase gen input
func (block *Block) Height() (uint64, error) {
	if 0 == len(block.MinerTx.Vin) {
		return 0, fault.ErrInvalidBlockHeight
	}
	gen, ok := block.MinerTx.Vin[0].(transactionrecord.TxInGen)
	if !ok {
		return 0, fault.ErrInvalidBlockHeight
	}
	return gen.Height, nil
}

// Pack - serialise a block
//
// layout: Varint64 major and minor version, timestamp, 32-byte
// previous id, 4-byte little-endian nonce, the packed coinbase, then
// the transaction hash list
func (block *Block) Pack() (PackedBlock, error) {

	minerTx, err := block.MinerTx.Pack()
	if nil != err {
		return nil, err
	}

	message := PackedBlock(util.ToVarint64(uint64(block.MajorVersion)))
	message = append(message, util.ToVarint64(uint64(block.MinorVersion))...)
	message = append(message, util.ToVarint64(block.Timestamp)...)
	message = append(message, block.PrevID[:]...)

	var nonce [nonceSize]byte
	binary.LittleEndian.PutUint32(nonce[:], block.Nonce)
	message = append(message, nonce[:]...)

	message = append(message, minerTx...)

	message = append(message, util.ToVarint64(uint64(len(block.TxHashes)))...)
	for _, hash := range block.TxHashes {
		message = append(message, hash[:]...)
	}

	return message, nil
}

// Unpack - turn a byte slice back into a block
//
// the whole buffer must be consumed
func (record PackedBlock) Unpack() (block *Block, e error) {

	// a truncated record trips slice bounds below
	defer func() {
		if r := recover(); nil != r {
			block = nil
			e = fault.ErrCannotDecodeRecord
		}
	}()

	major, n := util.FromVarint64(record)
	if 0 == n {
		return nil, fault.ErrCannotDecodeRecord
	}

	minor, offset := util.FromVarint64(record[n:])
	if 0 == offset {
		return nil, fault.ErrCannotDecodeRecord
	}
	n += offset

	timestamp, offset := util.FromVarint64(record[n:])
	if 0 == offset {
		return nil, fault.ErrCannotDecodeRecord
	}
	n += offset

	block = &Block{
		MajorVersion: uint8(major),
		MinorVersion: uint8(minor),
		Timestamp:    timestamp,
	}

	copy(block.PrevID[:], record[n:n+32])
	n += 32

	block.Nonce = binary.LittleEndian.Uint32(record[n : n+nonceSize])
	n += nonceSize

	minerTx, used, err := transactionrecord.Packed(record[n:]).Unpack()
	if nil != err {
		return nil, err
	}
	n += used
	block.MinerTx = *minerTx

	count, offset := util.ClippedVarint64(record[n:], 0, MaximumTransactions)
	if 0 == offset {
		return nil, fault.ErrCannotDecodeRecord
	}
	n += offset
	if 0 != count {
		block.TxHashes = make([]crypto.Hash, count)
		for i := 0; i < count; i += 1 {
			copy(block.TxHashes[i][:], record[n:n+32])
			n += 32
		}
	}

	if n != len(record) {
		return nil, fault.ErrCannotDecodeRecord
	}

	return block, nil
}

// Hash - the identifier of a packed block
func (record PackedBlock) Hash() crypto.Hash {
	return crypto.Keccak256(record)
}

// Hash - pack and digest in one step
func (block *Block) Hash() (crypto.Hash, error) {
	packed, err := block.Pack()
	if nil != err {
		return crypto.Hash{}, err
	}
	return packed.Hash(), nil
}
