// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"encoding/hex"

	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// TxType - type code for transactions
//
// carried on the wire from version 4, earlier versions are implicitly
// standard
type TxType uint16

// enumerate the possible transaction types
const (
	TxTypeStandard TxType = iota
	TxTypeDeregister
	TxTypeKeyImageUnlock
	TxTypeStake
	TxTypeSwap

	// this item must be last
	txTypeCount
)

// transaction versions
//
// 2 introduced confidential amounts, 3 per-output unlock times and 4
// the type field
const (
	TxVersion1 = uint64(iota + 1)
	TxVersion2
	TxVersion3
	TxVersion4
)

// confidential signature payload kinds
const (
	RctTypeNull = uint8(iota)
	RctTypeFull
	RctTypeSimple
	RctTypeBulletproof
	RctTypeBulletproof2
)

// Packed - packed records are just a byte slice
type Packed []byte

// TxInput - a transaction input variant
type TxInput interface {
	inputTag() byte
}

// TxInGen - the synthetic coinbase input committing to a height
type TxInGen struct {
	Height uint64
}

// TxInToKey - a spend input referencing a ring of prior outputs
type TxInToKey struct {
	Amount     uint64
	KeyOffsets []uint64
	KeyImage   crypto.KeyImage
}

// TxOutTarget - a transaction output target variant
type TxOutTarget interface {
	targetTag() byte
}

// TxOutToKey - a one-time public key output target
type TxOutToKey struct {
	Key crypto.PublicKey
}

// TxOutput - an amount and where it goes
type TxOutput struct {
	Amount uint64
	Target TxOutTarget
}

// RctSignatures - the confidential part of a transaction
//
// only the consensus-relevant fields are kept: the payload kind, the
// unmasked fee and the 8-byte masked amount per output
type RctSignatures struct {
	Type        uint8
	TxnFee      uint64
	EcdhAmounts [][8]byte
}

// Transaction - the unpacked transaction structure
type Transaction struct {
	Version           uint64
	Type              TxType
	UnlockTime        uint64
	OutputUnlockTimes []uint64
	Vin               []TxInput
	Vout              []TxOutput
	Extra             []byte
	RctSignatures     RctSignatures
	Signatures        [][]crypto.Signature
}

func (TxInGen) inputTag() byte     { return txInGenTag }
func (TxInToKey) inputTag() byte   { return txInToKeyTag }
func (TxOutToKey) targetTag() byte { return txOutToKeyTag }

// String - the name of a transaction type
func (txType TxType) String() string {
	switch txType {
	case TxTypeStandard:
		return "standard"
	case TxTypeDeregister:
		return "deregister"
	case TxTypeKeyImageUnlock:
		return "key image unlock"
	case TxTypeStake:
		return "stake"
	case TxTypeSwap:
		return "swap"
	default:
		return "*unknown*"
	}
}

// IsDeregister - true for quorum-approved removal transactions
func (tx *Transaction) IsDeregister() bool {
	return TxTypeDeregister == tx.Type
}

// IsStaking - true when the transaction can carry a registration or a
// stake contribution at a fork version
//
// typed stake transactions only exist from fork 18, before that any
// standard transaction is scanned
func (tx *Transaction) IsStaking(forkVersion uint8) bool {
	if forkVersion >= constants.ForkVersionTypedStakes {
		return TxTypeStake == tx.Type
	}
	return TxTypeStandard == tx.Type
}

// IsSwap - true when the transaction carries a bridge swap memo at a
// fork version
//
// before fork 18 swaps ride standard transactions and are picked up by
// the staking scan instead, so this never matches there
func (tx *Transaction) IsSwap(forkVersion uint8) bool {
	if forkVersion >= constants.ForkVersionTypedStakes {
		return TxTypeSwap == tx.Type
	}
	return false
}

// IsTransfer - true for transactions that move value and therefore owe
// a relay fee
func (tx *Transaction) IsTransfer() bool {
	return TxTypeDeregister != tx.Type && TxTypeKeyImageUnlock != tx.Type
}

// OutputUnlockTime - the effective unlock height of a single output
//
// per-output unlock times exist from version 3, earlier transactions
// share one unlock time
func (tx *Transaction) OutputUnlockTime(index int) uint64 {
	if tx.Version >= TxVersion3 && index < len(tx.OutputUnlockTimes) {
		return tx.OutputUnlockTimes[index]
	}
	return tx.UnlockTime
}

// KeyImages - the key images committed by all spend inputs, in order
func (tx *Transaction) KeyImages() []crypto.KeyImage {
	images := make([]crypto.KeyImage, 0, len(tx.Vin))
	for _, input := range tx.Vin {
		if inToKey, ok := input.(TxInToKey); ok {
			images = append(images, inToKey.KeyImage)
		}
	}
	return images
}

// MinerFee - the fee spendable by the miner
//
// version 1 amounts are implicit in the ring references so the fee is
// not derivable from the record alone; with fee burning active the
// burned amount carried in extra is taken off the top
func (tx *Transaction) MinerFee(burningEnabled bool) (uint64, error) {
	if tx.Version < TxVersion2 {
		return 0, fault.ErrTransactionVersion
	}
	fee := tx.RctSignatures.TxnFee
	if burningEnabled {
		fields, err := ParseExtra(tx.Extra)
		if nil != err {
			return 0, err
		}
		if fields.BurnedAmount > fee {
			return 0, fault.ErrFeeTooLow
		}
		fee -= fields.BurnedAmount
	}
	return fee, nil
}

// Hash - the identifier of a packed transaction
func (record Packed) Hash() crypto.Hash {
	return crypto.Keccak256(record)
}

// Weight - the fee-relevant size of a packed transaction
func (record Packed) Weight() uint64 {
	return uint64(len(record))
}

// MarshalText - convert a packed to its hex JSON form
func (record Packed) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(len(record))
	b := make([]byte, size)
	hex.Encode(b, record)
	return b, nil
}

// UnmarshalText - convert a packed from its hex JSON form
func (record *Packed) UnmarshalText(s []byte) error {
	size := hex.DecodedLen(len(s))
	*record = make([]byte, size)
	_, err := hex.Decode(*record, s)
	return err
}
