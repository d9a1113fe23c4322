// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"sort"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/util"
)

// input/output variant tag bytes
const (
	txInGenTag    = byte(0xff)
	txInToKeyTag  = byte(0x02)
	txOutToKeyTag = byte(0x02)
)

// Pack - serialise a transaction
//
// layout: Varint64 version, type (version ≥ 4), unlock time, per-output
// unlock times (version ≥ 3), inputs, outputs, extra, confidential
// payload (version ≥ 2), ring signatures (version 1)
func (tx *Transaction) Pack() (Packed, error) {
	if tx.Version < TxVersion1 || tx.Version > TxVersion4 {
		return nil, fault.ErrTransactionVersion
	}
	if tx.Type >= txTypeCount {
		return nil, fault.ErrNotTransactionPack
	}

	message := Packed(util.ToVarint64(tx.Version))
	if tx.Version >= TxVersion4 {
		message = appendUint64(message, uint64(tx.Type))
	}
	message = appendUint64(message, tx.UnlockTime)
	if tx.Version >= TxVersion3 {
		message = appendUint64(message, uint64(len(tx.OutputUnlockTimes)))
		for _, unlockTime := range tx.OutputUnlockTimes {
			message = appendUint64(message, unlockTime)
		}
	}

	message = appendUint64(message, uint64(len(tx.Vin)))
	for _, input := range tx.Vin {
		switch in := input.(type) {
		case TxInGen:
			message = append(message, txInGenTag)
			message = appendUint64(message, in.Height)
		case TxInToKey:
			message = append(message, txInToKeyTag)
			message = appendUint64(message, in.Amount)
			message = appendUint64(message, uint64(len(in.KeyOffsets)))
			for _, offset := range in.KeyOffsets {
				message = appendUint64(message, offset)
			}
			message = append(message, in.KeyImage[:]...)
		default:
			return nil, fault.ErrUnsupportedInputType
		}
	}

	message = appendUint64(message, uint64(len(tx.Vout)))
	for _, output := range tx.Vout {
		target, ok := output.Target.(TxOutToKey)
		if !ok {
			return nil, fault.ErrInvalidOutput
		}
		message = appendUint64(message, output.Amount)
		message = append(message, txOutToKeyTag)
		message = append(message, target.Key[:]...)
	}

	message = appendBytes(message, tx.Extra)

	if tx.Version >= TxVersion2 {
		message = append(message, tx.RctSignatures.Type)
		if RctTypeNull != tx.RctSignatures.Type {
			message = appendUint64(message, tx.RctSignatures.TxnFee)
			message = appendUint64(message, uint64(len(tx.RctSignatures.EcdhAmounts)))
			for _, amount := range tx.RctSignatures.EcdhAmounts {
				message = append(message, amount[:]...)
			}
		}
	} else {
		// version 1 ring signatures, none for the coinbase gen input
		for i, input := range tx.Vin {
			if _, ok := input.(TxInGen); ok {
				continue
			}
			var group []crypto.Signature
			if i < len(tx.Signatures) {
				group = tx.Signatures[i]
			}
			message = appendUint64(message, uint64(len(group)))
			for _, signature := range group {
				message = append(message, signature[:]...)
			}
		}
	}

	return message, nil
}

// Extra - accumulates extra fields and packs them canonically
//
// Pack emits fields ordered by ascending tag regardless of the order
// they were added in; equal tags keep insertion order
type Extra struct {
	fields []extraField
}

type extraField struct {
	tag     byte
	payload []byte
}

func (extra *Extra) add(tag byte, payload []byte) *Extra {
	extra.fields = append(extra.fields, extraField{tag: tag, payload: payload})
	return extra
}

// AddTxPubKey - the one-time transaction public key
func (extra *Extra) AddTxPubKey(key crypto.PublicKey) *Extra {
	return extra.add(TagTxPubKey, key[:])
}

// AddNonce - an opaque nonce blob, at most 255 bytes
func (extra *Extra) AddNonce(nonce []byte) *Extra {
	if len(nonce) > maxNonceLength {
		nonce = nonce[:maxNonceLength]
	}
	payload := make([]byte, len(nonce))
	copy(payload, nonce)
	return extra.add(TagNonce, payload)
}

// AddAdditionalPubKeys - per-output transaction public keys
func (extra *Extra) AddAdditionalPubKeys(keys []crypto.PublicKey) *Extra {
	payload := make([]byte, 0, 32*len(keys))
	for _, key := range keys {
		payload = append(payload, key[:]...)
	}
	return extra.add(TagAdditionalPubKeys, payload)
}

// AddRegistration - a service node registration
//
// the three lists carry independent counts so length mismatches
// survive the wire for the registry to reject
func (extra *Extra) AddRegistration(registration *Registration) *Extra {
	payload := util.ToVarint64(uint64(len(registration.SpendKeys)))
	for _, key := range registration.SpendKeys {
		payload = append(payload, key[:]...)
	}
	payload = append(payload, util.ToVarint64(uint64(len(registration.ViewKeys)))...)
	for _, key := range registration.ViewKeys {
		payload = append(payload, key[:]...)
	}
	payload = append(payload, util.ToVarint64(uint64(len(registration.Portions)))...)
	for _, portion := range registration.Portions {
		payload = append(payload, util.ToVarint64(portion)...)
	}
	payload = append(payload, util.ToVarint64(registration.OperatorPortions)...)
	payload = append(payload, util.ToVarint64(registration.ExpirationTimestamp)...)
	payload = append(payload, registration.Signature[:]...)
	return extra.add(TagRegistration, payload)
}

// AddDeregister - a quorum-approved removal
func (extra *Extra) AddDeregister(deregister *Deregister) *Extra {
	payload := util.ToVarint64(deregister.BlockHeight)
	payload = append(payload, util.ToVarint64(uint64(deregister.ServiceNodeIndex))...)
	payload = append(payload, util.ToVarint64(uint64(len(deregister.Votes)))...)
	for _, vote := range deregister.Votes {
		payload = append(payload, util.ToVarint64(uint64(vote.VoterIndex))...)
		payload = append(payload, vote.Signature[:]...)
	}
	return extra.add(TagDeregister, payload)
}

// AddWinner - the service node awarded this block's staking reward
func (extra *Extra) AddWinner(key crypto.PublicKey) *Extra {
	return extra.add(TagWinner, key[:])
}

// AddContributor - the address a stake contribution credits
func (extra *Extra) AddContributor(address account.Address) *Extra {
	return extra.add(TagContributor, address.Pack())
}

// AddServiceNodePubKey - the registering service node key
func (extra *Extra) AddServiceNodePubKey(key crypto.PublicKey) *Extra {
	return extra.add(TagServiceNodePubKey, key[:])
}

// AddTxSecretKey - the disclosed transaction secret key that lets the
// registry decode staking amounts
func (extra *Extra) AddTxSecretKey(key crypto.SecretKey) *Extra {
	return extra.add(TagTxSecretKey, key[:])
}

// AddBurnedAmount - atomic units destroyed by this transaction
func (extra *Extra) AddBurnedAmount(amount uint64) *Extra {
	return extra.add(TagBurnedAmount, util.ToVarint64(amount))
}

// AddMemo - an opaque memo document, JSON for bridge swaps
func (extra *Extra) AddMemo(memo []byte) *Extra {
	payload := make([]byte, len(memo))
	copy(payload, memo)
	return extra.add(TagMemo, payload)
}

// Pack - emit the canonical tag-sorted blob
//
// the transaction public key keeps the historic bare form: tag then 32
// key bytes with no length prefix
func (extra *Extra) Pack() []byte {
	fields := make([]extraField, len(extra.fields))
	copy(fields, extra.fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].tag < fields[j].tag
	})

	buffer := []byte{}
	for _, field := range fields {
		buffer = append(buffer, field.tag)
		if TagTxPubKey != field.tag {
			buffer = append(buffer, util.ToVarint64(uint64(len(field.payload)))...)
		}
		buffer = append(buffer, field.payload...)
	}
	return buffer
}

// append bytes to a buffer prefixed by Varint64(length)
func appendBytes(buffer Packed, data []byte) Packed {
	l := util.ToVarint64(uint64(len(data)))
	buffer = append(buffer, l...)
	buffer = append(buffer, data...)
	return buffer
}

// append a Varint64 to a buffer
func appendUint64(buffer Packed, value uint64) Packed {
	valueBytes := util.ToVarint64(value)
	buffer = append(buffer, valueBytes...)
	return buffer
}
