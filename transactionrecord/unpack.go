// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/util"
)

// hard caps on list counts to stop hostile blobs allocating memory
const (
	maxInputs          = 8192
	maxOutputs         = 8192
	maxExtraSize       = 65536
	maxRegistrationKey = 4096
	maxVotes           = 1024
)

// Unpack - turn a byte slice back into a transaction
//
// also returns the number of bytes consumed
func (record Packed) Unpack() (tx *Transaction, n int, e error) {

	// a truncated record trips slice bounds below
	defer func() {
		if r := recover(); nil != r {
			tx = nil
			n = 0
			e = fault.ErrNotTransactionPack
		}
	}()

	version, n := util.FromVarint64(record)
	if 0 == n || version < TxVersion1 || version > TxVersion4 {
		return nil, 0, fault.ErrTransactionVersion
	}

	tx = &Transaction{
		Version: version,
	}

	if version >= TxVersion4 {
		txType, typeLength := util.FromVarint64(record[n:])
		if 0 == typeLength || TxType(txType) >= txTypeCount {
			return nil, 0, fault.ErrNotTransactionPack
		}
		n += typeLength
		tx.Type = TxType(txType)
	}

	unlockTime, unlockLength := util.FromVarint64(record[n:])
	if 0 == unlockLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += unlockLength
	tx.UnlockTime = unlockTime

	if version >= TxVersion3 {
		count, countLength := util.ClippedVarint64(record[n:], 0, maxOutputs)
		if 0 == countLength {
			return nil, 0, fault.ErrNotTransactionPack
		}
		n += countLength
		tx.OutputUnlockTimes = make([]uint64, count)
		for i := 0; i < count; i += 1 {
			value, length := util.FromVarint64(record[n:])
			if 0 == length {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += length
			tx.OutputUnlockTimes[i] = value
		}
	}

	inputCount, countLength := util.ClippedVarint64(record[n:], 0, maxInputs)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength
	tx.Vin = make([]TxInput, inputCount)
	for i := 0; i < inputCount; i += 1 {
		tag := record[n]
		n += 1
		switch tag {
		case txInGenTag:
			height, length := util.FromVarint64(record[n:])
			if 0 == length {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += length
			tx.Vin[i] = TxInGen{Height: height}

		case txInToKeyTag:
			amount, length := util.FromVarint64(record[n:])
			if 0 == length {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += length

			offsetCount, offsetLength := util.ClippedVarint64(record[n:], 0, maxInputs)
			if 0 == offsetLength {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += offsetLength
			offsets := make([]uint64, offsetCount)
			for j := 0; j < offsetCount; j += 1 {
				offset, offsetN := util.FromVarint64(record[n:])
				if 0 == offsetN {
					return nil, 0, fault.ErrNotTransactionPack
				}
				n += offsetN
				offsets[j] = offset
			}

			var keyImage crypto.KeyImage
			copy(keyImage[:], record[n:n+32])
			n += 32

			tx.Vin[i] = TxInToKey{
				Amount:     amount,
				KeyOffsets: offsets,
				KeyImage:   keyImage,
			}

		default:
			return nil, 0, fault.ErrUnsupportedInputType
		}
	}

	outputCount, countLength := util.ClippedVarint64(record[n:], 0, maxOutputs)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength
	tx.Vout = make([]TxOutput, outputCount)
	for i := 0; i < outputCount; i += 1 {
		amount, length := util.FromVarint64(record[n:])
		if 0 == length {
			return nil, 0, fault.ErrNotTransactionPack
		}
		n += length

		if txOutToKeyTag != record[n] {
			return nil, 0, fault.ErrInvalidOutput
		}
		n += 1

		var key crypto.PublicKey
		copy(key[:], record[n:n+32])
		n += 32

		tx.Vout[i] = TxOutput{
			Amount: amount,
			Target: TxOutToKey{Key: key},
		}
	}

	extraSize, extraOffset := util.ClippedVarint64(record[n:], 0, maxExtraSize)
	if 0 == extraOffset {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += extraOffset
	tx.Extra = make([]byte, extraSize)
	copy(tx.Extra, record[n:n+extraSize])
	n += extraSize

	if version >= TxVersion2 {
		rctType := record[n]
		n += 1
		tx.RctSignatures.Type = rctType
		if RctTypeNull != rctType {
			if rctType > RctTypeBulletproof2 {
				return nil, 0, fault.ErrNotTransactionPack
			}
			fee, feeLength := util.FromVarint64(record[n:])
			if 0 == feeLength {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += feeLength
			tx.RctSignatures.TxnFee = fee

			ecdhCount, ecdhLength := util.ClippedVarint64(record[n:], 0, maxOutputs)
			if 0 == ecdhLength {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += ecdhLength
			tx.RctSignatures.EcdhAmounts = make([][8]byte, ecdhCount)
			for i := 0; i < ecdhCount; i += 1 {
				copy(tx.RctSignatures.EcdhAmounts[i][:], record[n:n+8])
				n += 8
			}
		}
	} else {
		// gen inputs carry no ring signatures
		for i := 0; i < inputCount; i += 1 {
			if _, ok := tx.Vin[i].(TxInGen); ok {
				continue
			}
			count, length := util.ClippedVarint64(record[n:], 0, maxInputs)
			if 0 == length {
				return nil, 0, fault.ErrNotTransactionPack
			}
			n += length
			group := make([]crypto.Signature, count)
			for j := 0; j < count; j += 1 {
				copy(group[j][:], record[n:n+64])
				n += 64
			}
			if nil == tx.Signatures {
				tx.Signatures = make([][]crypto.Signature, inputCount)
			}
			tx.Signatures[i] = group
		}
	}

	return tx, n, nil
}

// ParseExtra - decode the fields of an extra blob
//
// unknown tags are skipped by their declared length; a duplicated tag
// keeps its first occurrence; short payloads are an error
func ParseExtra(buffer []byte) (*ExtraFields, error) {
	fields := &ExtraFields{}
	seenBurned := false

	n := 0
	for n < len(buffer) {
		tag := buffer[n]
		n += 1

		// the transaction public key keeps the historic bare form
		if TagTxPubKey == tag {
			if n+32 > len(buffer) {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.TxPubKey {
				key := &crypto.PublicKey{}
				copy(key[:], buffer[n:n+32])
				fields.TxPubKey = key
			}
			n += 32
			continue
		}

		size, offset := util.ClippedVarint64(buffer[n:], 0, maxExtraSize)
		if 0 == offset {
			return nil, fault.ErrInvalidExtraField
		}
		n += offset
		if n+size > len(buffer) {
			return nil, fault.ErrInvalidExtraField
		}
		payload := buffer[n : n+size]
		n += size

		switch tag {

		case TagPadding:
			// zero filler

		case TagNonce:
			if nil == fields.Nonce {
				fields.Nonce = make([]byte, size)
				copy(fields.Nonce, payload)
			}

		case TagAdditionalPubKeys:
			if 0 != size%32 {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.AdditionalPubKeys {
				keys := make([]crypto.PublicKey, size/32)
				for i := range keys {
					copy(keys[i][:], payload[32*i:32*(i+1)])
				}
				fields.AdditionalPubKeys = keys
			}

		case TagRegistration:
			registration, err := unpackRegistration(payload)
			if nil != err {
				return nil, err
			}
			if nil == fields.Registration {
				fields.Registration = registration
			}

		case TagDeregister:
			deregister, err := unpackDeregister(payload)
			if nil != err {
				return nil, err
			}
			if nil == fields.Deregister {
				fields.Deregister = deregister
			}

		case TagWinner:
			if 32 != size {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.Winner {
				key := &crypto.PublicKey{}
				copy(key[:], payload)
				fields.Winner = key
			}

		case TagContributor:
			address, err := account.AddressFromBytes(payload)
			if nil != err {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.Contributor {
				fields.Contributor = address
			}

		case TagServiceNodePubKey:
			if 32 != size {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.ServiceNodePubKey {
				key := &crypto.PublicKey{}
				copy(key[:], payload)
				fields.ServiceNodePubKey = key
			}

		case TagTxSecretKey:
			if 32 != size {
				return nil, fault.ErrInvalidExtraField
			}
			if nil == fields.TxSecretKey {
				key := &crypto.SecretKey{}
				copy(key[:], payload)
				fields.TxSecretKey = key
			}

		case TagBurnedAmount:
			amount, length := util.FromVarint64(payload)
			if 0 == length {
				return nil, fault.ErrInvalidExtraField
			}
			if !seenBurned {
				fields.BurnedAmount = amount
				seenBurned = true
			}

		case TagMemo:
			if nil == fields.Memo {
				fields.Memo = make([]byte, size)
				copy(fields.Memo, payload)
			}

		default:
			// an unknown field from newer software
		}
	}

	return fields, nil
}

func unpackRegistration(payload []byte) (*Registration, error) {

	spendCount, n := util.ClippedVarint64(payload, 0, maxRegistrationKey)
	if 0 == n {
		return nil, fault.ErrInvalidExtraField
	}
	if len(payload) < n+32*spendCount {
		return nil, fault.ErrInvalidExtraField
	}
	spendKeys := make([]crypto.PublicKey, spendCount)
	for i := 0; i < spendCount; i += 1 {
		copy(spendKeys[i][:], payload[n:n+32])
		n += 32
	}

	viewCount, offset := util.ClippedVarint64(payload[n:], 0, maxRegistrationKey)
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset
	if len(payload) < n+32*viewCount {
		return nil, fault.ErrInvalidExtraField
	}
	viewKeys := make([]crypto.PublicKey, viewCount)
	for i := 0; i < viewCount; i += 1 {
		copy(viewKeys[i][:], payload[n:n+32])
		n += 32
	}

	portionCount, offset := util.ClippedVarint64(payload[n:], 0, maxRegistrationKey)
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset
	portions := make([]uint64, portionCount)
	for i := 0; i < portionCount; i += 1 {
		portion, length := util.FromVarint64(payload[n:])
		if 0 == length {
			return nil, fault.ErrInvalidExtraField
		}
		n += length
		portions[i] = portion
	}

	operatorPortions, offset := util.FromVarint64(payload[n:])
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset

	expiration, offset := util.FromVarint64(payload[n:])
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset

	if len(payload) != n+64 {
		return nil, fault.ErrInvalidExtraField
	}
	registration := &Registration{
		SpendKeys:           spendKeys,
		ViewKeys:            viewKeys,
		Portions:            portions,
		OperatorPortions:    operatorPortions,
		ExpirationTimestamp: expiration,
	}
	copy(registration.Signature[:], payload[n:n+64])

	return registration, nil
}

func unpackDeregister(payload []byte) (*Deregister, error) {

	blockHeight, n := util.FromVarint64(payload)
	if 0 == n {
		return nil, fault.ErrInvalidExtraField
	}

	index, offset := util.ClippedVarint64(payload[n:], 0, 0x7fffffff)
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset

	voteCount, offset := util.ClippedVarint64(payload[n:], 0, maxVotes)
	if 0 == offset {
		return nil, fault.ErrInvalidExtraField
	}
	n += offset

	votes := make([]DeregisterVote, voteCount)
	for i := 0; i < voteCount; i += 1 {
		voterIndex, length := util.ClippedVarint64(payload[n:], 0, 0x7fffffff)
		if 0 == length {
			return nil, fault.ErrInvalidExtraField
		}
		n += length
		if len(payload) < n+64 {
			return nil, fault.ErrInvalidExtraField
		}
		votes[i].VoterIndex = uint32(voterIndex)
		copy(votes[i].Signature[:], payload[n:n+64])
		n += 64
	}

	if n != len(payload) {
		return nil, fault.ErrInvalidExtraField
	}

	return &Deregister{
		BlockHeight:      blockHeight,
		ServiceNodeIndex: uint32(index),
		Votes:            votes,
	}, nil
}
