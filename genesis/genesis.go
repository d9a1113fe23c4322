// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis - rebuild the first block of a chain
//
// every chain shares one hard-coded coinbase blob; only the chain
// parameters differ. the blob is consensus data: it must survive
// byte-for-byte, so it is carried as hex and parsed, never rebuilt
// from fields.
package genesis

import (
	"encoding/hex"

	"github.com/misterr-labs/Equilibria/blockrecord"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// MinerTx - parse the genesis coinbase of a chain
func MinerTx(params *netparams.Params) (*transactionrecord.Transaction, error) {
	blob, err := hex.DecodeString(params.GenesisCoinbaseHex)
	if nil != err {
		return nil, fault.ErrInvalidGenesisBlock
	}

	tx, n, err := transactionrecord.Packed(blob).Unpack()
	if nil != err {
		return nil, err
	}
	if n != len(blob) {
		return nil, fault.ErrInvalidGenesisBlock
	}

	// the coinbase must commit to height zero
	if 1 != len(tx.Vin) {
		return nil, fault.ErrInvalidGenesisBlock
	}
	gen, ok := tx.Vin[0].(transactionrecord.TxInGen)
	if !ok || 0 != gen.Height {
		return nil, fault.ErrInvalidGenesisBlock
	}

	return tx, nil
}

// Block - assemble the genesis block of a chain
func Block(params *netparams.Params) (*blockrecord.Block, error) {
	tx, err := MinerTx(params)
	if nil != err {
		return nil, err
	}

	return &blockrecord.Block{
		MajorVersion: constants.CurrentBlockMajorVersion,
		MinorVersion: constants.CurrentBlockMinorVersion,
		Timestamp:    0,
		PrevID:       crypto.Hash{},
		Nonce:        params.GenesisNonce,
		MinerTx:      *tx,
	}, nil
}

// BlockHash - the identity digest of a chain's genesis block
func BlockHash(params *netparams.Params) (crypto.Hash, error) {
	block, err := Block(params)
	if nil != err {
		return crypto.Hash{}, err
	}
	return block.Hash()
}
