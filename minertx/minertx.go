// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package minertx - build and check the coinbase transaction
//
// the coinbase pays the miner first, then each member of the winning
// service node's pool, then the treasury outputs active at the fork
// version.  every non-miner output is addressed through the
// deterministic height keypair so any observer can re-derive and
// verify the whole transaction from public data
package minertx

import (
	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// Build - construct the coinbase transaction for a block template
//
// winners come from the registry's winner split, operator first;
// winnerKey is the zero key when no node is eligible.  generated is
// the coin total before this block: the deterministic public key is
// only advertised in extra once some coins exist, matching historic
// blocks
func Build(
	params *netparams.Params,
	height uint64,
	forkVersion uint8,
	minerAddress account.Address,
	parts reward.BlockRewardParts,
	winnerKey crypto.PublicKey,
	winners []reward.Winner,
	generated uint64,
	extraNonce []byte,
) (*transactionrecord.Transaction, error) {

	txPub, txSec, err := crypto.RandomKeypair()
	if nil != err {
		return nil, err
	}
	return build(params, height, forkVersion, minerAddress, parts, winnerKey, winners, generated, extraNonce, txPub, txSec)
}

// build - deterministic body of Build, split out so tests can pin the
// transaction key
func build(
	params *netparams.Params,
	height uint64,
	forkVersion uint8,
	minerAddress account.Address,
	parts reward.BlockRewardParts,
	winnerKey crypto.PublicKey,
	winners []reward.Winner,
	generated uint64,
	extraNonce []byte,
	txPub crypto.PublicKey,
	txSec crypto.SecretKey,
) (*transactionrecord.Transaction, error) {

	snPub, snSec := crypto.DeterministicKeypair(height)

	tx := &transactionrecord.Transaction{
		Version: transactionrecord.TxVersion3,
		Type:    transactionrecord.TxTypeStandard,
		Vin: []transactionrecord.TxInput{
			transactionrecord.TxInGen{Height: height},
		},
	}

	appendOutput := func(amount uint64, key crypto.PublicKey, unlockTime uint64) {
		tx.Vout = append(tx.Vout, transactionrecord.TxOutput{
			Amount: amount,
			Target: transactionrecord.TxOutToKey{Key: key},
		})
		tx.OutputUnlockTimes = append(tx.OutputUnlockTimes, unlockTime)
	}

	minerKey, err := oneTimeKey(minerAddress, txSec, 0)
	if nil != err {
		return nil, err
	}
	appendOutput(parts.MinerReward(), minerKey, height+constants.MinedMoneyUnlockWindow)

	if forkVersion >= constants.ForkVersionServiceNode {
		if 0 == len(winners) {
			winners = reward.NullWinner()
		}
		for i, winner := range winners {
			amount := reward.PortionOfReward(winner.Portions, reward.ContributorPart(parts, i, forkVersion))
			key, err := oneTimeKey(winner.Address, snSec, uint64(1+i))
			if nil != err {
				return nil, err
			}
			appendOutput(amount, key, height+constants.MinedMoneyUnlockWindow)
		}
	}

	if forkVersion >= constants.ForkVersionGovernance && parts.Governance > 0 {
		wallet, err := params.GovernanceWalletFor(forkVersion)
		if nil != err {
			return nil, err
		}
		key, err := oneTimeKey(*wallet, snSec, uint64(len(tx.Vout)))
		if nil != err {
			return nil, err
		}
		appendOutput(parts.Governance, key, height+constants.GovernanceUnlockWindow)
	}

	if forkVersion >= constants.ForkVersionDevFund && parts.DevFund > 0 {
		wallet, err := params.DevFundWalletFor(forkVersion)
		if nil != err {
			return nil, err
		}
		key, err := oneTimeKey(*wallet, snSec, uint64(len(tx.Vout)))
		if nil != err {
			return nil, err
		}
		appendOutput(parts.DevFund, key, height+constants.MinedMoneyUnlockWindow)
	}

	extra := &transactionrecord.Extra{}
	extra.AddTxPubKey(txPub)
	if 0 != generated {
		extra.AddServiceNodePubKey(snPub)
	}
	extra.AddWinner(winnerKey)
	if len(extraNonce) > 0 {
		extra.AddNonce(extraNonce)
	}
	tx.Extra = extra.Pack()

	total := uint64(0)
	for _, out := range tx.Vout {
		total += out.Amount
	}
	expected := parts.MinerReward() + parts.ServiceNodePaid + parts.Governance + parts.DevFund
	if total != expected {
		return nil, fault.ErrRewardAmountMismatch
	}

	return tx, nil
}

// oneTimeKey - the one time output key for a wallet at an output index
func oneTimeKey(address account.Address, secret crypto.SecretKey, outputIndex uint64) (crypto.PublicKey, error) {
	derivation, err := crypto.GenerateKeyDerivation(address.ViewKey, secret)
	if nil != err {
		return crypto.PublicKey{}, err
	}
	return crypto.DerivePublicKey(derivation, outputIndex, address.SpendKey)
}

// ValidateGovernanceOutput - check the treasury output of a coinbase
//
// re-derives the expected one time key for the fork version's
// governance wallet and compares amount and key byte for byte
func ValidateGovernanceOutput(params *netparams.Params, tx *transactionrecord.Transaction, voutIndex int, height uint64, forkVersion uint8, amount uint64) error {
	wallet, err := params.GovernanceWalletFor(forkVersion)
	if nil != err {
		return err
	}
	return validateTreasuryOutput(tx, voutIndex, height, *wallet, amount, fault.ErrGovernanceRewardOutput)
}

// ValidateDevFundOutput - check the dev fund output of a coinbase
func ValidateDevFundOutput(params *netparams.Params, tx *transactionrecord.Transaction, voutIndex int, height uint64, forkVersion uint8, amount uint64) error {
	wallet, err := params.DevFundWalletFor(forkVersion)
	if nil != err {
		return err
	}
	return validateTreasuryOutput(tx, voutIndex, height, *wallet, amount, fault.ErrDevFundRewardOutput)
}

func validateTreasuryOutput(tx *transactionrecord.Transaction, voutIndex int, height uint64, wallet account.Address, amount uint64, keyError error) error {
	if voutIndex < 0 || voutIndex >= len(tx.Vout) {
		return fault.ErrInvalidOutput
	}
	if tx.Vout[voutIndex].Amount != amount {
		return fault.ErrRewardAmountMismatch
	}
	target, ok := tx.Vout[voutIndex].Target.(transactionrecord.TxOutToKey)
	if !ok {
		return fault.ErrInvalidOutput
	}

	_, snSec := crypto.DeterministicKeypair(height)
	expected, err := oneTimeKey(wallet, snSec, uint64(voutIndex))
	if nil != err {
		return err
	}
	if target.Key != expected {
		return keyError
	}
	return nil
}
