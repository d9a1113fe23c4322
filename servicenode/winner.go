// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"math"

	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/reward"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// SelectWinner - the node winning the next block's reward, the zero
// key when no node is eligible
func (reg *Registry) SelectWinner() crypto.PublicKey {
	reg.RLock()
	defer reg.RUnlock()
	return reg.selectWinner()
}

// selectWinner - the eligible node waiting longest; lock must be held
//
// nodes are visited in ascending key order so the result is the same
// on every daemon.  at the pooled staking fork a pool whose operator
// stake has not fully arrived blocks the fully funded path for all
// nodes visited after it
func (reg *Registry) selectWinner() crypto.PublicKey {
	forkVersion := reg.params.ForkVersionAtHeight(reg.height)

	oldestHeight := uint64(math.MaxUint64)
	oldestIndex := uint32(math.MaxUint32)
	var winner crypto.PublicKey
	overPortioned := false

	for _, key := range reg.sortedKeys() {
		info := reg.infos[key]

		if constants.ForkVersionPoolStaking == forkVersion {
			operatorStake := PortionsToAmount(info.PortionsForOperator, info.StakingRequirement)
			if info.TotalContributed < operatorStake {
				overPortioned = true
			}
		}

		if (info.IsValid() && forkVersion > 9) || (info.IsFullyFunded() && !overPortioned) {
			if info.LastRewardBlockHeight < oldestHeight ||
				(info.LastRewardBlockHeight == oldestHeight && info.LastRewardTransactionIndex < oldestIndex) {
				oldestHeight = info.LastRewardBlockHeight
				oldestIndex = info.LastRewardTransactionIndex
				winner = key
			}
		}
	}

	return winner
}

// WinnerPortions - the reward split across the winning node's pool
//
// with no eligible node the whole share goes to the null address
func (reg *Registry) WinnerPortions() []reward.Winner {
	reg.RLock()
	defer reg.RUnlock()
	return reg.winnerPortions()
}

// winnerPortions - split for the current winner; lock must be held
func (reg *Registry) winnerPortions() []reward.Winner {
	winnerKey := reg.selectWinner()
	if winnerKey.IsZero() {
		return reward.NullWinner()
	}

	info := reg.infos[winnerKey]
	forkVersion := reg.params.ForkVersionAtHeight(reg.height)

	winners := make([]reward.Winner, 0, len(info.Contributors))
	for _, contributor := range info.Contributors {
		var portion uint64
		switch {
		case forkVersion < constants.ForkVersionPoolStaking:
			remaining := constants.StakingPortions - info.PortionsForOperator
			portion = crypto.MulDiv(contributor.Amount, remaining, info.StakingRequirement)
			if contributor.Address.Equal(info.OperatorAddress) {
				portion += info.PortionsForOperator
			}

		case forkVersion < constants.ForkVersionDevFund:
			denominator := constants.MaxPoolStakeV12
			if contributor.Address.Equal(info.OperatorAddress) {
				denominator = constants.MaxOperatorStakeV12
			}
			portion = crypto.MulDiv(contributor.Amount, constants.StakingPortions, denominator)

		default:
			portion = crypto.MulDiv(contributor.Amount, constants.StakingPortions, info.StakingRequirement)
		}

		winners = append(winners, reward.Winner{
			Address:  contributor.Address,
			Portions: portion,
		})
	}

	return winners
}

// ValidateMinerTx - check that a miner transaction pays the service
// node share correctly
//
// outputs one and up must pay each pool member its portion of the
// share, locked to the one time key derived from the deterministic
// height keypair; any mismatch fails the whole block
func (reg *Registry) ValidateMinerTx(minerTx *transactionrecord.Transaction, height uint64, forkVersion uint8, parts reward.BlockRewardParts) error {
	reg.RLock()
	defer reg.RUnlock()

	if forkVersion < constants.ForkVersionServiceNode {
		return nil
	}

	total := reward.ServiceNodeRewardFormula(parts.AdjustedBaseReward, forkVersion)

	expectedWinner := reg.selectWinner()
	var blockWinner crypto.PublicKey
	if fields, err := transactionrecord.ParseExtra(minerTx.Extra); nil == err && nil != fields.Winner {
		blockWinner = *fields.Winner
	}
	if blockWinner != expectedWinner {
		reg.log.Errorf("winner mismatch: expected: %s  block has: %s", expectedWinner, blockWinner)
		return fault.ErrInvalidWinner
	}

	winners := reg.winnerPortions()
	if len(minerTx.Vout)-1 < len(winners) {
		reg.log.Errorf("miner transaction has %d outputs for %d reward recipients", len(minerTx.Vout), len(winners))
		return fault.ErrInvalidOutput
	}

	_, derivationSecret := crypto.DeterministicKeypair(height)

	for i, winner := range winners {
		voutIndex := i + 1

		part := total
		if forkVersion >= constants.ForkVersionPoolStaking && forkVersion < constants.ForkVersionDevFund {
			if 0 == i {
				part = parts.OperatorReward
			} else {
				part = parts.StakerReward
			}
		}
		expected := reward.PortionOfReward(winner.Portions, part)

		if minerTx.Vout[voutIndex].Amount != expected {
			reg.log.Errorf("service node reward amount: %d  expected: %d", minerTx.Vout[voutIndex].Amount, expected)
			return fault.ErrRewardAmountMismatch
		}

		target, ok := minerTx.Vout[voutIndex].Target.(transactionrecord.TxOutToKey)
		if !ok {
			reg.log.Errorf("service node reward output %d is not to a key", voutIndex)
			return fault.ErrInvalidOutput
		}

		derivation, err := crypto.GenerateKeyDerivation(winner.Address.ViewKey, derivationSecret)
		if nil != err {
			return err
		}
		outputKey, err := crypto.DerivePublicKey(derivation, uint64(voutIndex), winner.Address.SpendKey)
		if nil != err {
			return err
		}

		if target.Key != outputKey {
			reg.log.Errorf("invalid service node reward output: %d", voutIndex)
			return fault.ErrServiceNodeRewardOutput
		}
	}

	return nil
}
