// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"encoding/json"
	"strconv"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/transactionrecord"
)

// registrationInfo - validate a registration transaction and build
// the candidate node entry
//
// false whenever the transaction is not a well formed, signed and
// sufficiently funded registration at this height
func (reg *Registry) registrationInfo(tx *transactionrecord.Transaction, blockTimestamp uint64, blockHeight uint64, index uint32) (crypto.PublicKey, *Info, bool) {
	var nodeKey crypto.PublicKey

	fields, err := transactionrecord.ParseExtra(tx.Extra)
	if nil != err {
		return nodeKey, nil, false
	}
	if nil == fields.Registration || nil == fields.ServiceNodePubKey {
		return nodeKey, nil, false
	}
	registration := fields.Registration

	if len(registration.SpendKeys) != len(registration.ViewKeys) {
		return nodeKey, nil, false
	}
	addresses := make([]account.Address, len(registration.SpendKeys))
	for i := range registration.SpendKeys {
		addresses[i] = account.Address{
			SpendKey: registration.SpendKeys[i],
			ViewKey:  registration.ViewKeys[i],
		}
	}

	portions := registration.Portions
	if 0 == len(portions) || len(portions) != len(addresses) {
		return nodeKey, nil, false
	}
	if !CheckPortions(portions, constants.MinPortions) {
		return nodeKey, nil, false
	}
	if registration.OperatorPortions > constants.StakingPortions {
		return nodeKey, nil, false
	}

	nodeKey = *fields.ServiceNodePubKey
	if !crypto.CheckKey(nodeKey) {
		return nodeKey, nil, false
	}
	if err := registration.CheckSignature(nodeKey); nil != err {
		return nodeKey, nil, false
	}

	if registration.ExpirationTimestamp < blockTimestamp {
		return nodeKey, nil, false
	}

	forkVersion := reg.params.ForkVersionAtHeight(blockHeight)
	stakingRequirement := StakingRequirement(reg.params, blockHeight)

	contributor, transferred, ok := reg.contribution(tx, fields, blockHeight)
	if !ok {
		return nodeKey, nil, false
	}

	// the operator's own stake may arrive from an address outside the
	// reserved list, but never past the version one pool limit
	newAddress := 1
	for _, address := range addresses {
		if address.Equal(contributor) {
			newAddress = 0
			break
		}
	}
	if len(addresses)+newAddress > constants.MaxContributorsV1 {
		return nodeKey, nil, false
	}

	if forkVersion < constants.ForkVersionPoolStaking {
		if transferred < stakingRequirement/constants.MaxContributorsV1 {
			return nodeKey, nil, false
		}
	} else {
		// the declared burn must cover the part of the fee withheld
		// from the miner
		burned := fields.BurnedAmount
		totalFee := tx.RctSignatures.TxnFee
		minerFee := totalFee - burned
		burnFee := totalFee - minerFee
		if burned < burnFee {
			return nodeKey, nil, false
		}
		if transferred < constants.MinOperatorStakeV12 {
			return nodeKey, nil, false
		}
	}

	if forkVersion >= constants.ForkVersionPoolStaking && forkVersion < constants.ForkVersionDevFund {
		if transferred > constants.MaxOperatorStakeV12 {
			return nodeKey, nil, false
		}
	}

	info := &Info{
		RegistrationHeight:         blockHeight,
		LastRewardBlockHeight:      blockHeight,
		LastRewardTransactionIndex: index,
		StakingRequirement:         stakingRequirement,
		PortionsForOperator:        registration.OperatorPortions,
		OperatorAddress:            addresses[0],
		SwarmID:                    constants.UnassignedSwarmID,
		Contributors:               make([]Contributor, 0, len(addresses)),
	}

	// reserved slices are carved from the pool cap during the pooled
	// staking era, from the requirement itself before and after
	denominator := stakingRequirement
	if forkVersion >= constants.ForkVersionPoolStaking && forkVersion < constants.ForkVersionDevFund {
		denominator = constants.MaxOperatorStakeV12
	}

	for i, address := range addresses {
		for j := 0; j < i; j += 1 {
			if addresses[j].Equal(address) {
				return nodeKey, nil, false
			}
		}
		reserved := crypto.MulDiv(denominator, portions[i], constants.StakingPortions)
		info.Contributors = append(info.Contributors, Contributor{
			Reserved: reserved,
			Address:  address,
		})
		info.TotalReserved += reserved
	}

	return nodeKey, info, true
}

// processRegistration - apply a registration transaction
//
// the stake lock excess acts as a grace window: a node may register
// again after its lock ran out but before it expired, keeping its
// place in the reward queue
func (reg *Registry) processRegistration(tx *transactionrecord.Transaction, blockTimestamp uint64, blockHeight uint64, index uint32) bool {
	key, info, ok := reg.registrationInfo(tx, blockTimestamp, blockHeight, index)
	if !ok {
		return false
	}

	if existing, ok := reg.infos[key]; ok {
		expiryHeight := existing.RegistrationHeight + reg.params.StakingLockBlocks
		if blockHeight < expiryHeight {
			return false
		}

		info.LastRewardBlockHeight = existing.LastRewardBlockHeight
		info.LastRewardTransactionIndex = existing.LastRewardTransactionIndex
		reg.log.Infof("service node re-registered: %s  height: %d", key, blockHeight)
	} else {
		reg.log.Infof("service node registered: %s  height: %d", key, blockHeight)
	}

	reg.events = append(reg.events, rollbackEvent{
		kind:   eventNew,
		height: blockHeight,
		key:    key,
	})
	reg.infos[key] = info

	return true
}

// contribution - the stake paid to the contributor named in the
// transaction extra, decoded with the disclosed transaction secret
//
// only outputs locked by height for at least the full staking window
// count; false only when the extra lacks the needed fields or no key
// derivation is possible, a zero stake still returns true
func (reg *Registry) contribution(tx *transactionrecord.Transaction, fields *transactionrecord.ExtraFields, unlockHeight uint64) (account.Address, uint64, bool) {
	var address account.Address

	if nil == fields.Contributor || nil == fields.TxSecretKey {
		return address, 0, false
	}
	address = *fields.Contributor

	derivation, err := crypto.GenerateKeyDerivation(address.ViewKey, *fields.TxSecretKey)
	if nil != err {
		return address, 0, false
	}

	transferred := uint64(0)
	for i := range tx.Vout {
		if reg.outputCorrectlyLocked(tx, i, unlockHeight) {
			transferred += stakingOutputAmount(tx, i, derivation)
		}
	}

	return address, transferred, true
}

// outputCorrectlyLocked - an output counts as stake only when locked
// by block height, not timestamp, and for the full staking window
func (reg *Registry) outputCorrectlyLocked(tx *transactionrecord.Transaction, index int, blockHeight uint64) bool {
	unlockTime := tx.OutputUnlockTime(index)
	return unlockTime < constants.MaxBlockNumber && unlockTime >= blockHeight+reg.params.StakingLockBlocks
}

// stakingOutputAmount - decode one output's amount with the shared
// scalar; outputs that are not to a key or cannot decode count zero
func stakingOutputAmount(tx *transactionrecord.Transaction, index int, derivation crypto.KeyDerivation) uint64 {
	if _, ok := tx.Vout[index].Target.(transactionrecord.TxOutToKey); !ok {
		return 0
	}

	switch tx.RctSignatures.Type {
	case transactionrecord.RctTypeSimple,
		transactionrecord.RctTypeBulletproof,
		transactionrecord.RctTypeBulletproof2,
		transactionrecord.RctTypeFull:

		if index >= len(tx.RctSignatures.EcdhAmounts) {
			return 0
		}
		scalar := crypto.OutputSharedScalar(derivation, uint64(index))
		return crypto.EcdhDecodeAmount(tx.RctSignatures.EcdhAmounts[index], scalar)

	default:
		return 0
	}
}

// processContribution - apply a stake contribution to its node
//
// unknown nodes, full pools and undersized or oversized stakes are
// all ignored without touching any state
func (reg *Registry) processContribution(tx *transactionrecord.Transaction, blockHeight uint64, index uint32) {
	fields, err := transactionrecord.ParseExtra(tx.Extra)
	if nil != err || nil == fields.ServiceNodePubKey {
		return
	}
	nodeKey := *fields.ServiceNodePubKey

	info, ok := reg.infos[nodeKey]
	if !ok {
		return
	}

	forkVersion := reg.params.ForkVersionAtHeight(blockHeight)

	// from pooled staking the lock is measured from registration so a
	// late top up stays locked until the node itself expires
	unlockHeight := blockHeight
	if forkVersion >= constants.ForkVersionPoolStaking {
		unlockHeight = info.RegistrationHeight
	}

	address, transferred, ok := reg.contribution(tx, fields, unlockHeight)
	if !ok {
		return
	}

	if info.IsFullyFunded() {
		return
	}

	if forkVersion >= constants.ForkVersionPoolStaking {
		burned := fields.BurnedAmount
		totalFee := tx.RctSignatures.TxnFee
		minerFee := totalFee - burned
		burnFee := totalFee - minerFee

		requiredBurn := uint64(1)
		if forkVersion < constants.ForkVersionMinimalBurn {
			requiredBurn = transferred / 1000
		}

		if burnFee < requiredBurn {
			return
		}
		if burned < totalFee-minerFee {
			return
		}
		if transferred < constants.MinPoolStakeV12 {
			return
		}
	}

	if forkVersion >= constants.ForkVersionPoolStaking && forkVersion < constants.ForkVersionDevFund {
		if transferred > constants.MaxPoolStakeV12 {
			return
		}
	}

	position := -1
	for i := range info.Contributors {
		if info.Contributors[i].Address.Equal(address) {
			position = i
			break
		}
	}
	if -1 == position {
		if len(info.Contributors) >= MaxContributors(forkVersion) ||
			transferred < MinNodeContribution(forkVersion, info.StakingRequirement, info.TotalReserved) {
			return
		}
	}

	reg.pushChange(blockHeight, nodeKey, info)

	if -1 == position {
		info.Contributors = append(info.Contributors, Contributor{Address: address})
		position = len(info.Contributors) - 1
	}
	contributor := &info.Contributors[position]

	stakingRequirement := info.StakingRequirement
	if forkVersion >= constants.ForkVersionPoolStaking && forkVersion < constants.ForkVersionDevFund {
		stakingRequirement = constants.MaxPoolStakeV12
	}

	// total reserved can never overrun the requirement, so cap the
	// accepted amount at the contributor's remaining room
	canIncreaseReservedBy := stakingRequirement - info.TotalReserved
	maxAmount := contributor.Reserved + canIncreaseReservedBy
	if available := maxAmount - contributor.Amount; transferred > available {
		transferred = available
	}

	contributor.Amount += transferred
	info.TotalContributed += transferred

	if contributor.Amount > contributor.Reserved {
		info.TotalReserved += contributor.Amount - contributor.Reserved
		contributor.Reserved = contributor.Amount
	}

	info.LastRewardBlockHeight = blockHeight
	info.LastRewardTransactionIndex = index

	reg.log.Infof("contribution of %d received for service node: %s", transferred, nodeKey)
}

// processSwap - verify a bridge swap transaction's memo
//
// swaps never touch the node table.  the memo must be a JSON object
// naming network, address and amount, with the amount matching the
// transferred sum.  the reference daemon never fills in a contributor
// address for this check, so the derivation here uses the zero view
// key to keep the decoded sum deterministic
func (reg *Registry) processSwap(tx *transactionrecord.Transaction, blockHeight uint64) bool {
	fields, err := transactionrecord.ParseExtra(tx.Extra)
	if nil != err || nil == fields.Memo {
		return false
	}
	if nil == fields.TxSecretKey {
		return false
	}

	derivation, err := crypto.GenerateKeyDerivation(crypto.PublicKey{}, *fields.TxSecretKey)
	if nil != err {
		return false
	}

	transferred := uint64(0)
	for i := range tx.Vout {
		if reg.outputCorrectlyLocked(tx, i, blockHeight) {
			transferred += stakingOutputAmount(tx, i, derivation)
		}
	}

	var memo map[string]json.RawMessage
	if err := json.Unmarshal(fields.Memo, &memo); nil != err {
		reg.log.Debugf("swap memo rejected: %s", err)
		return false
	}
	for _, member := range []string{"network", "address", "amount"} {
		if _, ok := memo[member]; !ok {
			return false
		}
	}

	var amount string
	if err := json.Unmarshal(memo["amount"], &amount); nil != err {
		return false
	}

	return strconv.FormatUint(transferred, 10) == amount
}

// processDeregister - apply a deregistration voted by a quorum
//
// the transaction names a quorum height and an index into that
// quorum's tested nodes; both must resolve to a registered node
func (reg *Registry) processDeregister(tx *transactionrecord.Transaction, blockHeight uint64) bool {
	if !tx.IsDeregister() {
		return false
	}

	fields, err := transactionrecord.ParseExtra(tx.Extra)
	if nil != err || nil == fields.Deregister {
		reg.log.Error("deregister transaction without deregister data")
		return false
	}
	deregister := fields.Deregister

	var testees []crypto.PublicKey
	if state, ok := reg.quorums[deregister.BlockHeight]; ok {
		testees = state.NodesToTest
	}

	if uint64(deregister.ServiceNodeIndex) >= uint64(len(testees)) {
		reg.log.Errorf("deregister index: %d out of range for quorum height: %d", deregister.ServiceNodeIndex, deregister.BlockHeight)
		return false
	}

	key := testees[deregister.ServiceNodeIndex]

	info, ok := reg.infos[key]
	if !ok {
		return false
	}

	reg.log.Infof("service node deregistered: %s  height: %d", key, blockHeight)

	reg.pushChange(blockHeight, key, info)
	delete(reg.infos, key)

	return true
}
