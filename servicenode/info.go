// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"github.com/misterr-labs/Equilibria/account"
)

// Contributor - one staker in a node's pool
//
// Amount is what has arrived on chain so far, Reserved is the slice
// of the staking requirement promised to this address when the node
// registered
type Contributor struct {
	Amount   uint64
	Reserved uint64
	Address  account.Address
}

// Info - the full state of one registered service node
//
// LastRewardBlockHeight and LastRewardTransactionIndex order the
// reward queue: the eligible node with the smallest pair wins the
// next block
type Info struct {
	RegistrationHeight         uint64
	LastRewardBlockHeight      uint64
	LastRewardTransactionIndex uint32
	Contributors               []Contributor
	TotalContributed           uint64
	TotalReserved              uint64
	StakingRequirement         uint64
	PortionsForOperator        uint64
	OperatorAddress            account.Address
	SwarmID                    uint64
}

// IsValid - every reserved slice is backed by arrived coins
func (info *Info) IsValid() bool {
	return info.TotalContributed >= info.TotalReserved
}

// IsFullyFunded - the whole staking requirement has arrived
func (info *Info) IsFullyFunded() bool {
	return info.TotalContributed >= info.StakingRequirement
}

// Copy - deep copy for the rollback log
func (info *Info) Copy() *Info {
	duplicate := *info
	duplicate.Contributors = make([]Contributor, len(info.Contributors))
	copy(duplicate.Contributors, info.Contributors)
	return &duplicate
}
