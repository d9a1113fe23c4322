// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/chain"
	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/fault"
)

// Params - all per network values consumed by the consensus packages
//
// treasury wallet pointers are nil where a chain has no published key
// material; selection helpers turn that into ErrWalletNotConfigured
type Params struct {
	Name string

	AddressPrefix    uint64
	IntegratedPrefix uint64
	SubaddressPrefix uint64

	P2PPort uint16
	RPCPort uint16

	NetworkID [16]byte

	GenesisCoinbaseHex string
	GenesisNonce       uint32

	GovernanceForkHeight uint64
	StakingLockBlocks    uint64
	StakingAnchorHeight  uint64

	GovernanceWallet *account.Address
	BridgeWallet     *account.Address
	NewBridgeWallet  *account.Address
	DevFundWallet    *account.Address
	NewGovWallet     *account.Address
	NewDevWallet     *account.Address

	hardForks []HardFork
}

// all chains share one genesis coinbase
const genesisCoinbaseHex = "013c01ff0001ffffff03029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd08807121017767aafcde9be00dcfd098715ebcf7f410daebc582fda69d24a28e9d0bc890d1"

const genesisNonce = uint32(70)

// Mainnet - parameters of the production chain
func Mainnet() *Params {
	return &Params{
		Name:             chain.Mainnet,
		AddressPrefix:    289,
		IntegratedPrefix: 0x629f,
		SubaddressPrefix: 0x59a0,
		P2PPort:          9230,
		RPCPort:          9231,
		NetworkID: [16]byte{
			0x04, 0x1c, 0x2e, 0x4c, 0x6d, 0x4c, 0x12, 0xb3,
			0x16, 0x12, 0x03, 0x2a, 0x8b, 0x03, 0x3c, 0x4b,
		},
		GenesisCoinbaseHex:   genesisCoinbaseHex,
		GenesisNonce:         genesisNonce,
		GovernanceForkHeight: 352846,
		StakingLockBlocks:    20160,
		StakingAnchorHeight:  106950,
		GovernanceWallet:     mainnetGovernanceWallet,
		BridgeWallet:         mainnetBridgeWallet,
		NewBridgeWallet:      mainnetNewBridgeWallet,
		DevFundWallet:        mainnetDevFundWallet,
		NewGovWallet:         mainnetNewGovWallet,
		NewDevWallet:         mainnetNewDevWallet,
		hardForks:            mainnetHardForks,
	}
}

// Testnet - parameters of the public test chain
func Testnet() *Params {
	return &Params{
		Name:             chain.Testnet,
		AddressPrefix:    0x536,
		IntegratedPrefix: 0x5bb8,
		SubaddressPrefix: 0xb6,
		P2PPort:          9330,
		RPCPort:          9331,
		NetworkID: [16]byte{
			0x17, 0x19, 0xf5, 0x67, 0x65, 0x03, 0x42, 0x62,
			0x15, 0x21, 0x01, 0x72, 0x14, 0xa3, 0xa5, 0x14,
		},
		GenesisCoinbaseHex:   genesisCoinbaseHex,
		GenesisNonce:         genesisNonce,
		GovernanceForkHeight: 250,
		StakingLockBlocks:    1440,
		StakingAnchorHeight:  581,
		GovernanceWallet:     testnetGovernanceWallet,
		BridgeWallet:         testnetGovernanceWallet,
		NewBridgeWallet:      testnetNewBridgeWallet,
		hardForks:            testnetHardForks,
	}
}

// Stagenet - parameters of the staging chain
//
// stagenet publishes no treasury wallets and its governance schedule
// pays nothing, so all wallet pointers stay nil
func Stagenet() *Params {
	return &Params{
		Name:             chain.Stagenet,
		AddressPrefix:    289,
		IntegratedPrefix: 289,
		SubaddressPrefix: 289,
		P2PPort:          9430,
		RPCPort:          9531,
		NetworkID: [16]byte{
			0x14, 0x20, 0xf3, 0x71, 0x60, 0x01, 0x30, 0x62,
			0x16, 0x35, 0x02, 0x82, 0x15, 0xa2, 0xa1, 0x14,
		},
		GenesisCoinbaseHex:   genesisCoinbaseHex,
		GenesisNonce:         genesisNonce,
		GovernanceForkHeight: 12000,
		StakingLockBlocks:    20160,
		StakingAnchorHeight:  581,
		hardForks:            stagenetHardForks,
	}
}

// Fakechain - in-memory chain for tests
//
// mainnet data with a thirty block stake lock and a schedule that
// activates version n at height n
func Fakechain() *Params {
	params := Mainnet()
	params.Name = chain.Fakechain
	params.StakingLockBlocks = 30
	params.StakingAnchorHeight = 581
	params.hardForks = fakechainHardForks
	return params
}

// ByName - the parameter set for a chain name
func ByName(name string) (*Params, error) {
	switch name {
	case chain.Mainnet:
		return Mainnet(), nil
	case chain.Testnet:
		return Testnet(), nil
	case chain.Stagenet:
		return Stagenet(), nil
	case chain.Fakechain:
		return Fakechain(), nil
	default:
		return nil, fault.ErrInvalidChain
	}
}

// GovernanceWalletFor - the treasury wallet paid by the governance
// output at a fork version
func (params *Params) GovernanceWalletFor(forkVersion uint8) (*account.Address, error) {
	var wallet *account.Address
	switch {
	case forkVersion < 11:
		wallet = params.GovernanceWallet
	case forkVersion < 14:
		wallet = params.BridgeWallet
	case forkVersion < 19:
		wallet = params.NewBridgeWallet
	default:
		wallet = params.NewGovWallet
	}
	if nil == wallet {
		return nil, fault.ErrWalletNotConfigured
	}
	return wallet, nil
}

// DevFundWalletFor - the wallet paid by the dev fund output at a fork
// version
func (params *Params) DevFundWalletFor(forkVersion uint8) (*account.Address, error) {
	var wallet *account.Address
	if forkVersion < 19 {
		wallet = params.DevFundWallet
	} else {
		wallet = params.NewDevWallet
	}
	if nil == wallet {
		return nil, fault.ErrWalletNotConfigured
	}
	return wallet, nil
}

// DeregisterLifetime - blocks a deregister stays actionable after the
// vote height
func DeregisterLifetime(forkVersion uint8) uint64 {
	if forkVersion >= 9 {
		return constants.DeregisterLifetimeV2
	}
	return constants.DeregisterLifetime
}
