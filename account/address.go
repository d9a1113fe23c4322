// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"encoding/hex"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// number of bytes in a packed address
const packedAddressLength = 2 * crypto.KeyLength

// Address - the public half of a wallet
//
// a pair of curve points; the spend key receives funds and the view
// key lets the wallet scan outputs addressed to it
type Address struct {
	SpendKey     crypto.PublicKey
	ViewKey      crypto.PublicKey
	IsSubaddress bool
}

// AddressFromHexKeys - assemble an address from hex encoded spend and
// view public keys
func AddressFromHexKeys(spendHex string, viewHex string) (*Address, error) {
	spend, err := crypto.PublicKeyFromHexString(spendHex)
	if nil != err {
		return nil, fault.ErrCannotDecodeAddress
	}
	view, err := crypto.PublicKeyFromHexString(viewHex)
	if nil != err {
		return nil, fault.ErrCannotDecodeAddress
	}
	return &Address{
		SpendKey: spend,
		ViewKey:  view,
	}, nil
}

// Pack - serialise an address as spend key bytes followed by view key
// bytes
//
// the subaddress flag is contextual and not part of the packed form
func (address Address) Pack() []byte {
	buffer := make([]byte, 0, packedAddressLength)
	buffer = append(buffer, address.SpendKey[:]...)
	buffer = append(buffer, address.ViewKey[:]...)
	return buffer
}

// AddressFromBytes - unpack an address packed by Pack
func AddressFromBytes(buffer []byte) (*Address, error) {
	if packedAddressLength != len(buffer) {
		return nil, fault.ErrCannotDecodeAddress
	}
	address := &Address{}
	copy(address.SpendKey[:], buffer[:crypto.KeyLength])
	copy(address.ViewKey[:], buffer[crypto.KeyLength:])
	return address, nil
}

// String - hex of the packed key pair for use by the fmt package (for %s)
func (address Address) String() string {
	return hex.EncodeToString(address.Pack())
}

// Equal - bytewise comparison of the key pair
//
// the subaddress flag does not participate: the flag records how an
// address was presented, not which wallet it designates
func (address Address) Equal(rhs Address) bool {
	return address.SpendKey == rhs.SpendKey && address.ViewKey == rhs.ViewKey
}

// IsZero - true for the null address used as the winner placeholder
func (address Address) IsZero() bool {
	return address.SpendKey.IsZero() && address.ViewKey.IsZero()
}
