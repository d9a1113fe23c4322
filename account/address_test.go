// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/misterr-labs/Equilibria/account"
)

const (
	spendHex = "76e314ce01cff1dc61ada4792685e11c287773966b4fc9b0c7ec781b559b5d60"
	viewHex  = "87fb85b765002c9138913a03d66089ab3d6dfb742384395cc9c5ba59e9338865"
)

func TestAddressFromHexKeys(t *testing.T) {
	address, err := account.AddressFromHexKeys(spendHex, viewHex)
	assert.Nil(t, err, "valid keys rejected")
	assert.Equal(t, spendHex, address.SpendKey.String(), "wrong spend key")
	assert.Equal(t, viewHex, address.ViewKey.String(), "wrong view key")
	assert.False(t, address.IsSubaddress, "unexpected subaddress flag")
}

func TestAddressFromHexKeysRejectsBadInput(t *testing.T) {
	_, err := account.AddressFromHexKeys("short", viewHex)
	assert.NotNil(t, err, "short spend key accepted")

	_, err = account.AddressFromHexKeys(spendHex, "zz"+viewHex[2:])
	assert.NotNil(t, err, "non-hex view key accepted")
}

func TestAddressPackUnpack(t *testing.T) {
	address, err := account.AddressFromHexKeys(spendHex, viewHex)
	assert.Nil(t, err, "valid keys rejected")

	packed := address.Pack()
	assert.Equal(t, 64, len(packed), "wrong packed length")

	unpacked, err := account.AddressFromBytes(packed)
	assert.Nil(t, err, "cannot unpack address")
	assert.True(t, address.Equal(*unpacked), "round trip mismatch")

	_, err = account.AddressFromBytes(packed[:63])
	assert.NotNil(t, err, "truncated buffer accepted")
}

func TestAddressEqualIgnoresSubaddressFlag(t *testing.T) {
	a, err := account.AddressFromHexKeys(spendHex, viewHex)
	assert.Nil(t, err, "valid keys rejected")

	b := *a
	b.IsSubaddress = true
	assert.True(t, a.Equal(b), "subaddress flag must not affect equality")
}

func TestZeroAddress(t *testing.T) {
	zero := account.Address{}
	assert.True(t, zero.IsZero(), "zero address not recognised")

	a, _ := account.AddressFromHexKeys(spendHex, viewHex)
	assert.False(t, a.IsZero(), "real address reported zero")
}
