// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/transactionrecord"
	"github.com/misterr-labs/Equilibria/util"
)

func TestExtraPackSortsTags(t *testing.T) {
	pub, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	// added in descending tag order on purpose
	blob := (&transactionrecord.Extra{}).
		AddMemo([]byte(`{"network":"ethereum"}`)).
		AddWinner(pub).
		AddTxPubKey(pub).
		Pack()

	assert.Equal(t, transactionrecord.TagTxPubKey, blob[0], "first tag")

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.NotNil(t, fields.TxPubKey, "tx pub key")
	assert.NotNil(t, fields.Winner, "winner")
	assert.Equal(t, pub, *fields.Winner, "winner key")
	assert.Equal(t, []byte(`{"network":"ethereum"}`), fields.Memo, "memo")
}

func TestExtraUnknownTagSkipped(t *testing.T) {
	pub, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	blob := (&transactionrecord.Extra{}).AddTxPubKey(pub).Pack()

	// splice in an unknown field before the known one
	unknown := append([]byte{0xe0}, util.ToVarint64(3)...)
	unknown = append(unknown, 0xaa, 0xbb, 0xcc)
	blob = append(unknown, blob...)

	// and an opaque key image unlock after it
	blob = append(blob, transactionrecord.TagKeyImageUnlock)
	blob = append(blob, util.ToVarint64(2)...)
	blob = append(blob, 0x01, 0x02)

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.NotNil(t, fields.TxPubKey, "tx pub key")
	assert.Equal(t, pub, *fields.TxPubKey, "key value")
}

func TestExtraTruncatedFieldFails(t *testing.T) {
	pub, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	blob := (&transactionrecord.Extra{}).AddTxPubKey(pub).Pack()

	_, err = transactionrecord.ParseExtra(blob[:len(blob)-5])
	assert.Error(t, err, "truncated payload")

	// declared length runs past the buffer
	bad := append([]byte{transactionrecord.TagNonce}, util.ToVarint64(200)...)
	bad = append(bad, 0x01)
	_, err = transactionrecord.ParseExtra(bad)
	assert.Error(t, err, "overlong length")
}

func TestExtraDuplicateTagKeepsFirst(t *testing.T) {
	first, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	second, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	blob := (&transactionrecord.Extra{}).
		AddWinner(first).
		AddWinner(second).
		Pack()

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.Equal(t, first, *fields.Winner, "first wins")
}

func TestRegistrationRoundTrip(t *testing.T) {
	operatorSpend, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	operatorView, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	stakerSpend, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	stakerView, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	registration := &transactionrecord.Registration{
		SpendKeys:           []crypto.PublicKey{operatorSpend, stakerSpend},
		ViewKeys:            []crypto.PublicKey{operatorView, stakerView},
		Portions:            []uint64{1 << 62, 1 << 61},
		OperatorPortions:    1 << 60,
		ExpirationTimestamp: 1590000000,
	}
	registration.Signature[3] = 0x7f

	blob := (&transactionrecord.Extra{}).AddRegistration(registration).Pack()

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.Equal(t, registration, fields.Registration, "round trip")
}

func TestRegistrationSignature(t *testing.T) {
	nodePub, nodeSec, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	spend, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	registration := &transactionrecord.Registration{
		SpendKeys:           []crypto.PublicKey{spend},
		ViewKeys:            []crypto.PublicKey{spend},
		Portions:            []uint64{1 << 62},
		OperatorPortions:    1 << 62,
		ExpirationTimestamp: 1590000000,
	}

	signature, err := crypto.GenerateSignature(registration.Hash(), nodePub, nodeSec)
	assert.NoError(t, err, "sign")
	registration.Signature = signature

	assert.NoError(t, registration.CheckSignature(nodePub), "valid signature")

	// any signed field change must break the signature
	registration.ExpirationTimestamp += 1
	assert.Error(t, registration.CheckSignature(nodePub), "tampered expiration")
	registration.ExpirationTimestamp -= 1

	registration.Portions[0] -= 1
	assert.Error(t, registration.CheckSignature(nodePub), "tampered portions")
}

func TestDeregisterRoundTrip(t *testing.T) {
	deregister := &transactionrecord.Deregister{
		BlockHeight:      123456,
		ServiceNodeIndex: 3,
		Votes: []transactionrecord.DeregisterVote{
			{VoterIndex: 0},
			{VoterIndex: 4},
			{VoterIndex: 9},
		},
	}
	deregister.Votes[1].Signature[0] = 0x55

	blob := (&transactionrecord.Extra{}).AddDeregister(deregister).Pack()

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.Equal(t, deregister, fields.Deregister, "round trip")

	// the vote digest binds height and index
	other := &transactionrecord.Deregister{BlockHeight: 123456, ServiceNodeIndex: 4}
	assert.NotEqual(t, deregister.Hash(), other.Hash(), "digest binds index")
}

func TestContributorRoundTrip(t *testing.T) {
	spend, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")
	view, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	address := account.Address{SpendKey: spend, ViewKey: view}

	secret := crypto.SecretKey{}
	secret[7] = 0x21

	blob := (&transactionrecord.Extra{}).
		AddContributor(address).
		AddTxSecretKey(secret).
		Pack()

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.NotNil(t, fields.Contributor, "contributor")
	assert.True(t, address.Equal(*fields.Contributor), "address")
	assert.NotNil(t, fields.TxSecretKey, "tx secret key")
	assert.Equal(t, secret, *fields.TxSecretKey, "secret value")
}

func TestServiceNodeFieldsRoundTrip(t *testing.T) {
	nodeKey, _, err := crypto.RandomKeypair()
	assert.NoError(t, err, "keypair")

	blob := (&transactionrecord.Extra{}).
		AddServiceNodePubKey(nodeKey).
		AddBurnedAmount(98765).
		AddNonce([]byte{0xde, 0xad}).
		Pack()

	fields, err := transactionrecord.ParseExtra(blob)
	assert.NoError(t, err, "parse")
	assert.NotNil(t, fields.ServiceNodePubKey, "service node key")
	assert.Equal(t, nodeKey, *fields.ServiceNodePubKey, "key value")
	assert.Equal(t, uint64(98765), fields.BurnedAmount, "burned amount")
	assert.Equal(t, []byte{0xde, 0xad}, fields.Nonce, "nonce")
}

func TestExtraEmptyBlob(t *testing.T) {
	fields, err := transactionrecord.ParseExtra(nil)
	assert.NoError(t, err, "nil blob")
	assert.Nil(t, fields.TxPubKey, "no fields")
	assert.Nil(t, fields.Winner, "no winner")
}
