// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"encoding/binary"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/crypto"
)

// extra field tag bytes
//
// every field is encoded as tag, Varint64 payload length, payload;
// unknown tags are skipped over by their length so old software can
// cross new fields
const (
	TagPadding           = byte(0x00)
	TagTxPubKey          = byte(0x01)
	TagNonce             = byte(0x02)
	TagAdditionalPubKeys = byte(0x04)
	TagRegistration      = byte(0x70)
	TagDeregister        = byte(0x71)
	TagWinner            = byte(0x72)
	TagContributor       = byte(0x73)
	TagServiceNodePubKey = byte(0x74)
	TagTxSecretKey       = byte(0x75)
	TagKeyImageUnlock    = byte(0x77)
	TagBurnedAmount      = byte(0x78)
	TagMemo              = byte(0x79)
)

// limit on a single nonce payload
const maxNonceLength = 255

// Registration - service node registration data carried in extra
//
// spend/view key lists run parallel: entry i is the address of
// participant i, entry 0 being the operator
type Registration struct {
	SpendKeys           []crypto.PublicKey
	ViewKeys            []crypto.PublicKey
	Portions            []uint64
	OperatorPortions    uint64
	ExpirationTimestamp uint64
	Signature           crypto.Signature
}

// DeregisterVote - a single quorum member's vote
type DeregisterVote struct {
	VoterIndex uint32
	Signature  crypto.Signature
}

// Deregister - quorum-approved removal carried in extra
//
// BlockHeight names the quorum snapshot and ServiceNodeIndex selects
// the testee inside that snapshot's nodes_to_test list
type Deregister struct {
	BlockHeight      uint64
	ServiceNodeIndex uint32
	Votes            []DeregisterVote
}

// ExtraFields - the decoded view of a transaction extra blob
//
// pointers are nil when the field is absent; a duplicated tag keeps
// its first occurrence
type ExtraFields struct {
	TxPubKey          *crypto.PublicKey
	AdditionalPubKeys []crypto.PublicKey
	Nonce             []byte
	Registration      *Registration
	Deregister        *Deregister
	Contributor       *account.Address
	ServiceNodePubKey *crypto.PublicKey
	Winner            *crypto.PublicKey
	TxSecretKey       *crypto.SecretKey
	BurnedAmount      uint64
	Memo              []byte
}

// Hash - the digest signed by the registering service node key
//
// layout: spend||view per participant, then operator portions, each
// portion and the expiration timestamp as little-endian 64 bit words
func (registration *Registration) Hash() crypto.Hash {
	buffer := make([]byte, 0, 64*len(registration.SpendKeys)+8*(2+len(registration.Portions)))

	for i, spend := range registration.SpendKeys {
		buffer = append(buffer, spend[:]...)
		if i < len(registration.ViewKeys) {
			buffer = append(buffer, registration.ViewKeys[i][:]...)
		}
	}
	buffer = appendLE64(buffer, registration.OperatorPortions)
	for _, portion := range registration.Portions {
		buffer = appendLE64(buffer, portion)
	}
	buffer = appendLE64(buffer, registration.ExpirationTimestamp)

	return crypto.Keccak256(buffer)
}

// CheckSignature - verify the registration under a service node key
func (registration *Registration) CheckSignature(pubkey crypto.PublicKey) error {
	return crypto.CheckSignature(registration.Hash(), pubkey, registration.Signature)
}

// Hash - the digest quorum members vote on
func (deregister *Deregister) Hash() crypto.Hash {
	buffer := make([]byte, 12)
	binary.LittleEndian.PutUint64(buffer[0:8], deregister.BlockHeight)
	binary.LittleEndian.PutUint32(buffer[8:12], deregister.ServiceNodeIndex)
	return crypto.Keccak256(buffer)
}

func appendLE64(buffer []byte, value uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return append(buffer, b[:]...)
}
