// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/misterr-labs/Equilibria/fault"
)

// byte sizes of the fixed length types
const (
	HashLength          = 32
	KeyLength           = 32
	KeyImageLength      = 32
	KeyDerivationLength = 32
	SignatureLength     = 64
)

// Hash - Keccak-256 digest
//
// stored and displayed in the byte order produced by the hash
type Hash [HashLength]byte

// PublicKey - compressed ed25519 point
type PublicKey [KeyLength]byte

// SecretKey - ed25519 scalar, canonical (reduced) form
type SecretKey [KeyLength]byte

// KeyImage - curve point identifying a spent output
type KeyImage [KeyImageLength]byte

// KeyDerivation - shared point for one-time output addressing
type KeyDerivation [KeyDerivationLength]byte

// Signature - Schnorr signature, scalars c ‖ r
type Signature [SignatureLength]byte

// Keccak256 - digest one or more byte slices with the legacy
// pre-standard Keccak-256
func Keccak256(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var digest Hash
	copy(digest[:], h.Sum(nil))
	return digest
}

// Seed - the first eight bytes of a hash as a little endian integer
//
// used to seed the quorum shuffle and swarm assignment
func (hash Hash) Seed() uint64 {
	return binary.LittleEndian.Uint64(hash[:8])
}

// String - convert a binary hash to hex string for use by the fmt package (for %s)
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// GoString - convert a binary hash to hex string for use by the fmt package (for %#v)
func (hash Hash) GoString() string {
	return "<keccak256:" + hex.EncodeToString(hash[:]) + ">"
}

// MarshalText - convert hash to hex text
func (hash Hash) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(hash)))
	hex.Encode(buffer, hash[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a hash
func (hash *Hash) UnmarshalText(s []byte) error {
	if HashLength != hex.DecodedLen(len(s)) {
		return fault.ErrInvalidKeyLength
	}
	_, err := hex.Decode(hash[:], s)
	return err
}

// HashFromHexString - convert a hex string to a hash
func HashFromHexString(s string) (Hash, error) {
	var hash Hash
	err := hash.UnmarshalText([]byte(s))
	return hash, err
}

// IsZero - true if the hash is all zero bytes
func (hash Hash) IsZero() bool {
	return Hash{} == hash
}

// String - convert a binary public key to hex string for use by the fmt package (for %s)
func (pub PublicKey) String() string {
	return hex.EncodeToString(pub[:])
}

// MarshalText - convert public key to hex text
func (pub PublicKey) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(pub)))
	hex.Encode(buffer, pub[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a public key
func (pub *PublicKey) UnmarshalText(s []byte) error {
	if KeyLength != hex.DecodedLen(len(s)) {
		return fault.ErrInvalidKeyLength
	}
	_, err := hex.Decode(pub[:], s)
	return err
}

// PublicKeyFromHexString - convert a hex string to a public key
func PublicKeyFromHexString(s string) (PublicKey, error) {
	var pub PublicKey
	err := pub.UnmarshalText([]byte(s))
	return pub, err
}

// IsZero - true if the public key is all zero bytes
func (pub PublicKey) IsZero() bool {
	return PublicKey{} == pub
}

// String - convert a binary key image to hex string for use by the fmt package (for %s)
func (ki KeyImage) String() string {
	return hex.EncodeToString(ki[:])
}
