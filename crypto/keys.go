// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/rand"
	"encoding/binary"

	"filippo.io/edwards25519"

	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/util"
)

// the cofactor as a scalar, for clearing small torsion components
var scalarEight = mustScalar([]byte{
	0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
})

func mustScalar(b []byte) *edwards25519.Scalar {
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(b)
	if nil != err {
		panic("crypto: invalid scalar constant")
	}
	return s
}

// reduce a 32 byte little endian value modulo the group order
func reduce32(b [KeyLength]byte) *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:KeyLength], b[:])
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if nil != err {
		panic("crypto: reduce32 failed") // only on wrong buffer size
	}
	return s
}

// hashToScalar - Keccak-256 over the chunks, reduced to a scalar
func hashToScalar(data ...[]byte) *edwards25519.Scalar {
	return reduce32(Keccak256(data...))
}

// scalar of a canonical secret key
func scalarFromSecret(sec SecretKey) (*edwards25519.Scalar, error) {
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(sec[:])
	if nil != err {
		return nil, fault.ErrInvalidKeyLength
	}
	return s, nil
}

// CheckKey - true if the bytes decode to a point on the curve
func CheckKey(pub PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pub[:])
	return nil == err
}

// KeypairFromSecret - recover a keypair from arbitrary 32 bytes
//
// the input is reduced modulo the group order to give the secret
// scalar and the public key is its base point multiple
func KeypairFromSecret(seed [KeyLength]byte) (PublicKey, SecretKey) {
	s := reduce32(seed)

	var sec SecretKey
	copy(sec[:], s.Bytes())

	var pub PublicKey
	copy(pub[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())

	return pub, sec
}

// DeterministicKeypair - the per-height keypair
//
// the secret scalar is seeded with the eight little endian bytes of
// the height, zero padded to 32 bytes, then reduced; the public half
// is embedded in the coinbase so receivers can detect governance and
// staking payouts without a shared secret
func DeterministicKeypair(height uint64) (PublicKey, SecretKey) {
	var seed [KeyLength]byte
	binary.LittleEndian.PutUint64(seed[:8], height)
	return KeypairFromSecret(seed)
}

// RandomKeypair - a fresh keypair from the system entropy source
func RandomKeypair() (PublicKey, SecretKey, error) {
	var seed [KeyLength]byte
	_, err := rand.Read(seed[:])
	if nil != err {
		return PublicKey{}, SecretKey{}, err
	}
	pub, sec := KeypairFromSecret(seed)
	return pub, sec, nil
}

// GenerateKeyDerivation - shared point 8·(sec·pub)
//
// symmetric: derivation(A.pub, B.sec) == derivation(B.pub, A.sec)
func GenerateKeyDerivation(pub PublicKey, sec SecretKey) (KeyDerivation, error) {
	var derivation KeyDerivation

	p, err := new(edwards25519.Point).SetBytes(pub[:])
	if nil != err {
		return derivation, fault.ErrInvalidPublicKey
	}

	s, err := scalarFromSecret(sec)
	if nil != err {
		return derivation, err
	}

	p.ScalarMult(s, p)
	p.ScalarMult(scalarEight, p)

	copy(derivation[:], p.Bytes())
	return derivation, nil
}

// derivationToScalar - H_s(derivation ‖ varint(outputIndex))
func derivationToScalar(derivation KeyDerivation, outputIndex uint64) *edwards25519.Scalar {
	return hashToScalar(derivation[:], util.ToVarint64(outputIndex))
}

// DerivePublicKey - one-time output key H_s(derivation‖i)·G + base
func DerivePublicKey(derivation KeyDerivation, outputIndex uint64, base PublicKey) (PublicKey, error) {
	var result PublicKey

	b, err := new(edwards25519.Point).SetBytes(base[:])
	if nil != err {
		return result, fault.ErrInvalidPublicKey
	}

	s := derivationToScalar(derivation, outputIndex)
	p := new(edwards25519.Point).ScalarBaseMult(s)
	p.Add(p, b)

	copy(result[:], p.Bytes())
	return result, nil
}

// GenerateSignature - Schnorr signature (c, r) over hash by the keypair
func GenerateSignature(hash Hash, pub PublicKey, sec SecretKey) (Signature, error) {
	var sig Signature

	s, err := scalarFromSecret(sec)
	if nil != err {
		return sig, err
	}

	var kSeed [KeyLength]byte
	_, err = rand.Read(kSeed[:])
	if nil != err {
		return sig, err
	}
	k := reduce32(kSeed)

	comm := new(edwards25519.Point).ScalarBaseMult(k)

	c := hashToScalar(hash[:], pub[:], comm.Bytes())

	// r = k − c·sec
	r := new(edwards25519.Scalar).Multiply(c, s)
	r.Subtract(k, r)

	copy(sig[:KeyLength], c.Bytes())
	copy(sig[KeyLength:], r.Bytes())
	return sig, nil
}

// CheckSignature - verify a Schnorr signature (c, r) over hash
//
// recomputes comm = c·pub + r·G and accepts only if
// H_s(hash ‖ pub ‖ comm) equals c
func CheckSignature(hash Hash, pub PublicKey, sig Signature) error {
	a, err := new(edwards25519.Point).SetBytes(pub[:])
	if nil != err {
		return fault.ErrInvalidPublicKey
	}

	c, err := new(edwards25519.Scalar).SetCanonicalBytes(sig[:KeyLength])
	if nil != err {
		return fault.ErrInvalidSignature
	}
	r, err := new(edwards25519.Scalar).SetCanonicalBytes(sig[KeyLength:])
	if nil != err {
		return fault.ErrInvalidSignature
	}

	comm := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(c, a, r)
	if 1 == comm.Equal(edwards25519.NewIdentityPoint()) {
		return fault.ErrInvalidSignature
	}

	c2 := hashToScalar(hash[:], pub[:], comm.Bytes())
	if 1 != c2.Equal(c) {
		return fault.ErrInvalidSignature
	}
	return nil
}

// OutputSharedScalar - per-output shared secret for the ECDH amount codec
func OutputSharedScalar(derivation KeyDerivation, outputIndex uint64) SecretKey {
	var sec SecretKey
	copy(sec[:], derivationToScalar(derivation, outputIndex).Bytes())
	return sec
}

// EcdhDecodeAmount - decrypt a confidential output amount
//
// the eight byte ciphertext is xored with the first eight bytes of
// H("amount" ‖ shared scalar)
func EcdhDecodeAmount(encrypted [8]byte, shared SecretKey) uint64 {
	mask := Keccak256([]byte("amount"), shared[:])

	var amount [8]byte
	for i := 0; i < 8; i += 1 {
		amount[i] = encrypted[i] ^ mask[i]
	}
	return binary.LittleEndian.Uint64(amount[:])
}

// EcdhEncodeAmount - the inverse of EcdhDecodeAmount
func EcdhEncodeAmount(amount uint64, shared SecretKey) [8]byte {
	var plain [8]byte
	binary.LittleEndian.PutUint64(plain[:], amount)

	mask := Keccak256([]byte("amount"), shared[:])

	var encrypted [8]byte
	for i := 0; i < 8; i += 1 {
		encrypted[i] = plain[i] ^ mask[i]
	}
	return encrypted
}
