// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto - primitive types and operations for the consensus core
//
// Fixed-size key, hash and signature types with their hex
// representations, the legacy Keccak-256 digest, ed25519 key
// derivation as used by one-time output addressing, the
// deterministic per-height keypair, Schnorr signature checking for
// registrations, the ECDH amount codec, 128-bit portion arithmetic
// and the portable Mersenne-Twister used for quorum shuffling.
package crypto
