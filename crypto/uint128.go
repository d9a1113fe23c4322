// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"math/bits"
)

// 128 bit helpers for reward and stake arithmetic
//
// portion products overflow 64 bits long before the supply cap is
// reached so every portion and penalty computation runs through a
// full widening multiply and a 128 by 64 divide

// Mul128 - the full 128 bit product of two 64 bit values
func Mul128(a uint64, b uint64) (hi uint64, lo uint64) {
	return bits.Mul64(a, b)
}

// Div128By64 - divide a 128 bit value by a 64 bit divisor
//
// the quotient is truncated to 64 bits exactly as the reference
// arithmetic does, callers keep divisors large enough that the high
// word of the true quotient is zero for in-range amounts
func Div128By64(hi uint64, lo uint64, divisor uint64) uint64 {
	if 0 == divisor {
		panic("crypto: division by zero")
	}
	qLo, _ := bits.Div64(hi%divisor, lo, divisor)
	return qLo
}

// MulDiv - round-down (a·b)/divisor without intermediate overflow
func MulDiv(a uint64, b uint64, divisor uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return Div128By64(hi, lo, divisor)
}

// Add128 - 128 bit addition with carry out
func Add128(aHi uint64, aLo uint64, bHi uint64, bLo uint64) (hi uint64, lo uint64) {
	lo, carry := bits.Add64(aLo, bLo, 0)
	hi, _ = bits.Add64(aHi, bHi, carry)
	return hi, lo
}
