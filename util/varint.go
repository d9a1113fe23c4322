// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

// Varint64MaximumBytes - maximum possible number of bytes in Varint64
const Varint64MaximumBytes = 10

// ToVarint64 - convert a 64 bit unsigned integer to Varint64
//
// seven value bits per byte, least significant group first, the high
// bit of each byte marks a continuation
//
// Structure of the result
// byte 1:  ext | B06 | B05 | B04 | B03 | B02 | B01 | B00
// byte 2:  ext | B13 | B12 | B11 | B10 | B09 | B08 | B07
// ...
// byte 10:   0 |   0 |   0 |   0 |   0 |   0 | B63 | B62
func ToVarint64(value uint64) []byte {
	result := make([]byte, 0, Varint64MaximumBytes)
	for value >= 0x80 {
		result = append(result, byte(value&0x7f|0x80))
		value >>= 7
	}
	result = append(result, byte(value))
	return result
}

// FromVarint64 - convert an array of up to Varint64MaximumBytes to a uint64
//
// also return the number of bytes used as second value
// returns 0, 0 if varint64 buffer is truncated or over length
func FromVarint64(buffer []byte) (uint64, int) {
	result := uint64(0)

	shift := uint(0)
	count := 0

	for count < len(buffer) && count < Varint64MaximumBytes {
		currByte := uint64(buffer[count])
		count += 1
		result |= currByte & 0x7f << shift
		if 0 == currByte&0x80 {
			return result, count
		}
		shift += 7
	}

	// truncated data
	return 0, 0
}

// ClippedVarint64 - decode a Varint64 and convert to int
//
// returns 0, 0 if the value is outside the range minimum..maximum or
// if the varint64 buffer is truncated or over length
func ClippedVarint64(buffer []byte, minimum int, maximum int) (int, int) {
	if minimum < 0 || maximum <= minimum {
		return 0, 0
	}
	value, count := FromVarint64(buffer)
	if 0 == count || value > uint64(maximum) {
		return 0, 0
	}
	v := int(value)
	if v < minimum {
		return 0, 0
	}
	return v, count
}
