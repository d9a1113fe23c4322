// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

// MT19937-64 as specified by Matsumoto and Nishimura
//
// quorum and swarm shuffles are replayed independently on every node
// so the generator has to match the reference engine bit for bit,
// math/rand gives no such guarantee

const (
	mtN         = 312
	mtM         = 156
	mtMatrixA   = 0xB5026F5AA96619E9
	mtUpperMask = 0xFFFFFFFF80000000
	mtLowerMask = 0x000000007FFFFFFF
	mtDefault   = 5489
)

// MT19937 - a 64 bit Mersenne Twister
//
// not safe for concurrent use, each shuffle owns its own instance
type MT19937 struct {
	state [mtN]uint64
	index int
}

// NewMT19937 - a generator seeded with the given value
func NewMT19937(seed uint64) *MT19937 {
	mt := &MT19937{}
	mt.Seed(seed)
	return mt
}

// Seed - reset the generator state from a single value
func (mt *MT19937) Seed(seed uint64) {
	mt.state[0] = seed
	for i := 1; i < mtN; i += 1 {
		mt.state[i] = 6364136223846793005*(mt.state[i-1]^(mt.state[i-1]>>62)) + uint64(i)
	}
	mt.index = mtN
}

// Next - the next 64 bit output
func (mt *MT19937) Next() uint64 {
	if mt.index >= mtN {
		mt.generate()
	}

	x := mt.state[mt.index]
	mt.index += 1

	x ^= (x >> 29) & 0x5555555555555555
	x ^= (x << 17) & 0x71D67FFFEDA60000
	x ^= (x << 37) & 0xFFF7EEE000000000
	x ^= x >> 43

	return x
}

func (mt *MT19937) generate() {
	for i := 0; i < mtN; i += 1 {
		x := (mt.state[i] & mtUpperMask) | (mt.state[(i+1)%mtN] & mtLowerMask)
		y := x >> 1
		if 0 != x&1 {
			y ^= mtMatrixA
		}
		mt.state[i] = mt.state[(i+mtM)%mtN] ^ y
	}
	mt.index = 0
}

// UniformIndex - an unbiased draw from [0, n)
//
// rejection sampling over the largest multiple of n, matching the
// portable distribution used when the shuffle was first deployed
func (mt *MT19937) UniformIndex(n uint64) uint64 {
	if n <= 1 {
		return 0
	}

	const max = ^uint64(0)
	secureMax := max - max%n
	var x uint64
	for {
		x = mt.Next()
		if x < secureMax {
			break
		}
	}
	return x / (secureMax / n)
}

// Shuffle - Fisher-Yates permutation driven by the portable draw
func (mt *MT19937) Shuffle(n int, swap func(i int, j int)) {
	if n <= 1 {
		return
	}
	for i := 1; i < n; i += 1 {
		j := int(mt.UniformIndex(uint64(i + 1)))
		swap(i, j)
	}
}
