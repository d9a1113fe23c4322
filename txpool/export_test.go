// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"math/rand"
	"time"
)

// SetTestClock - replace the pool clock, returning a restore function
func SetTestClock(f func() time.Time) func() {
	saved := clock
	clock = f
	return func() { clock = saved }
}

// SeedRelayRand - make the stem embargo draw deterministic
func SeedRelayRand(seed int64) {
	relayRand = rand.New(rand.NewSource(seed))
}
