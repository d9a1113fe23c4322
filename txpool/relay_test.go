// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/txpool"
)

func TestRelayMethodLattice(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	blob := makeStandardTx(t, 25000, 0x91)
	id := blob.Hash()

	_, err := pool.AddTx(blob, txpool.RelayStem, false, forkV5)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Count(false), "stem is hidden")

	// the same stem tx arriving again has looped the stem path and
	// is promoted to fluff
	tvc, err := pool.AddTx(blob, txpool.RelayStem, false, forkV5)
	require.NoError(t, err)
	assert.True(t, tvc.ShouldBeRelayed, "fluff now")
	assert.Equal(t, 1, pool.Count(false), "visible after loopback")

	// the lattice never goes backwards
	pool.SetRelayed([]crypto.Hash{id}, txpool.RelayLocal)
	assert.Equal(t, 1, pool.Count(false), "still fluff")
}

func TestStemEmbargo(t *testing.T) {
	clk := startTestClock(t)
	txpool.SeedRelayRand(42)
	pool, _, _ := newTestPool(t, 0)

	blob := makeStandardTx(t, 25000, 0x92)
	id := blob.Hash()

	_, err := pool.AddTx(blob, txpool.RelayStem, false, forkV5)
	require.NoError(t, err)

	// fresh stem tx is due for its first hop
	due := pool.GetRelayableTransactions()
	require.Len(t, due, 1)
	assert.Equal(t, txpool.RelayStem, due[0].Method, "stem")

	// relaying arms the embargo
	pool.SetRelayed([]crypto.Hash{id}, txpool.RelayStem)
	assert.Empty(t, pool.GetRelayableTransactions(), "under embargo")

	// well past any plausible Poisson draw the embargo has expired
	clk.Advance(2000 * time.Second)
	due = pool.GetRelayableTransactions()
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID, "due after embargo")
}

func TestFluffBackoff(t *testing.T) {
	clk := startTestClock(t)
	pool, _, _ := newTestPool(t, 0)

	blob := makeStandardTx(t, 25000, 0x93)
	id := blob.Hash()

	_, err := pool.AddTx(blob, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)

	// the backoff keeps pace with the age until it hits the cap
	assert.Empty(t, pool.GetRelayableTransactions(), "fresh")
	clk.Advance(14000 * time.Second)
	assert.Empty(t, pool.GetRelayableTransactions(), "under cap")
	clk.Advance(1000 * time.Second)
	due := pool.GetRelayableTransactions()
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID, "due at cap")

	// relaying restarts the wait
	pool.SetRelayed([]crypto.Hash{id}, txpool.RelayFluff)
	clk.Advance(300 * time.Second)
	assert.Empty(t, pool.GetRelayableTransactions(), "just relayed")

	// no re-relay at all past half the livetime
	clk.Advance(130000 * time.Second)
	assert.Empty(t, pool.GetRelayableTransactions(), "too old")
}

func TestDeregistersAreNotRelayed(t *testing.T) {
	clk := startTestClock(t)
	pool, _, _ := newTestPool(t, 0)

	blob := makeDeregisterTx(t, 95, 6)
	_, err := pool.AddTx(blob, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)

	clk.Advance(20000 * time.Second)
	assert.Empty(t, pool.GetRelayableTransactions(), "deregister stays local")
}
