// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/constants"
	"github.com/misterr-labs/Equilibria/transactionrecord"
	"github.com/misterr-labs/Equilibria/txpool"
)

const (
	fillMedian    = uint64(1000000)
	fillGenerated = 10000000 * constants.Coin
	fillHeight    = uint64(100)
)

func TestFillBlockTemplateOrder(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	txA := makeStandardTx(t, 25000, 0xa1)  // low fee per byte
	txB := makeDeregisterTx(t, 90, 5)      // no fee at all
	txC := makeStandardTx(t, 250000, 0xa2) // high fee per byte

	// admission order must not matter
	for _, blob := range []transactionrecord.Packed{txA, txC, txB} {
		_, err := pool.AddTx(blob, txpool.RelayFluff, false, forkV5)
		require.NoError(t, err)
	}

	ids, totalWeight, totalFee, err := pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, false)
	require.NoError(t, err)

	require.Len(t, ids, 3)
	assert.Equal(t, txB.Hash(), ids[0], "deregister first")
	assert.Equal(t, txC.Hash(), ids[1], "high fee second")
	assert.Equal(t, txA.Hash(), ids[2], "low fee last")
	assert.Equal(t, txA.Weight()+txB.Weight()+txC.Weight(), totalWeight, "weight")
	assert.Equal(t, uint64(275000), totalFee, "fee")
}

func TestFillBlockTemplateHidesStemTxs(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	blob := makeStandardTx(t, 25000, 0xa3)
	_, err := pool.AddTx(blob, txpool.RelayStem, false, forkV5)
	require.NoError(t, err)

	ids, _, _, err := pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, false)
	require.NoError(t, err)
	assert.Empty(t, ids, "stem tx stays out")

	// a stem-mining node may use it
	ids, _, _, err = pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, true)
	require.NoError(t, err)
	assert.Len(t, ids, 1, "stem mining")
}

func TestFillBlockTemplateSkipsChainSpentImages(t *testing.T) {
	pool, chain, _ := newTestPool(t, 0)

	blob := makeStandardTx(t, 25000, 0xa4)
	tx, _, err := blob.Unpack()
	require.NoError(t, err)

	_, err = pool.AddTx(blob, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)

	chain.spent[tx.KeyImages()[0]] = struct{}{}

	ids, _, _, err := pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, false)
	require.NoError(t, err)
	assert.Empty(t, ids, "double spend against the chain")
}

func TestFillBlockTemplateSkipsStaleDeregister(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	fresh := makeDeregisterTx(t, 90, 1) // 10 blocks old at height 100
	stale := makeDeregisterTx(t, 30, 2) // 70 blocks old, past the lifetime

	_, err := pool.AddTx(fresh, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)
	_, err = pool.AddTx(stale, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)

	ids, _, _, err := pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, false)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, fresh.Hash(), ids[0], "only the fresh deregister")
}

func TestFillBlockTemplateExcludesCollidingImages(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	rich := makeStandardTx(t, 50000, 0xa5)
	poor := makeStandardTx(t, 10000, 0xa5) // same key image

	_, err := pool.AddTx(rich, txpool.RelayFluff, false, forkV5)
	require.NoError(t, err)
	_, err = pool.AddTx(poor, txpool.RelayBlock, true, forkV5)
	require.NoError(t, err)

	ids, _, totalFee, err := pool.FillBlockTemplate(fillMedian, fillGenerated, forkV5, fillHeight, false)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, rich.Hash(), ids[0], "best holder wins")
	assert.Equal(t, uint64(50000), totalFee, "fee")
}

func TestFillBlockTemplateClassicRule(t *testing.T) {
	pool, _, _ := newTestPool(t, 0)

	const forkV1 = uint8(1)

	blobs := []transactionrecord.Packed{
		makePaddedTx(t, 25000, 0xb1, 200),
		makePaddedTx(t, 25000, 0xb2, 200),
		makePaddedTx(t, 25000, 0xb3, 200),
	}
	for _, blob := range blobs {
		_, err := pool.AddTx(blob, txpool.RelayFluff, false, forkV1)
		require.NoError(t, err)
	}

	// a median sized so the cap admits exactly two of the three
	w := blobs[0].Weight()
	median := (2*w + w/2 + constants.CoinbaseBlobReservedSize) * 100 / 130

	ids, totalWeight, _, err := pool.FillBlockTemplate(median, fillGenerated, forkV1, fillHeight, false)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "classic weight cap")
	assert.LessOrEqual(t, totalWeight, median*130/100, "under cap")
}
