// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool_test

import (
	"encoding/binary"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
	"github.com/misterr-labs/Equilibria/transactionrecord"
	"github.com/misterr-labs/Equilibria/txpool"
)

const (
	dir      = "testing"
	category = "testing"
)

func TestMain(m *testing.M) {
	_ = os.RemoveAll(dir)
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(dir)
	os.Exit(rc)
}

// memStore - in-memory Store stub
type memStore struct {
	sync.Mutex
	records map[crypto.Hash][]byte
}

func newMemStore() *memStore {
	return &memStore{records: make(map[crypto.Hash][]byte)}
}

func (m *memStore) Put(id crypto.Hash, record []byte) error {
	m.Lock()
	defer m.Unlock()
	b := make([]byte, len(record))
	copy(b, record)
	m.records[id] = b
	return nil
}

func (m *memStore) Get(id crypto.Hash) []byte {
	m.Lock()
	defer m.Unlock()
	return m.records[id]
}

func (m *memStore) Delete(id crypto.Hash) error {
	m.Lock()
	defer m.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore) ForEach(f func(id crypto.Hash, record []byte) error) error {
	m.Lock()
	defer m.Unlock()
	for id, record := range m.records {
		if err := f(id, record); nil != err {
			return err
		}
	}
	return nil
}

// testChain - Blockchain stub with togglable outcomes
type testChain struct {
	height    uint64
	feeOK     bool
	outputs   error
	inputs    error
	spent     map[crypto.KeyImage]struct{}
	inChain   map[crypto.Hash]struct{}
}

func newTestChain(height uint64) *testChain {
	return &testChain{
		height:  height,
		feeOK:   true,
		spent:   make(map[crypto.KeyImage]struct{}),
		inChain: make(map[crypto.Hash]struct{}),
	}
}

func (c *testChain) CurrentHeight() uint64 { return c.height }

func (c *testChain) BlockIDByHeight(height uint64) (crypto.Hash, error) {
	if height >= c.height {
		return crypto.Hash{}, fault.ErrInvalidBlockHeight
	}
	var id crypto.Hash
	binary.LittleEndian.PutUint64(id[:], height)
	id[31] = 0xb1
	return id, nil
}

func (c *testChain) HardForkVersion(height uint64) uint8 { return 5 }

func (c *testChain) CheckFee(weight uint64, fee uint64) bool { return c.feeOK }

func (c *testChain) CheckTxOutputs(tx *transactionrecord.Transaction) error { return c.outputs }

func (c *testChain) CheckTxInputs(tx *transactionrecord.Transaction) (uint64, crypto.Hash, error) {
	if nil != c.inputs {
		return 0, crypto.Hash{}, c.inputs
	}
	top := c.height - 1
	id, err := c.BlockIDByHeight(top)
	return top, id, err
}

func (c *testChain) HaveTx(id crypto.Hash) bool {
	_, ok := c.inChain[id]
	return ok
}

func (c *testChain) HaveTxKeyImagesAsSpent(images []crypto.KeyImage) bool {
	for _, image := range images {
		if _, ok := c.spent[image]; ok {
			return true
		}
	}
	return false
}

func testLogger() *logger.L {
	return logger.New(category)
}

// newTestPool - pool over fresh stubs
func newTestPool(t *testing.T, maxWeight uint64) (*txpool.Pool, *testChain, *memStore) {
	t.Helper()
	chain := newTestChain(100)
	store := newMemStore()
	pool := txpool.New(netparams.Fakechain(), chain, store, nil, maxWeight, testLogger())
	return pool, chain, store
}

// makeStandardTx - a spend transaction with a chosen fee and key image
func makeStandardTx(t *testing.T, fee uint64, imageByte byte) transactionrecord.Packed {
	return makePaddedTx(t, fee, imageByte, 0)
}

// makePaddedTx - same, grown by a nonce pad to steer its weight
func makePaddedTx(t *testing.T, fee uint64, imageByte byte, pad int) transactionrecord.Packed {
	t.Helper()

	pub, _, err := crypto.RandomKeypair()
	require.NoError(t, err, "keypair")

	var keyImage crypto.KeyImage
	keyImage[0] = imageByte
	keyImage[31] = 0x77

	extra := &transactionrecord.Extra{}
	extra.AddTxPubKey(pub)
	if pad > 0 {
		extra.AddNonce(make([]byte, pad))
	}

	tx := &transactionrecord.Transaction{
		Version:           transactionrecord.TxVersion4,
		Type:              transactionrecord.TxTypeStandard,
		OutputUnlockTimes: []uint64{0},
		Vin: []transactionrecord.TxInput{
			transactionrecord.TxInToKey{
				KeyOffsets: []uint64{500, 21, 9},
				KeyImage:   keyImage,
			},
		},
		Vout: []transactionrecord.TxOutput{
			{Amount: 0, Target: transactionrecord.TxOutToKey{Key: pub}},
		},
		Extra: extra.Pack(),
		RctSignatures: transactionrecord.RctSignatures{
			Type:        transactionrecord.RctTypeBulletproof2,
			TxnFee:      fee,
			EcdhAmounts: [][8]byte{{1, 2, 3, 4, 5, 6, 7, 8}},
		},
	}

	blob, err := tx.Pack()
	require.NoError(t, err, "pack")
	return blob
}

// makeDeregisterTx - a quorum removal for one (height, index) pair
func makeDeregisterTx(t *testing.T, quorumHeight uint64, index uint32) transactionrecord.Packed {
	t.Helper()

	var sig crypto.Signature
	sig[0] = byte(index)
	sig[1] = byte(quorumHeight)
	sig[63] = 0x5d

	extra := (&transactionrecord.Extra{}).
		AddDeregister(&transactionrecord.Deregister{
			BlockHeight:      quorumHeight,
			ServiceNodeIndex: index,
			Votes: []transactionrecord.DeregisterVote{
				{VoterIndex: 0, Signature: sig},
				{VoterIndex: 3, Signature: sig},
			},
		}).
		Pack()

	tx := &transactionrecord.Transaction{
		Version: transactionrecord.TxVersion4,
		Type:    transactionrecord.TxTypeDeregister,
		Extra:   extra,
		RctSignatures: transactionrecord.RctSignatures{
			Type: transactionrecord.RctTypeNull,
		},
	}

	blob, err := tx.Pack()
	require.NoError(t, err, "pack")
	return blob
}

// testClock - adjustable time source
type testClock struct {
	sync.Mutex
	now time.Time
}

func startTestClock(t *testing.T) *testClock {
	t.Helper()
	c := &testClock{now: time.Unix(1700000000, 0)}
	restore := txpool.SetTestClock(c.Now)
	t.Cleanup(restore)
	return c
}

func (c *testClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(d)
}
