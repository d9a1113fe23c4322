// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package checkpoint_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misterr-labs/Equilibria/checkpoint"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/netparams"
)

func TestLoadDNS(t *testing.T) {
	store := checkpoint.NewStore(netparams.Testnet())
	log := logger.New(category)

	good := crypto.Keccak256([]byte("dns good"))
	later := crypto.Keccak256([]byte("dns later"))

	queried := make(map[string]int)
	lookup := func(domain string) ([]string, error) {
		queried[domain] += 1
		switch domain {
		case "one.example":
			return []string{
				fmt.Sprintf("1200:%s", good),
				"nonsense",
				"99:not a hash",
				":1234",
				"800:",
			}, nil
		case "two.example":
			return []string{fmt.Sprintf("2400:%s", later)}, nil
		default:
			return nil, fault.ErrDnsLookupFailed
		}
	}

	domains := []string{"one.example", "two.example", "down.example"}
	require.NoError(t, store.LoadDNS(domains, lookup, log))

	for _, domain := range domains {
		assert.Equal(t, 1, queried[domain], "domain not queried: %s", domain)
	}

	passes, isCheckpoint := store.CheckBlock(1200, good)
	assert.True(t, passes && isCheckpoint, "record from first domain missing")

	passes, isCheckpoint = store.CheckBlock(2400, later)
	assert.True(t, passes && isCheckpoint, "record from second domain missing")

	assert.Equal(t, uint64(2400), store.MaxHeight(), "wrong max height")
	assert.Equal(t, 2, len(store.Points()), "unparseable records were added")
}

func TestLoadDNSConflict(t *testing.T) {
	store := mainnetStore(t)
	log := logger.New(category)

	other := crypto.Keccak256([]byte("not the real block"))
	lookup := func(domain string) ([]string, error) {
		return []string{fmt.Sprintf("181056:%s", other)}, nil
	}

	err := store.LoadDNS([]string{"bad.example"}, lookup, log)
	assert.Equal(t, fault.ErrCheckpointMismatch, err, "wrong conflict error")
}

func TestNewDNSInitialFetch(t *testing.T) {
	store := checkpoint.NewStore(netparams.Testnet())
	log := logger.New(category)

	hash := crypto.Keccak256([]byte("initial"))
	lookup := func(domain string) ([]string, error) {
		return []string{fmt.Sprintf("50:%s", hash)}, nil
	}

	process, err := store.NewDNS([]string{"cp.example"}, lookup, log)
	require.NoError(t, err)
	require.NotNil(t, process)

	// the constructor performs the first fetch synchronously
	passes, isCheckpoint := store.CheckBlock(50, hash)
	assert.True(t, passes && isCheckpoint, "initial fetch missing")

	shutdown := make(chan struct{})
	wg := new(sync.WaitGroup)
	wg.Add(1)

	go func(wg *sync.WaitGroup) {
		process.Run(nil, shutdown)
		wg.Done()
	}(wg)

	close(shutdown)
	wg.Wait()
}

func TestNewDNSInitialConflict(t *testing.T) {
	store := mainnetStore(t)
	log := logger.New(category)

	other := crypto.Keccak256([]byte("conflicting dns"))
	lookup := func(domain string) ([]string, error) {
		return []string{fmt.Sprintf("106950:%s", other)}, nil
	}

	_, err := store.NewDNS([]string{"cp.example"}, lookup, log)
	assert.Equal(t, fault.ErrCheckpointMismatch, err, "wrong conflict error")
}
