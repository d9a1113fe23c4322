// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"github.com/misterr-labs/Equilibria/fault"
	"github.com/misterr-labs/Equilibria/storage"
)

// the single key the snapshot lives under
var stateKey = []byte("state")

type levelDBStore struct{}

// NewStore - snapshot persistence over the shared service node pool
//
// storage.Initialise must have been called first
func NewStore() Store {
	return levelDBStore{}
}

func (levelDBStore) SetState(blob []byte) error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Put(storage.Pool.ServiceNodes, stateKey, blob)
	return trx.Commit()
}

func (levelDBStore) GetState() ([]byte, error) {
	blob := storage.Pool.ServiceNodes.Get(stateKey)
	if nil == blob {
		return nil, fault.ErrNoSavedState
	}
	return blob, nil
}

func (levelDBStore) ClearState() error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Delete(storage.Pool.ServiceNodes, stateKey)
	return trx.Commit()
}
