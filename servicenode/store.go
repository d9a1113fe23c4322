// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package servicenode

import (
	"encoding/binary"

	"github.com/misterr-labs/Equilibria/account"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// Store - persistence for the registry snapshot
//
// the registry treats the saved state as one opaque blob; GetState
// returns fault.ErrNoSavedState when nothing was ever saved
type Store interface {
	SetState(blob []byte) error
	GetState() ([]byte, error)
	ClearState() error
}

// snapshot blob layout version
const stateBlobVersion = byte(0x01)

// save - serialise the registry to the store; lock must be held
//
// store failures propagate to the caller: a daemon that cannot
// persist consensus state must not carry on silently
func (reg *Registry) save() error {
	if nil == reg.store {
		return nil
	}
	return reg.store.SetState(reg.packState())
}

// load - read a saved snapshot; lock must be held
//
// returns false when there is no usable snapshot, leaving the
// registry untouched; a corrupt blob is treated the same way after
// logging since a rescan rebuilds everything
func (reg *Registry) load() bool {
	if nil == reg.store {
		return false
	}

	blob, err := reg.store.GetState()
	if nil != err {
		if fault.ErrNoSavedState != err {
			reg.log.Errorf("load saved state: %s", err)
		}
		return false
	}

	if err := reg.unpackState(blob); nil != err {
		reg.log.Errorf("corrupt saved state: %s", err)
		return false
	}
	return true
}

// packState - serialise height, node table, rollback log and quorum
// snapshots as a little-endian blob; lock must be held
//
// maps are emitted in ascending key order so identical registries
// always produce identical blobs
func (reg *Registry) packState() []byte {
	buffer := []byte{stateBlobVersion}
	buffer = appendUint64(buffer, reg.height)

	buffer = appendUint64(buffer, uint64(len(reg.infos)))
	for _, key := range reg.sortedKeys() {
		buffer = append(buffer, key[:]...)
		buffer = packInfo(buffer, reg.infos[key])
	}

	buffer = appendUint64(buffer, uint64(len(reg.events)))
	for i := range reg.events {
		event := &reg.events[i]
		buffer = append(buffer, byte(event.kind))
		buffer = appendUint64(buffer, event.height)
		buffer = append(buffer, event.key[:]...)
		if eventChange == event.kind {
			buffer = packInfo(buffer, event.prior)
		}
	}

	heights := make([]uint64, 0, len(reg.quorums))
	for h := range reg.quorums {
		heights = append(heights, h)
	}
	for i := 1; i < len(heights); i += 1 {
		for j := i; j > 0 && heights[j-1] > heights[j]; j -= 1 {
			heights[j-1], heights[j] = heights[j], heights[j-1]
		}
	}
	buffer = appendUint64(buffer, uint64(len(heights)))
	for _, h := range heights {
		state := reg.quorums[h]
		buffer = appendUint64(buffer, h)
		buffer = appendUint64(buffer, uint64(len(state.QuorumNodes)))
		for _, key := range state.QuorumNodes {
			buffer = append(buffer, key[:]...)
		}
		buffer = appendUint64(buffer, uint64(len(state.NodesToTest)))
		for _, key := range state.NodesToTest {
			buffer = append(buffer, key[:]...)
		}
	}

	return buffer
}

// unpackState - the inverse of packState; lock must be held
//
// the registry is only modified when the whole blob decodes
func (reg *Registry) unpackState(blob []byte) error {
	r := &stateReader{buffer: blob}

	if r.byteValue() != stateBlobVersion {
		return fault.ErrStorageCorruption
	}

	height := r.uint64Value()

	infoCount := r.uint64Value()
	if r.failed || infoCount > uint64(len(blob)) {
		return fault.ErrStorageCorruption
	}
	infos := make(map[crypto.PublicKey]*Info, infoCount)
	for i := uint64(0); i < infoCount && !r.failed; i += 1 {
		key := r.publicKey()
		infos[key] = r.info()
	}

	eventCount := r.uint64Value()
	if r.failed || eventCount > uint64(len(blob)) {
		return fault.ErrStorageCorruption
	}
	events := make([]rollbackEvent, 0, eventCount)
	for i := uint64(0); i < eventCount && !r.failed; i += 1 {
		event := rollbackEvent{
			kind:   int(r.byteValue()),
			height: r.uint64Value(),
			key:    r.publicKey(),
		}
		switch event.kind {
		case eventChange:
			event.prior = r.info()
		case eventNew, eventBarrier:
		default:
			return fault.ErrStorageCorruption
		}
		events = append(events, event)
	}

	quorumCount := r.uint64Value()
	if r.failed || quorumCount > uint64(len(blob)) {
		return fault.ErrStorageCorruption
	}
	quorums := make(map[uint64]*QuorumState, quorumCount)
	for i := uint64(0); i < quorumCount && !r.failed; i += 1 {
		h := r.uint64Value()
		state := &QuorumState{
			QuorumNodes: r.publicKeys(),
			NodesToTest: r.publicKeys(),
		}
		quorums[h] = state
	}

	if r.failed || len(r.buffer) != r.offset {
		return fault.ErrStorageCorruption
	}

	reg.height = height
	reg.infos = infos
	reg.events = events
	reg.quorums = quorums
	return nil
}

func packInfo(buffer []byte, info *Info) []byte {
	buffer = appendUint64(buffer, info.RegistrationHeight)
	buffer = appendUint64(buffer, info.LastRewardBlockHeight)
	buffer = appendUint32(buffer, info.LastRewardTransactionIndex)
	buffer = appendUint64(buffer, info.TotalContributed)
	buffer = appendUint64(buffer, info.TotalReserved)
	buffer = appendUint64(buffer, info.StakingRequirement)
	buffer = appendUint64(buffer, info.PortionsForOperator)
	buffer = appendUint64(buffer, info.SwarmID)
	buffer = append(buffer, info.OperatorAddress.Pack()...)
	buffer = appendUint64(buffer, uint64(len(info.Contributors)))
	for _, contributor := range info.Contributors {
		buffer = appendUint64(buffer, contributor.Amount)
		buffer = appendUint64(buffer, contributor.Reserved)
		buffer = append(buffer, contributor.Address.Pack()...)
	}
	return buffer
}

func appendUint64(buffer []byte, value uint64) []byte {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], value)
	return append(buffer, scratch[:]...)
}

func appendUint32(buffer []byte, value uint32) []byte {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], value)
	return append(buffer, scratch[:]...)
}

// stateReader - sequential decoder with sticky failure
type stateReader struct {
	buffer []byte
	offset int
	failed bool
}

func (r *stateReader) take(n int) []byte {
	if r.failed || len(r.buffer)-r.offset < n {
		r.failed = true
		return nil
	}
	data := r.buffer[r.offset : r.offset+n]
	r.offset += n
	return data
}

func (r *stateReader) byteValue() byte {
	data := r.take(1)
	if nil == data {
		return 0
	}
	return data[0]
}

func (r *stateReader) uint64Value() uint64 {
	data := r.take(8)
	if nil == data {
		return 0
	}
	return binary.LittleEndian.Uint64(data)
}

func (r *stateReader) uint32Value() uint32 {
	data := r.take(4)
	if nil == data {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func (r *stateReader) publicKey() crypto.PublicKey {
	var key crypto.PublicKey
	copy(key[:], r.take(crypto.KeyLength))
	return key
}

func (r *stateReader) publicKeys() []crypto.PublicKey {
	count := r.uint64Value()
	if r.failed || count > uint64(len(r.buffer)) {
		r.failed = true
		return nil
	}
	keys := make([]crypto.PublicKey, 0, count)
	for i := uint64(0); i < count && !r.failed; i += 1 {
		keys = append(keys, r.publicKey())
	}
	return keys
}

func (r *stateReader) address() account.Address {
	data := r.take(2 * crypto.KeyLength)
	if nil == data {
		return account.Address{}
	}
	address, err := account.AddressFromBytes(data)
	if nil != err {
		r.failed = true
		return account.Address{}
	}
	return *address
}

func (r *stateReader) info() *Info {
	info := &Info{
		RegistrationHeight:         r.uint64Value(),
		LastRewardBlockHeight:      r.uint64Value(),
		LastRewardTransactionIndex: r.uint32Value(),
		TotalContributed:           r.uint64Value(),
		TotalReserved:              r.uint64Value(),
		StakingRequirement:         r.uint64Value(),
		PortionsForOperator:        r.uint64Value(),
		SwarmID:                    r.uint64Value(),
		OperatorAddress:            r.address(),
	}
	count := r.uint64Value()
	if r.failed || count > uint64(len(r.buffer)) {
		r.failed = true
		return info
	}
	info.Contributors = make([]Contributor, 0, count)
	for i := uint64(0); i < count && !r.failed; i += 1 {
		info.Contributors = append(info.Contributors, Contributor{
			Amount:   r.uint64Value(),
			Reserved: r.uint64Value(),
			Address:  r.address(),
		})
	}
	return info
}
