// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - single instances of all daemon errors
//
// Keeping one value per error condition lets callers compare with
// errors.Is style equality instead of matching message substrings.
package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised        = ExistsError("already initialised")
	ErrBlockWeightTooBig         = LengthError("block weight too big")
	ErrBurnTooSmall              = InvalidError("burned amount too small")
	ErrCannotDecodeAddress       = RecordError("cannot decode address")
	ErrCannotDecodeRecord        = RecordError("cannot decode record")
	ErrCheckpointMismatch        = InvalidError("checkpoint conflicts with existing checkpoint")
	ErrDeregisterTooOld          = InvalidError("deregister is for too old a block")
	ErrDevFundRewardOutput       = InvalidError("invalid dev fund reward output")
	ErrDnsLookupFailed           = ProcessError("dns lookup failed")
	ErrDoubleSpend               = ExistsError("double spend")
	ErrDuplicateContributor      = ExistsError("duplicate contributor address")
	ErrDuplicateDeregister       = ExistsError("duplicate deregister")
	ErrExpiredRegistration       = InvalidError("registration expired")
	ErrFeeTooLow                 = InvalidError("fee too low")
	ErrGovernanceRewardOutput    = InvalidError("invalid governance reward output")
	ErrInvalidBlockHeight        = InvalidError("invalid block height")
	ErrInvalidChain              = InvalidError("invalid chain")
	ErrInvalidCount              = InvalidError("invalid count")
	ErrInvalidDnsTxtRecord       = InvalidError("invalid dns txt record")
	ErrInvalidExtraField         = RecordError("invalid extra field")
	ErrInvalidGenesisBlock       = InvalidError("invalid genesis block")
	ErrInvalidInput              = InvalidError("invalid transaction input")
	ErrInvalidKeyLength          = InvalidError("invalid key length")
	ErrInvalidLoggerChannel      = InvalidError("invalid logger channel")
	ErrInvalidMemo               = RecordError("invalid memo")
	ErrInvalidOutput             = InvalidError("invalid transaction output")
	ErrInvalidPublicKey          = InvalidError("invalid public key")
	ErrInvalidSignature          = InvalidError("invalid signature")
	ErrInvalidStructPointer      = InvalidError("invalid struct pointer")
	ErrInvalidWinner             = InvalidError("invalid winner")
	ErrNoSavedState              = NotFoundError("no saved state")
	ErrNotInitialised            = ProcessError("not initialised")
	ErrNotTransactionPack        = RecordError("not transaction pack")
	ErrPoolOverWeight            = LengthError("pool over weight")
	ErrPortionsInvalid           = InvalidError("portions invalid")
	ErrPreviouslyTimedOut        = ExistsError("transaction previously timed out")
	ErrQuorumIndexOutOfRange     = InvalidError("quorum index out of range")
	ErrQuorumNotFound            = NotFoundError("quorum not found")
	ErrRegistrationSignature     = InvalidError("registration signature invalid")
	ErrRewardAmountMismatch      = InvalidError("service node reward amount incorrect")
	ErrRollbackBarrier           = ProcessError("rollback blocked by barrier")
	ErrServiceNodeNotFound       = NotFoundError("service node not found")
	ErrServiceNodeRewardOutput   = InvalidError("invalid service node reward output")
	ErrStakeTooLarge             = InvalidError("stake too large")
	ErrStakeTooSmall             = InvalidError("stake too small")
	ErrStorageCorruption         = ProcessError("storage corruption")
	ErrTooManyContributors       = InvalidError("too many contributors")
	ErrTransactionAlreadyInUse   = ProcessError("transaction already in use")
	ErrTransactionNotFound       = NotFoundError("transaction not found")
	ErrTransactionTooBig         = LengthError("transaction too big")
	ErrTransactionVersion        = InvalidError("invalid transaction version")
	ErrUnlockWindow              = InvalidError("unlock window incorrect")
	ErrUnsupportedInputType      = InvalidError("unsupported input type")
	ErrWalletNotConfigured       = NotFoundError("wallet not configured")
	ErrWrongNetworkForCheckpoint = InvalidError("wrong network for checkpoint")
	ErrZeroBaseReward            = InvalidError("unexpected zero base reward")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrLength(e error) bool   { _, ok := e.(LengthError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }
