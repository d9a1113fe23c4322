// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/misterr-labs/Equilibria/fault"
)

// test that each error value is recognised by exactly one classifier
func TestErrorClassification(t *testing.T) {
	errorList := []struct {
		err      error
		exists   bool
		invalid  bool
		length   bool
		notFound bool
		process  bool
		record   bool
	}{
		{fault.ErrAlreadyInitialised, true, false, false, false, false, false},
		{fault.ErrDoubleSpend, true, false, false, false, false, false},
		{fault.ErrPreviouslyTimedOut, true, false, false, false, false, false},
		{fault.ErrFeeTooLow, false, true, false, false, false, false},
		{fault.ErrInvalidBlockHeight, false, true, false, false, false, false},
		{fault.ErrStakeTooSmall, false, true, false, false, false, false},
		{fault.ErrBlockWeightTooBig, false, false, true, false, false, false},
		{fault.ErrTransactionTooBig, false, false, true, false, false, false},
		{fault.ErrNoSavedState, false, false, false, true, false, false},
		{fault.ErrServiceNodeNotFound, false, false, false, true, false, false},
		{fault.ErrTransactionNotFound, false, false, false, true, false, false},
		{fault.ErrNotInitialised, false, false, false, false, true, false},
		{fault.ErrRollbackBarrier, false, false, false, false, true, false},
		{fault.ErrCannotDecodeRecord, false, false, false, false, false, true},
		{fault.ErrInvalidExtraField, false, false, false, false, false, true},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrLength(err) != e.length {
			t.Errorf("%d: expected 'length' == %v for err = %v", i, e.length, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrRecord(err) != e.record {
			t.Errorf("%d: expected 'record' == %v for err = %v", i, e.record, err)
		}
	}
}

// errors created from the same text still compare equal
func TestErrorEquality(t *testing.T) {
	if fault.ErrTransactionNotFound != fault.NotFoundError("transaction not found") {
		t.Error("expected value equality for identical error text")
	}
	if fault.ErrTransactionNotFound == fault.ErrServiceNodeNotFound {
		t.Error("distinct errors compare equal")
	}
	if fault.ErrFeeTooLow.Error() != "fee too low" {
		t.Errorf("unexpected message: %q", fault.ErrFeeTooLow.Error())
	}
}
