/*
   H89Emu - Heathkit H89/H88 emulator
   Copyright (c) 2022, Alexander Vollschwitz

   This file is part of H89Emu.

   H89Emu is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   H89Emu is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with H89Emu. If not, see <http://www.gnu.org/licenses/>.
*/

// Package test contains helpers for expressing expectations in unit tests.
package test

import (
	"fmt"
	"testing"
)

// ExpectEquality fails the test if v does not equal expected. Optional tags
// are prepended to the failure message to identify the check.
func ExpectEquality[T comparable](t *testing.T, v T, expected T, tags ...interface{}) bool {
	t.Helper()
	if v != expected {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'",
			id(tags...), v, v, expected)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality, but a mismatch is fatal. Use this
// where later checks depend on the value being right.
func DemandEquality[T comparable](t *testing.T, v T, expected T, tags ...interface{}) {
	t.Helper()
	if v != expected {
		t.Fatalf("%sequality test of type %T failed: '%v' does not equal '%v'",
			id(tags...), v, v, expected)
	}
}

// ExpectSuccess tests v for a success condition suitable for its type:
//
//	bool  -> true
//	error -> nil
//
// A nil interface counts as success.
func ExpectSuccess(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()
	if !succeeded(t, v) {
		t.Errorf("%sexpected success (%T: %v)", id(tags...), v, v)
		return false
	}
	return true
}

// ExpectFailure is the inverse of ExpectSuccess.
func ExpectFailure(t *testing.T, v interface{}, tags ...interface{}) bool {
	t.Helper()
	if v == nil || succeeded(t, v) {
		t.Errorf("%sexpected failure (%T)", id(tags...), v)
		return false
	}
	return true
}

// DemandSuccess is like ExpectSuccess, but a failure is fatal.
func DemandSuccess(t *testing.T, v interface{}, tags ...interface{}) {
	t.Helper()
	if !succeeded(t, v) {
		t.Fatalf("%sa success value is demanded (%T: %v)", id(tags...), v, v)
	}
}

//
func succeeded(t *testing.T, v interface{}) bool {
	t.Helper()
	switch v := v.(type) {
	case bool:
		return v
	case error:
		return v == nil
	case nil:
		return true
	default:
		t.Fatalf("unsupported type (%T) for expectation testing", v)
	}
	return false
}

//
func id(tags ...interface{}) string {
	if len(tags) == 0 {
		return ""
	}
	ret := ""
	for _, t := range tags {
		ret += fmt.Sprintf("%v: ", t)
	}
	return ret
}
