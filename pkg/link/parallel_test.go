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

package link

import (
	"testing"

	"github.com/xelalexv/h89emu/pkg/test"
)

//
type recorder struct {
	raised  map[Signal]int
	lowered map[Signal]int
}

func newRecorder() *recorder {
	return &recorder{raised: map[Signal]int{}, lowered: map[Signal]int{}}
}

func (r *recorder) RaiseSignal(s Signal) { r.raised[s]++ }
func (r *recorder) LowerSignal(s Signal) { r.lowered[s]++ }

//
func TestSignalsReachPeer(t *testing.T) {

	l := NewParallelLink()
	host := newRecorder()
	dev := newRecorder()
	l.RegisterHost(host)
	l.RegisterDevice(dev)

	l.SetBusy(true)
	l.SetDTR(true)
	l.SetDDOut(true)
	l.SetError(true)
	l.SetDTR(false)

	test.ExpectEquality(t, host.raised[SignalBusy], 1)
	test.ExpectEquality(t, host.raised[SignalDTR], 1)
	test.ExpectEquality(t, host.lowered[SignalDTR], 1)
	test.ExpectEquality(t, host.raised[SignalDDOut], 1)
	test.ExpectEquality(t, host.raised[SignalError], 1)
	test.ExpectEquality(t, len(dev.raised), 0)

	test.ExpectSuccess(t, l.IsBusy())
	test.ExpectSuccess(t, !l.IsDTR())
	test.ExpectSuccess(t, l.IsDDOut())
	test.ExpectSuccess(t, l.IsError())

	l.SetDTAK(true)
	l.SetMasterReset(true)
	test.ExpectEquality(t, dev.raised[SignalDTAK], 1)
	test.ExpectEquality(t, dev.raised[SignalMasterReset], 1)
	test.ExpectSuccess(t, l.IsDTAK())
	test.ExpectSuccess(t, l.IsMasterReset())

	l.Reset()
	test.ExpectSuccess(t, !l.IsBusy() && !l.IsDDOut() && !l.IsError())

	// registrations survive reset
	l.SetDTR(true)
	test.ExpectEquality(t, host.raised[SignalDTR], 2)
}

//
func TestDataDirection(t *testing.T) {

	l := NewParallelLink()

	l.SendHostData(0x07)
	test.ExpectSuccess(t, l.HasHostData())
	test.ExpectSuccess(t, !l.HasDriveData())

	v, ok := l.ReceiveHostData()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, byte(0x07))
	_, ok = l.ReceiveHostData()
	test.ExpectFailure(t, ok)

	// contention: last write wins, flags stay exclusive
	l.SendHostData(0x01)
	l.SendDriveData(0x02)
	test.ExpectSuccess(t, !l.HasHostData())
	test.ExpectSuccess(t, l.HasDriveData())
	test.ExpectEquality(t, l.Data(), byte(0x02))

	l.SendHostData(0x03)
	test.ExpectSuccess(t, l.HasHostData() && !l.HasDriveData())
	v, ok = l.ReceiveDriveData()
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, v, byte(0x03))
}

//
func TestDoubleRegistration(t *testing.T) {

	l := NewParallelLink()
	first := newRecorder()
	second := newRecorder()
	l.RegisterHost(first)
	l.RegisterHost(second)

	l.SetBusy(true)
	test.ExpectEquality(t, first.raised[SignalBusy], 0)
	test.ExpectEquality(t, second.raised[SignalBusy], 1)
}
