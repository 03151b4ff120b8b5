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

package z47

import (
	"testing"

	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/link"
	"github.com/xelalexv/h89emu/pkg/test"
)

const testBase = 0x78

//
type rig struct {
	t    *testing.T
	link *link.ParallelLink
	ctrl *Controller
	host *HostInterface
	disk *disk.EightInchDisk
}

//
func newRig(t *testing.T) *rig {
	l := link.NewParallelLink()
	r := &rig{
		t:    t,
		link: l,
		ctrl: NewController(l),
		host: NewHostInterface(testBase, l, nil, 5),
		disk: disk.NewEightInchDisk(),
	}
	data := r.disk.Bytes()
	for ix := range data {
		data[ix] = byte(ix*7 + ix/128)
	}
	dr, _ := r.ctrl.Drive(0)
	dr.Insert(r.disk, "")
	return r
}

//
func (r *rig) tick() {
	r.ctrl.Notification(4)
}

//
func (r *rig) waitDTR() {
	r.t.Helper()
	for ix := 0; ix < 10000; ix++ {
		if r.host.In(testBase)&HostStatusDataTransferRequest != 0 {
			return
		}
		r.tick()
	}
	r.t.Fatalf("timeout waiting for DTR, link: %s, controller: %s",
		r.ctrl.LinkState(), r.ctrl.State())
}

//
func (r *rig) send(vals ...byte) {
	r.t.Helper()
	for _, v := range vals {
		r.waitDTR()
		r.host.Out(testBase+1, v)
	}
}

//
func (r *rig) receive() byte {
	r.t.Helper()
	r.waitDTR()
	return r.host.In(testBase + 1)
}

//
func (r *rig) waitIdle() {
	r.t.Helper()
	for ix := 0; ix < 10000; ix++ {
		if r.ctrl.State() == StateNone &&
			r.ctrl.LinkState() == LinkAwaitingToReceive &&
			!r.link.HasHostData() {
			return
		}
		r.tick()
	}
	r.t.Fatal("timeout waiting for idle controller")
}

//
func TestIdleState(t *testing.T) {
	r := newRig(t)
	test.ExpectEquality(t, r.ctrl.State(), StateNone)
	test.ExpectEquality(t, r.ctrl.LinkState(), LinkAwaitingToReceive)
	test.ExpectSuccess(t, r.link.IsDTR())
	test.ExpectSuccess(t, !r.link.IsBusy())
}

//
func TestReadSectorsBuffered(t *testing.T) {

	r := newRig(t)
	r.send(CmdReadSectorsBuffered)
	r.send(5)
	test.ExpectSuccess(t, r.link.IsBusy())
	test.ExpectSuccess(t, r.host.In(testBase)&HostStatusDone == 0)
	r.send(0x01) // side 0, drive 0, sector 1

	offset := 5 * (128 * 26)
	data := r.disk.Bytes()
	for ix := 0; ix < disk.EightInchSectorSize; ix++ {
		test.ExpectEquality(t, r.receive(), data[offset+ix], ix)
	}
	test.ExpectEquality(t, r.ctrl.State(),
		ControllerState(CmdReadSectorsBuffered))

	for ix := 0; ix < 100 && r.ctrl.State() != StateNone; ix++ {
		r.tick()
	}
	test.ExpectEquality(t, r.ctrl.State(), StateNone)
	test.ExpectEquality(t, r.ctrl.LinkState(), LinkAwaitingReadyState)
	test.ExpectSuccess(t, !r.link.IsBusy())
	test.ExpectSuccess(t, r.host.In(testBase)&HostStatusDone != 0)

	// settle time before the next command is taken
	r.tick()
	test.ExpectEquality(t, r.ctrl.LinkState(), LinkAwaitingReadyState)
	r.waitIdle()
	test.ExpectSuccess(t, r.link.IsDTR())

	r.send(CmdReadAddressOfLastSector)
	test.ExpectEquality(t, r.receive(), byte(5))
	test.ExpectEquality(t, r.receive(), byte(0x01))
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(0))
}

//
func TestSectorCountAndWrite(t *testing.T) {

	r := newRig(t)
	r.send(CmdLoadSectorCount, 2)
	r.waitIdle()

	r.send(CmdWriteSectorsBuffered, 2, 0x03) // track 2, sector 3
	for ix := 0; ix < 2*128; ix++ {
		r.send(byte(0xff - ix))
	}
	r.waitIdle()

	offset := 2*128*26 + 2*128
	data := r.disk.Bytes()
	for ix := 0; ix < 2*128; ix++ {
		test.ExpectEquality(t, data[offset+ix], byte(0xff-ix), ix)
	}
	test.ExpectSuccess(t, r.disk.IsModified())

	r.send(CmdReadAuxStatus)
	test.ExpectEquality(t, r.receive(), byte(2))
	r.receive()
	r.waitIdle()
}

//
func TestWriteProtected(t *testing.T) {

	r := newRig(t)
	r.disk.SetWriteProtected(true)
	before := r.disk.Bytes()[0]

	r.send(CmdWriteSectorsBuffered, 0, 0x01)
	r.waitIdle()
	test.ExpectEquality(t, r.disk.Bytes()[0], before)
	test.ExpectEquality(t, r.ctrl.Status(), byte(StatusWriteProtected))
	test.ExpectSuccess(t, r.host.In(testBase)&HostStatusError != 0)
}

//
func TestErrorsLatchUntilStatusRead(t *testing.T) {

	r := newRig(t)

	r.send(0x13)
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(StatusInvalidCommand))

	// drive 1 is empty
	r.send(CmdReadSectorsBuffered, 0, 0x21)
	r.waitIdle()

	// other commands do not clear latches
	r.send(CmdLoadSectorCount, 1)
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(),
		byte(StatusInvalidCommand|StatusDriveNotReady))
	test.ExpectSuccess(t, r.host.In(testBase)&HostStatusError != 0)

	r.send(CmdReadControllerStatus)
	test.ExpectEquality(t, r.receive(),
		byte(StatusInvalidCommand|StatusDriveNotReady))
	r.waitIdle()

	test.ExpectEquality(t, r.ctrl.Status(), byte(0))
	test.ExpectSuccess(t, r.host.In(testBase)&HostStatusError == 0)

	r.send(CmdReadControllerStatus)
	test.ExpectEquality(t, r.receive(), byte(0))
	r.waitIdle()
}

//
func TestInvalidCommandLatchedBeforeIdle(t *testing.T) {
	r := newRig(t)
	r.send(0x13)
	test.ExpectSuccess(t, r.link.HasHostData())
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(StatusInvalidCommand))
	test.ExpectSuccess(t, r.link.IsError())
}

//
func TestDataDirectionDuringStatusRead(t *testing.T) {

	r := newRig(t)
	test.ExpectSuccess(t, !r.link.IsDDOut())

	r.send(CmdReadControllerStatus)
	test.ExpectSuccess(t, !r.link.IsDDOut())

	test.ExpectEquality(t, r.receive(), byte(0))
	test.ExpectSuccess(t, r.link.IsDDOut())

	r.waitIdle()
	test.ExpectSuccess(t, !r.link.IsDDOut())

	// receiving parameters turns the direction around
	r.send(CmdReadSectorsBuffered, 0)
	test.ExpectSuccess(t, !r.link.IsDDOut())
	r.send(0x01)
	r.receive()
	test.ExpectSuccess(t, r.link.IsDDOut())

	r.host.Out(testBase, HostCmdMasterReset)
	test.ExpectSuccess(t, !r.link.IsDDOut())
	r.host.Out(testBase, 0)
}

//
func TestNoRecordFound(t *testing.T) {

	r := newRig(t)

	r.send(CmdReadSectorsBuffered, 80, 0x01) // beyond last track
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(StatusNoRecordFound))

	r.send(CmdReadControllerStatus)
	r.receive()
	r.waitIdle()

	r.send(CmdReadSectorsBuffered, 0, 0x1b) // sector 27
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(StatusNoRecordFound))
}

//
func TestMasterResetMidTransfer(t *testing.T) {

	r := newRig(t)

	// consume initial ready change
	r.send(CmdReadReadyStatus)
	r.receive()
	r.waitIdle()

	r.send(0x13) // latch an error
	r.waitIdle()

	r.send(CmdReadSectorsBuffered, 5, 0x01)
	for ix := 0; ix < 10; ix++ {
		r.receive()
	}
	test.ExpectEquality(t, r.ctrl.State(),
		ControllerState(CmdReadSectorsBuffered))

	r.host.Out(testBase, HostCmdMasterReset)
	test.ExpectEquality(t, r.ctrl.State(), StateNone)
	test.ExpectEquality(t, r.ctrl.LinkState(), LinkAwaitingToReceive)
	test.ExpectEquality(t, r.ctrl.Status(), byte(0))
	test.ExpectSuccess(t, !r.link.IsBusy())
	r.host.Out(testBase, 0)

	r.send(CmdReadReadyStatus)
	test.ExpectEquality(t, r.receive(),
		byte(ReadyDrive0|ReadyChangedDrive0|ReadyChangedDrive1))
	r.waitIdle()

	r.send(CmdReadReadyStatus)
	test.ExpectEquality(t, r.receive(), byte(ReadyDrive0))
	r.waitIdle()
}

//
func TestBufferCommands(t *testing.T) {

	r := newRig(t)

	r.send(CmdWriteBuffer)
	for ix := 0; ix < 128; ix++ {
		r.send(byte(ix))
	}
	r.waitIdle()

	r.send(CmdWriteSectors, 10, 0x05)
	r.waitIdle()

	offset := 10*128*26 + 4*128
	data := r.disk.Bytes()
	for ix := 0; ix < 128; ix++ {
		test.ExpectEquality(t, data[offset+ix], byte(ix), ix)
	}

	r.send(CmdReadSectors, 0, 0x01)
	r.waitIdle()
	r.send(CmdReadBuffer)
	for ix := 0; ix < 128; ix++ {
		test.ExpectEquality(t, r.receive(), data[ix], ix)
	}
	r.waitIdle()
}

//
func TestBootAndFormat(t *testing.T) {

	r := newRig(t)
	data := r.disk.Bytes()
	first := make([]byte, 128)
	copy(first, data)

	r.send(CmdBoot)
	for ix := 0; ix < 128; ix++ {
		test.ExpectEquality(t, r.receive(), first[ix], ix)
	}
	r.waitIdle()

	r.send(CmdFormat128, 0x00)
	r.waitIdle()
	test.ExpectEquality(t, data[0], byte(formatFill))
	test.ExpectEquality(t, data[disk.EightInchSize-1], byte(formatFill))
}

//
func TestCopy(t *testing.T) {

	r := newRig(t)
	second := disk.NewEightInchDisk()
	dr, _ := r.ctrl.Drive(1)
	dr.Insert(second, "")

	r.send(CmdCopy, 1, 0x02, 3, 0x24) // t1 s2 d0 -> t3 s4 d1
	r.waitIdle()
	test.ExpectEquality(t, r.ctrl.Status(), byte(0))

	src := r.disk.Bytes()[1*128*26+1*128:]
	dst := second.Bytes()[3*128*26+3*128:]
	for ix := 0; ix < 128; ix++ {
		test.ExpectEquality(t, dst[ix], src[ix], ix)
	}
}

//
func TestDecodeAddress(t *testing.T) {
	track, side, drive, sector := decodeAddress(0x4c, 0xfa)
	test.ExpectEquality(t, track, 0x4c)
	test.ExpectEquality(t, side, 1)
	test.ExpectEquality(t, drive, 3)
	test.ExpectEquality(t, sector, 0x1a)
}
