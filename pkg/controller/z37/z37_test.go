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

package z37

import (
	"testing"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/test"
)

const (
	testClock = 2048000
	ctlPort   = DefaultBase + portControl
	ifPort    = DefaultBase + portInterfaceControl
	cmdPort   = DefaultBase + portCommandSector
	dataPort  = DefaultBase + portDataTrack
)

//
type rig struct {
	t    *testing.T
	ic   *bus.Z37InterruptController
	ctrl *Controller
	disk *disk.SoftSectoredDisk
}

//
func newRig(t *testing.T) *rig {
	ic := bus.NewZ37InterruptController(nil)
	r := &rig{t: t, ic: ic, ctrl: NewController(DefaultBase, testClock, ic)}
	d, err := disk.NewSoftSectoredDisk(disk.Geometry{
		Sides: 2, Tracks: 40, SectorsPerTrack: 16, SectorSize: 256})
	test.DemandSuccess(t, err)
	r.disk = d
	dr, err := r.ctrl.Drive(0)
	test.DemandSuccess(t, err)
	dr.Insert(d, "")
	r.ctrl.Out(ctlPort, ControlDrive0|ControlMotorsOn|ControlEnableIntReq)
	return r
}

//
func (r *rig) tick() {
	r.ctrl.Notification(16)
}

//
func (r *rig) waitIdle() {
	r.t.Helper()
	for ix := 0; ix < 100000; ix++ {
		if !r.ctrl.FDC().IsBusy() {
			return
		}
		r.tick()
	}
	r.t.Fatal("timeout waiting for WD1797")
}

//
func (r *rig) setSectorTrack(sector, track byte) {
	r.ctrl.Out(ifPort, InterfaceAccessSectorTrack)
	r.ctrl.Out(cmdPort, sector)
	r.ctrl.Out(dataPort, track)
	r.ctrl.Out(ifPort, 0)
}

//
func TestRestoreAndSeek(t *testing.T) {

	r := newRig(t)
	dr, _ := r.ctrl.Drive(0)
	dr.SetTrack(5)

	r.ctrl.Out(cmdPort, 0x00) // restore
	test.ExpectSuccess(t, r.ctrl.FDC().IsBusy())
	r.waitIdle()

	test.ExpectEquality(t, dr.Track(), 0)
	test.ExpectEquality(t, r.ic.Pending(), bus.LevelDisk)
	test.ExpectEquality(t, r.ic.ReadDataBus(), bus.RST(bus.LevelDisk))

	status := r.ctrl.In(cmdPort)
	test.ExpectSuccess(t, status&StatusTrackZero != 0)
	test.ExpectSuccess(t, status&StatusBusy == 0)
	test.ExpectEquality(t, r.ic.Pending(), -1)

	r.ctrl.Out(dataPort, 10)
	r.ctrl.Out(cmdPort, 0x14) // seek with verify
	r.waitIdle()
	test.ExpectEquality(t, dr.Track(), 10)
	status = r.ctrl.In(cmdPort)
	test.ExpectEquality(t, status&(StatusTrackZero|StatusSeekError), byte(0))

	r.ctrl.Out(cmdPort, 0x70) // step out, update track
	r.waitIdle()
	test.ExpectEquality(t, dr.Track(), 9)
	r.ctrl.Out(ifPort, InterfaceAccessSectorTrack)
	test.ExpectEquality(t, r.ctrl.In(dataPort), byte(9))
}

//
func TestReadSector(t *testing.T) {

	r := newRig(t)
	dr, _ := r.ctrl.Drive(0)
	dr.SetTrack(10)
	for ix := 0; ix < 256; ix++ {
		r.disk.WriteSectorData(0, 10, 3, ix, byte(ix^0x5a))
	}

	r.ctrl.Out(ctlPort, ControlDrive0|ControlMotorsOn|
		ControlEnableIntReq|ControlEnableDRQInt)
	r.setSectorTrack(3, 10)
	r.ctrl.Out(cmdPort, 0x80)

	var got []byte
	for ix := 0; ix < 100000 && r.ctrl.FDC().IsBusy(); ix++ {
		if r.ctrl.FDC().drq {
			test.ExpectEquality(t, r.ic.ReadDataBus(), byte(0xfb))
			got = append(got, r.ctrl.In(dataPort))
		}
		r.tick()
	}

	test.DemandEquality(t, len(got), 256)
	for ix, b := range got {
		test.ExpectEquality(t, b, byte(ix^0x5a), ix)
	}
	status := r.ctrl.In(cmdPort)
	test.ExpectEquality(t, status&(StatusLostData|StatusRecordNotFound), byte(0))
}

//
func TestReadSectorLostDataAndNotFound(t *testing.T) {

	r := newRig(t)

	r.setSectorTrack(1, 0)
	r.ctrl.Out(cmdPort, 0x80)
	r.waitIdle()
	test.ExpectSuccess(t, r.ctrl.In(cmdPort)&StatusLostData != 0)

	r.setSectorTrack(17, 0)
	r.ctrl.Out(cmdPort, 0x80)
	r.waitIdle()
	test.ExpectSuccess(t, r.ctrl.In(cmdPort)&StatusRecordNotFound != 0)

	// track register not matching head position
	r.setSectorTrack(1, 3)
	r.ctrl.Out(cmdPort, 0x80)
	r.waitIdle()
	test.ExpectSuccess(t, r.ctrl.In(cmdPort)&StatusRecordNotFound != 0)
}

//
func TestWriteSector(t *testing.T) {

	r := newRig(t)
	r.setSectorTrack(16, 0)
	r.ctrl.Out(cmdPort, 0xa2) // write, side 1

	n := 0
	for ix := 0; ix < 100000 && r.ctrl.FDC().IsBusy(); ix++ {
		if r.ctrl.FDC().drq {
			r.ctrl.Out(dataPort, byte(n))
			n++
		}
		r.tick()
	}

	test.ExpectEquality(t, n, 256)
	test.ExpectEquality(t, r.ctrl.In(cmdPort)&StatusLostData, byte(0))
	for ix := 0; ix < 256; ix++ {
		v, _ := r.disk.ReadSectorData(1, 0, 16, ix)
		test.ExpectEquality(t, v, byte(ix), ix)
	}
}

//
func TestWriteProtectAndNotReady(t *testing.T) {

	r := newRig(t)
	r.disk.SetWriteProtected(true)
	r.setSectorTrack(1, 0)
	r.ctrl.Out(cmdPort, 0xa0)
	test.ExpectSuccess(t, r.ctrl.In(cmdPort)&StatusWriteProtect != 0)

	r.ctrl.Out(ctlPort, ControlDrive1|ControlMotorsOn)
	r.ctrl.Out(cmdPort, 0x80)
	test.ExpectSuccess(t, r.ctrl.In(cmdPort)&StatusNotReady != 0)
}

//
func TestForceInterrupt(t *testing.T) {

	r := newRig(t)
	r.setSectorTrack(1, 0)
	r.ctrl.Out(cmdPort, 0x80)
	test.ExpectSuccess(t, r.ctrl.FDC().IsBusy())

	r.ctrl.Out(cmdPort, 0xd8)
	test.ExpectSuccess(t, !r.ctrl.FDC().IsBusy())
	test.ExpectEquality(t, r.ic.Pending(), bus.LevelDisk)

	r.ctrl.In(cmdPort)
	test.ExpectEquality(t, r.ic.Pending(), -1)
}

//
func TestReadAddress(t *testing.T) {

	r := newRig(t)
	dr, _ := r.ctrl.Drive(0)
	dr.SetTrack(7)
	r.ctrl.Out(cmdPort, 0xc0)

	var got []byte
	for ix := 0; ix < 100000 && r.ctrl.FDC().IsBusy(); ix++ {
		if r.ctrl.FDC().drq {
			got = append(got, r.ctrl.In(dataPort))
		}
		r.tick()
	}

	test.DemandEquality(t, len(got), 6)
	test.ExpectEquality(t, got[0], byte(7))
	test.ExpectEquality(t, got[3], byte(1)) // 256 byte sectors
	test.ExpectEquality(t, r.ctrl.FDC().Sector(), byte(7))
}
