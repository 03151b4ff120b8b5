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

// Package h17 implements the H-17 hard-sectored floppy disk controller.
package h17

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/disk"
)

// DefaultBase is the controller's standard port address
const DefaultBase = 0x7c

// port offsets
const (
	portData    = 0
	portStatus  = 1 // in: UART status, out: fill character
	portSync    = 2 // in: start sync search, out: sync character
	portControl = 3 // in: disk status, out: control
	// Ports is the number of ports the controller occupies
	Ports = 4
)

// UART status bits
const (
	UARTReceiveDataAvailable = 0x01
	UARTOverrun              = 0x02
	UARTTransmitBufferEmpty  = 0x80
)

// disk status bits
const (
	StatusHoleDetect   = 0x01
	StatusTrackZero    = 0x02
	StatusWriteProtect = 0x04
	StatusSyncDetect   = 0x08
)

// control bits
const (
	ControlWriteGate      = 0x01
	ControlDriveSelect0   = 0x02
	ControlDriveSelect1   = 0x04
	ControlDriveSelect2   = 0x08
	ControlMotorOn        = 0x10
	ControlDirectionIn    = 0x20
	ControlStep           = 0x40
	ControlWriteEnableRAM = 0x80
)

const (
	// DriveCount of an H-17 installation
	DriveCount = 3
	// Tracks of the standard drives
	Tracks = 40
	// DefaultSyncChar is the sync character HDOS uses
	DefaultSyncChar = 0xfd
	//
	revolutionsPerSecond = 5
	sectorLength         = disk.BytesPerTrack / disk.HardSectors
	holeWidth            = 4
	indexHolePos         = disk.BytesPerTrack - sectorLength/2
)

/*
	Controller is the H-17. Disks spin under the heads at 300 RPM while the
	motor is on, one byte passing per byteCycles. The CPU finds sectors by
	watching the hole detector, then arms the sync search and reads bytes
	through the controller's UART.
*/
type Controller struct {
	base       byte
	drives     [DriveCount]*disk.Drive
	floppyRAM  func(enable bool)
	byteCycles uint32
	//
	control  byte
	side     int
	cycles   uint32
	position int
	//
	syncChar     byte
	fillChar     byte
	searchSync   bool
	syncDetected bool
	//
	receive  byte
	rda      bool
	overrun  bool
	transmit byte
	tbmt     bool
}

// NewController creates an H-17 at base for a CPU running at clockRate Hz.
// floppyRAM is called whenever the floppy RAM write enable bit changes,
// and may be nil.
func NewController(base byte, clockRate uint32,
	floppyRAM func(enable bool)) *Controller {

	c := &Controller{
		base:      base,
		floppyRAM: floppyRAM,
		byteCycles: clockRate /
			(revolutionsPerSecond * disk.BytesPerTrack),
	}
	if c.byteCycles == 0 {
		c.byteCycles = 1
	}
	for ix := range c.drives {
		c.drives[ix] = disk.NewDrive(fmt.Sprintf("sy%d", ix), Tracks, 2)
	}
	c.Reset()
	return c
}

//
func (c *Controller) Name() string {
	return "H-17"
}

//
func (c *Controller) Base() byte {
	return c.base
}

//
func (c *Controller) Drive(ix int) (*disk.Drive, error) {
	if ix < 0 || ix >= DriveCount {
		return nil, fmt.Errorf("invalid H-17 drive: %d", ix)
	}
	return c.drives[ix], nil
}

//
func (c *Controller) Reset() {
	c.Out(c.base+portControl, 0)
	c.syncChar = DefaultSyncChar
	c.fillChar = 0
	c.searchSync = false
	c.syncDetected = false
	c.rda = false
	c.overrun = false
	c.tbmt = true
	c.side = 0
}

// selected returns the selected drive, nil if none is selected.
func (c *Controller) selected() *disk.Drive {
	switch {
	case c.control&ControlDriveSelect0 != 0:
		return c.drives[0]
	case c.control&ControlDriveSelect1 != 0:
		return c.drives[1]
	case c.control&ControlDriveSelect2 != 0:
		return c.drives[2]
	}
	return nil
}

//
func (c *Controller) In(addr byte) byte {

	switch addr - c.base {

	case portData:
		c.rda = false
		return c.receive

	case portStatus:
		var ret byte
		if c.rda {
			ret |= UARTReceiveDataAvailable
		}
		if c.overrun {
			ret |= UARTOverrun
		}
		if c.tbmt {
			ret |= UARTTransmitBufferEmpty
		}
		return ret

	case portSync:
		c.searchSync = true
		c.syncDetected = false
		c.overrun = false
		return c.syncChar

	case portControl:
		return c.diskStatus()
	}

	return bus.FloatingBus
}

//
func (c *Controller) diskStatus() byte {

	var ret byte
	if c.syncDetected {
		ret |= StatusSyncDetect
	}

	d := c.selected()
	if d == nil {
		return ret
	}

	if d.IsTrackZero() {
		ret |= StatusTrackZero
	}
	if d.IsWriteProtected() {
		ret |= StatusWriteProtect
	}
	if d.HasDisk() && c.control&ControlMotorOn != 0 && c.isHole() {
		ret |= StatusHoleDetect
	}

	return ret
}

// isHole tells whether a sector hole or the index hole is under the hole
// detector.
func (c *Controller) isHole() bool {
	return c.position%sectorLength < holeWidth ||
		(c.position >= indexHolePos && c.position < indexHolePos+holeWidth)
}

//
func (c *Controller) Out(addr byte, val byte) {

	switch addr - c.base {

	case portData:
		c.transmit = val
		c.tbmt = false

	case portStatus:
		c.fillChar = val

	case portSync:
		c.syncChar = val

	case portControl:
		prev := c.control
		c.control = val

		if val&ControlStep != 0 && prev&ControlStep == 0 {
			if d := c.selected(); d != nil {
				d.Step(val&ControlDirectionIn != 0)
			}
		}

		motor := val&ControlMotorOn != 0
		for _, d := range c.drives {
			d.SetMotor(motor)
		}

		if (val^prev)&ControlWriteEnableRAM != 0 && c.floppyRAM != nil {
			c.floppyRAM(val&ControlWriteEnableRAM != 0)
		}

		log.WithField("control", fmt.Sprintf("%02x", val)).Trace("H-17 control")
	}
}

// GppNewValue picks up the side select bit of the general purpose port.
func (c *Controller) GppNewValue(gpo byte) {
	if gpo&bus.GppSideSelect != 0 {
		c.side = 1
	} else {
		c.side = 0
	}
}

// Notification turns the disks.
func (c *Controller) Notification(cycles uint32) {

	if c.control&ControlMotorOn == 0 {
		return
	}

	c.cycles += cycles
	for c.cycles >= c.byteCycles {
		c.cycles -= c.byteCycles
		c.byteTime()
		c.position = (c.position + 1) % disk.BytesPerTrack
	}
}

// byteTime handles the byte under the head of the selected drive.
func (c *Controller) byteTime() {

	d := c.selected()
	if d == nil || !d.HasDisk() {
		return
	}
	d.SelectSide(c.side)

	if c.control&ControlWriteGate != 0 {
		val := c.fillChar
		if !c.tbmt {
			val = c.transmit
			c.tbmt = true
		}
		if !d.WriteData(c.position, val) {
			log.WithField("drive", d.Name()).Trace("H-17 write rejected")
		}
		return
	}

	val, ok := d.ReadData(c.position)
	if !ok {
		return
	}

	if c.searchSync {
		if val == c.syncChar {
			c.searchSync = false
			c.syncDetected = true
			c.receive = val
			log.WithFields(log.Fields{
				"drive": d.Name(), "position": c.position}).Trace("H-17 sync")
		}
		return
	}

	if c.syncDetected {
		if c.rda {
			c.overrun = true
		}
		c.receive = val
		c.rda = true
	}
}

// Position is the rotational position, in bytes from the first sector hole
func (c *Controller) Position() int {
	return c.position
}
