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

// Package z37 implements the Z-89-37 soft-sectored floppy disk controller,
// built around a WD1797.
package z37

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/disk"
)

// DefaultBase is the card's standard port address
const DefaultBase = 0x78

// port offsets
const (
	portControl          = 0
	portInterfaceControl = 1
	portCommandSector    = 2 // command/status, or sector
	portDataTrack        = 3 // data, or track
	// Ports is the number of ports the card occupies
	Ports = 4
)

// control register bits
const (
	ControlEnableIntReq = 0x01
	ControlEnableDRQInt = 0x02
	ControlSetMFM       = 0x04
	ControlMotorsOn     = 0x08
	ControlDrive0       = 0x10
	ControlDrive1       = 0x20
	ControlDrive2       = 0x40
	ControlDrive3       = 0x80
)

// interface control bits
const (
	InterfaceAccessSectorTrack = 0x01
)

const (
	// DriveCount of a Z-89-37
	DriveCount = 4
	// Tracks of the standard 5.25" drives
	Tracks = 80
	//
	bytesPerSecondSD = 31250 // 250 kbit/s FM
)

// InterruptLines is the card's wiring to the interrupt controller.
type InterruptLines interface {
	Lines
	SetAllowed(intrq, drq bool)
}

/*
	Controller is the Z-89-37 card. The control register selects drive and
	density, and gates the WD1797's INTRQ and DRQ onto interrupt level 4.
	The interface control register switches the upper two ports between
	command/status & data, and sector & track.
*/
type Controller struct {
	base      byte
	clockRate uint32
	lines     InterruptLines
	fdc       *WD1797
	drives    [DriveCount]*disk.Drive
	//
	control       byte
	interfaceCtrl byte
}

//
func NewController(base byte, clockRate uint32, lines InterruptLines) *Controller {
	c := &Controller{base: base, clockRate: clockRate, lines: lines}
	c.fdc = NewWD1797(lines, c.byteCycles(false))
	for ix := range c.drives {
		c.drives[ix] = disk.NewDrive(fmt.Sprintf("z37-%d", ix), Tracks, 2)
	}
	c.Reset()
	return c
}

//
func (c *Controller) byteCycles(mfm bool) uint32 {
	rate := uint32(bytesPerSecondSD)
	if mfm {
		rate *= 2
	}
	return c.clockRate / rate
}

//
func (c *Controller) Name() string {
	return "Z-89-37"
}

//
func (c *Controller) Base() byte {
	return c.base
}

//
func (c *Controller) FDC() *WD1797 {
	return c.fdc
}

//
func (c *Controller) Drive(ix int) (*disk.Drive, error) {
	if ix < 0 || ix >= DriveCount {
		return nil, fmt.Errorf("invalid Z-89-37 drive: %d", ix)
	}
	return c.drives[ix], nil
}

//
func (c *Controller) Reset() {
	c.fdc.Reset()
	c.Out(c.base+portControl, 0)
	c.interfaceCtrl = 0
}

//
func (c *Controller) accessSectorTrack() bool {
	return c.interfaceCtrl&InterfaceAccessSectorTrack != 0
}

//
func (c *Controller) In(addr byte) byte {

	switch addr - c.base {

	case portControl:
		return c.control

	case portInterfaceControl:
		return c.interfaceCtrl

	case portCommandSector:
		if c.accessSectorTrack() {
			return c.fdc.Sector()
		}
		return c.fdc.ReadStatus()

	case portDataTrack:
		if c.accessSectorTrack() {
			return c.fdc.Track()
		}
		return c.fdc.ReadData()
	}

	return bus.FloatingBus
}

//
func (c *Controller) Out(addr byte, val byte) {

	switch addr - c.base {

	case portControl:
		c.control = val
		if c.lines != nil {
			c.lines.SetAllowed(
				val&ControlEnableIntReq != 0, val&ControlEnableDRQInt != 0)
		}
		c.fdc.SetByteCycles(c.byteCycles(val&ControlSetMFM != 0))
		c.fdc.SelectDrive(c.selected())
		for _, d := range c.drives {
			d.SetMotor(val&ControlMotorsOn != 0)
		}
		log.WithField("control", fmt.Sprintf("%02x", val)).Trace(
			"Z-89-37 control")

	case portInterfaceControl:
		c.interfaceCtrl = val

	case portCommandSector:
		if c.accessSectorTrack() {
			c.fdc.SetSector(val)
		} else {
			c.fdc.WriteCommand(val)
		}

	case portDataTrack:
		if c.accessSectorTrack() {
			c.fdc.SetTrack(val)
		} else {
			c.fdc.WriteData(val)
		}
	}
}

//
func (c *Controller) selected() *disk.Drive {
	for ix, bit := range []byte{
		ControlDrive0, ControlDrive1, ControlDrive2, ControlDrive3} {
		if c.control&bit != 0 {
			return c.drives[ix]
		}
	}
	return nil
}

//
func (c *Controller) Notification(cycles uint32) {
	c.fdc.Notification(cycles)
}
