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
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
)

/*
	Sector transfer commands take two parameter bytes:

		param 0:	track
		      1:	bit 7 side, bits 6-5 drive, bits 4-0 sector

	The number of sectors transferred is set with LoadSectorCount.
*/

// address collects the two address parameter bytes. It returns true once
// both have arrived, with the address decoded and the last sector address
// updated.
func (c *Controller) address(pos int, val byte) bool {
	switch pos {
	case 1:
		c.requestByte()
		return false
	case 2:
		c.lastTrack = val
		c.requestByte()
		return false
	}
	if pos == 3 {
		c.lastSDS = val
		c.track, c.side, c.drive, c.sector = decodeAddress(c.lastTrack, val)
		log.WithFields(log.Fields{
			"track":  c.track,
			"side":   c.side,
			"drive":  c.drive,
			"sector": c.sector}).Debug("Z47 sector address")
	}
	return true
}

// startTransfer selects the disk and positions the transfer at the current
// sector address. On failure, the error is latched and the command is
// completed.
func (c *Controller) startTransfer(write bool) (*disk.EightInchDisk, bool) {

	d, ok := c.selectDisk(c.drive)
	if ok && write && d.IsWriteProtected() {
		c.latchError(func(e *errorLatches) { e.diskWriteProtected = true })
		ok = false
	}
	if ok {
		c.offset, ok = c.locate(
			d, c.track, c.side, c.sector, c.transferLength())
	}
	if !ok {
		c.commandComplete()
		return nil, false
	}
	c.bytesToTransfer = c.transferLength()
	return d, true
}

// transmitFromDisk sends the next byte of a read transfer, or completes the
// command when all bytes went out.
func (c *Controller) transmitFromDisk() {
	if c.bytesToTransfer <= 0 {
		c.commandComplete()
		return
	}
	d, ok := c.drives[c.drive].Disk().(*disk.EightInchDisk)
	if !ok { // disk pulled mid transfer
		c.latchError(func(e *errorLatches) { e.lateData = true })
		c.commandComplete()
		return
	}
	val, _ := d.ByteAt(c.offset)
	c.offset++
	c.bytesToTransfer--
	c.transmit(val)
}

//
func (c *Controller) readSectorsBuffered(pos int, val byte) {
	if !c.address(pos, val) {
		return
	}
	if pos == 3 {
		if _, ok := c.startTransfer(false); !ok {
			return
		}
	}
	c.transmitFromDisk()
}

//
func (c *Controller) writeSectorsBuffered(pos int, val byte) {

	if !c.address(pos, val) {
		return
	}

	if pos == 3 {
		if _, ok := c.startTransfer(true); ok {
			c.requestByte()
		}
		return
	}

	d, ok := c.drives[c.drive].Disk().(*disk.EightInchDisk)
	if !ok || !d.SetByteAt(c.offset, val) {
		c.latchError(func(e *errorLatches) { e.lateData = true })
		c.commandComplete()
		return
	}

	c.offset++
	if c.bytesToTransfer--; c.bytesToTransfer > 0 {
		c.requestByte()
	} else {
		c.commandComplete()
	}
}

// readSectors reads sectors from disk into the controller buffer. The host
// fetches them with ReadBuffer.
func (c *Controller) readSectors(pos int, val byte) {

	if !c.address(pos, val) {
		return
	}

	d, ok := c.startTransfer(false)
	if !ok {
		return
	}

	c.buffer = make([]byte, c.bytesToTransfer)
	for ix := range c.buffer {
		c.buffer[ix], _ = d.ByteAt(c.offset + ix)
	}
	c.commandComplete()
}

// writeSectors writes the controller buffer, filled with WriteBuffer, to
// disk. Missing buffer content is written as zeros.
func (c *Controller) writeSectors(pos int, val byte) {

	if !c.address(pos, val) {
		return
	}

	d, ok := c.startTransfer(true)
	if !ok {
		return
	}

	if byte(c.state) == CmdWriteSectorsAndDelete {
		log.Debug("Z47 deleted data marks are not kept in flat images")
	}

	for ix := 0; ix < c.bytesToTransfer; ix++ {
		var b byte
		if ix < len(c.buffer) {
			b = c.buffer[ix]
		}
		d.SetByteAt(c.offset+ix, b)
	}
	c.commandComplete()
}

/*
	The BOOT command takes no parameters. It transmits the first sector of
	the disk in drive 0.
*/
func (c *Controller) boot(pos int, val byte) {
	if pos == 1 {
		c.sectorCount = 1
		c.track, c.side, c.drive, c.sector = 0, 0, 0, 1
		c.lastTrack, c.lastSDS = 0, 1
		if _, ok := c.startTransfer(false); !ok {
			return
		}
	}
	c.transmitFromDisk()
}
