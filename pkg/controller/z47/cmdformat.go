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

// formatFill is the byte freshly formatted sectors contain
const formatFill = 0xE5

/*
	FORMAT takes one parameter with the drive in bits 6-5. The whole disk is
	filled with the format fill byte. Flat images only hold 128 byte sectors,
	so the sector size requested by the format variants is not kept.
*/
func (c *Controller) format(pos int, val byte) {

	if pos == 1 {
		c.requestByte()
		return
	}

	c.drive = int(val&driveMask) >> 5
	d, ok := c.selectDisk(c.drive)
	if !ok {
		c.commandComplete()
		return
	}

	if d.IsWriteProtected() {
		c.latchError(func(e *errorLatches) { e.diskWriteProtected = true })
		c.commandComplete()
		return
	}

	if byte(c.state) != CmdFormatIBMSD && byte(c.state) != CmdFormat128 {
		log.WithField("command", c.state).Warn(
			"Z47 formatting with 128 byte sectors")
	}

	for ix := 0; ix < disk.EightInchSize; ix++ {
		d.SetByteAt(ix, formatFill)
	}

	log.WithField("drive", c.drive).Info("Z47 disk formatted")
	c.commandComplete()
}

/*
	COPY takes four parameters, source track, source side/drive/sector,
	destination track, destination side/drive/sector. It copies sector count
	sectors.
*/
func (c *Controller) copySectors(pos int, val byte) {

	switch pos {
	case 1:
		c.requestByte()
		return
	case 2:
		c.lastTrack = val
		c.requestByte()
		return
	case 3:
		c.lastSDS = val
		c.track, c.side, c.drive, c.sector = decodeAddress(c.lastTrack, val)
		c.requestByte()
		return
	case 4:
		c.dstTrack = int(val)
		c.requestByte()
		return
	}

	_, dstSide, dstDrive, dstSector := decodeAddress(byte(c.dstTrack), val)
	c.dstDrive = dstDrive
	c.dstSector = dstSector

	src, ok := c.selectDisk(c.drive)
	if !ok {
		c.commandComplete()
		return
	}
	dst, ok := c.selectDisk(c.dstDrive)
	if !ok {
		c.commandComplete()
		return
	}
	if dst.IsWriteProtected() {
		c.latchError(func(e *errorLatches) { e.diskWriteProtected = true })
		c.commandComplete()
		return
	}

	length := c.transferLength()
	from, ok := c.locate(src, c.track, c.side, c.sector, length)
	if !ok {
		c.commandComplete()
		return
	}
	to, ok := c.locate(dst, c.dstTrack, dstSide, c.dstSector, length)
	if !ok {
		c.commandComplete()
		return
	}

	for ix := 0; ix < length; ix++ {
		b, _ := src.ByteAt(from + ix)
		dst.SetByteAt(to+ix, b)
	}

	log.WithFields(log.Fields{
		"from": from, "to": to, "length": length}).Debug("Z47 sectors copied")
	c.commandComplete()
}
