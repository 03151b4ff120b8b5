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
)

/*
	LOAD SECTOR COUNT takes one parameter, the number of sectors for
	subsequent transfers. 0 stands for 256.
*/
func (c *Controller) loadSectorCount(pos int, val byte) {
	switch pos {
	case 1:
		c.requestByte()
	default:
		c.sectorCount = int(val)
		if c.sectorCount == 0 {
			c.sectorCount = 256
		}
		log.WithField("count", c.sectorCount).Debug("Z47 sector count")
		c.commandComplete()
	}
}

/*
	SET DRIVE CHARACTERISTICS takes one parameter, with the drive in bits
	6-5, and the characteristics in the remaining bits.
*/
func (c *Controller) setDriveCharacteristics(pos int, val byte) {
	switch pos {
	case 1:
		c.requestByte()
	default:
		drive := int(val&driveMask) >> 5
		if drive < DriveCount {
			c.characteristics[drive] = val &^ driveMask
		}
		c.commandComplete()
	}
}

/*
	READ BUFFER transmits sector count sectors worth of bytes from the
	controller buffer.
*/
func (c *Controller) readBuffer(pos int, val byte) {

	if pos == 1 {
		c.bytesToTransfer = c.transferLength()
	}

	if c.bytesToTransfer <= 0 {
		c.commandComplete()
		return
	}

	ix := c.transferLength() - c.bytesToTransfer
	var b byte
	if ix < len(c.buffer) {
		b = c.buffer[ix]
	}
	c.bytesToTransfer--
	c.transmit(b)
}

/*
	WRITE BUFFER receives sector count sectors worth of bytes into the
	controller buffer.
*/
func (c *Controller) writeBuffer(pos int, val byte) {

	if pos == 1 {
		c.bytesToTransfer = c.transferLength()
		c.buffer = make([]byte, c.bytesToTransfer)
		c.requestByte()
		return
	}

	ix := len(c.buffer) - c.bytesToTransfer
	if 0 <= ix && ix < len(c.buffer) {
		c.buffer[ix] = val
	}

	if c.bytesToTransfer--; c.bytesToTransfer > 0 {
		c.requestByte()
	} else {
		c.commandComplete()
	}
}
