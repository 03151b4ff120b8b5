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
	READ CONTROLLER STATUS transmits the latched error bits, and clears them.
	This is the only command that clears errors, apart from a master reset.
*/
func (c *Controller) readControllerStatus(pos int, val byte) {
	switch pos {
	case 1:
		status := c.errors.status()
		log.WithField("status", status).Debug("Z47 controller status")
		c.clearErrors()
		c.transmit(status)
	default:
		c.commandComplete()
	}
}

/*
	READ AUX STATUS transmits the sector count and the characteristics of the
	drive last addressed.
*/
func (c *Controller) readAuxStatus(pos int, val byte) {
	switch pos {
	case 1:
		c.transmit(byte(c.sectorCount))
	case 2:
		c.transmit(c.characteristics[c.drive%DriveCount])
	default:
		c.commandComplete()
	}
}

/*
	READ READY STATUS transmits ready and ready-changed bits of both drives,
	and clears the changed bits.
*/
func (c *Controller) readReadyStatus(pos int, val byte) {
	switch pos {
	case 1:
		c.pollReady()
		status := c.readyStatus()
		for ix := range c.readyChanged {
			c.readyChanged[ix] = false
		}
		c.transmit(status)
	default:
		c.commandComplete()
	}
}

/*
	READ ADDRESS OF LAST SECTOR transmits the track byte, then the
	side/drive/sector byte of the last sector transfer.
*/
func (c *Controller) readAddressOfLastSector(pos int, val byte) {
	switch pos {
	case 1:
		c.transmit(c.lastTrack)
	case 2:
		c.transmit(c.lastSDS)
	default:
		c.commandComplete()
	}
}
