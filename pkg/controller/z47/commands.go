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

// command codes
const (
	CmdBoot                          = 0x00
	CmdReadControllerStatus          = 0x01
	CmdReadAuxStatus                 = 0x02
	CmdLoadSectorCount               = 0x03
	CmdReadAddressOfLastSector       = 0x04
	CmdReadSectors                   = 0x05
	CmdWriteSectors                  = 0x06
	CmdReadSectorsBuffered           = 0x07
	CmdWriteSectorsBuffered          = 0x08
	CmdWriteSectorsAndDelete         = 0x09
	CmdWriteSectorsBufferedAndDelete = 0x0A
	CmdCopy                          = 0x0B
	CmdFormatIBMSD                   = 0x0C
	CmdFormat128                     = 0x0D
	CmdFormat256                     = 0x0E
	CmdFormat512                     = 0x0F
	CmdFormat1024                    = 0x10
	CmdReadReadyStatus               = 0x11
	CmdSetDriveCharacteristics       = 0x12
	CmdReadBuffer                    = 0x14
	CmdWriteBuffer                   = 0x15
)

/*
	A handler is called once per position of its command. Position 1 is the
	command byte just consumed, for later positions val is the last byte
	received from the host, if the handler requested one. Each call needs to
	end in requestByte, transmit, or commandComplete.
*/
type handler func(c *Controller, pos int, val byte)

//
type command struct {
	name    string
	handler handler
}

//
var commands map[byte]command

//
func init() {
	commands = map[byte]command{
		CmdBoot:                          {"boot", (*Controller).boot},
		CmdReadControllerStatus:          {"read-controller-status", (*Controller).readControllerStatus},
		CmdReadAuxStatus:                 {"read-aux-status", (*Controller).readAuxStatus},
		CmdLoadSectorCount:               {"load-sector-count", (*Controller).loadSectorCount},
		CmdReadAddressOfLastSector:       {"read-address-of-last-sector", (*Controller).readAddressOfLastSector},
		CmdReadSectors:                   {"read-sectors", (*Controller).readSectors},
		CmdWriteSectors:                  {"write-sectors", (*Controller).writeSectors},
		CmdReadSectorsBuffered:           {"read-sectors-buffered", (*Controller).readSectorsBuffered},
		CmdWriteSectorsBuffered:          {"write-sectors-buffered", (*Controller).writeSectorsBuffered},
		CmdWriteSectorsAndDelete:         {"write-sectors-and-delete", (*Controller).writeSectors},
		CmdWriteSectorsBufferedAndDelete: {"write-sectors-buffered-and-delete", (*Controller).writeSectorsBuffered},
		CmdCopy:                          {"copy", (*Controller).copySectors},
		CmdFormatIBMSD:                   {"format-ibm-sd", (*Controller).format},
		CmdFormat128:                     {"format-128", (*Controller).format},
		CmdFormat256:                     {"format-256", (*Controller).format},
		CmdFormat512:                     {"format-512", (*Controller).format},
		CmdFormat1024:                    {"format-1024", (*Controller).format},
		CmdReadReadyStatus:               {"read-ready-status", (*Controller).readReadyStatus},
		CmdSetDriveCharacteristics:       {"set-drive-characteristics", (*Controller).setDriveCharacteristics},
		CmdReadBuffer:                    {"read-buffer", (*Controller).readBuffer},
		CmdWriteBuffer:                   {"write-buffer", (*Controller).writeBuffer},
	}
}
