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

package memory

import (
	log "github.com/sirupsen/logrus"
)

// the sequence that needs to appear on the unlock bits, in this order,
// before the MMS 77318 board accepts bank selection
var unlockSequence = [...]byte{0x04, 0x0c, 0x04, 0x08, 0x0c, 0x08}

const unlocked = len(unlockSequence)

/*
	MMS77318Decoder models the Magnolia Microsystems 77318 128K RAM board. It
	has eight banks. While locked, only the ORG-0 bit is honored, selecting
	between banks 0 and 1. Writing the unlock sequence to the unlock bits
	enables the full 3-bit bank selection. From then on the decoder no longer
	watches for the sequence; only a reset locks the board again.

	Bank index is (bank bits >> 2) << 1 | ORG-0.
*/
type MMS77318Decoder struct {
	decoder
	lockState int
	lockBits  byte
}

//
func NewMMS77318Decoder(arena *Arena) *MMS77318Decoder {
	d := &MMS77318Decoder{
		decoder: newDecoder("mms77318", arena, 8, GppOrg0Bit),
	}
	d.Reset()
	return d
}

//
func (d *MMS77318Decoder) GppNewValue(gpo byte) {

	if d.lockState != unlocked {
		d.advanceLock(gpo & d.lockBits)
	}

	bank := 0
	if gpo&GppOrg0Bit != 0 {
		bank = 1
	}
	if d.lockState == unlocked {
		bank |= int((gpo&GppBankBits)>>2) << 1
	}

	d.selectBank(bank)
}

//
func (d *MMS77318Decoder) advanceLock(val byte) {

	if val == unlockSequence[d.lockState] {
		d.lockState++
		if d.lockState == unlocked {
			// stop watching for the sequence, only bank selection from now on
			d.lockBits = 0
			d.gppBits = GppOrg0Bit | GppBankBits
			log.Debug("MMS 77318 unlocked")
		}
		return
	}

	// The write that broke the sequence has already been seen on the port,
	// so matching resumes with the second byte.
	d.lockState = 1
}

//
func (d *MMS77318Decoder) IsUnlocked() bool {
	return d.lockState == unlocked
}

//
func (d *MMS77318Decoder) LockState() int {
	return d.lockState
}

//
func (d *MMS77318Decoder) Reset() {
	d.lockState = 0
	d.lockBits = GppUnlockBit
	d.gppBits = GppOrg0Bit | GppUnlockBit
	d.selectBank(0)
}
