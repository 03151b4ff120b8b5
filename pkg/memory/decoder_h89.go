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

// H88Decoder has a single bank and no ORG-0 support. It ignores the general
// purpose port entirely.
type H88Decoder struct {
	decoder
}

//
func NewH88Decoder(arena *Arena) *H88Decoder {
	return &H88Decoder{decoder: newDecoder("h88", arena, 1, 0)}
}

//
func (d *H88Decoder) GppNewValue(gpo byte) {}

//
func (d *H88Decoder) Reset() {
	d.selectBank(0)
}

// H89Decoder switches between the normal layout (bank 0, ROM at the bottom)
// and the ORG-0 layout (bank 1, RAM everywhere), following GPP bit 5.
type H89Decoder struct {
	decoder
}

//
func NewH89Decoder(arena *Arena) *H89Decoder {
	return &H89Decoder{decoder: newDecoder("h89", arena, 2, GppOrg0Bit)}
}

//
func (d *H89Decoder) GppNewValue(gpo byte) {
	if gpo&d.gppBits != 0 {
		d.selectBank(1)
	} else {
		d.selectBank(0)
	}
}

//
func (d *H89Decoder) Reset() {
	d.selectBank(0)
}
