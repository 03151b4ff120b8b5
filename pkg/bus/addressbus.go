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

package bus

import (
	"github.com/xelalexv/h89emu/pkg/memory"
)

/*
	AddressBus is the single entry point for CPU memory access. It delegates
	to the active memory decoder, and answers interrupt acknowledge cycles
	from the interrupt controller.
*/
type AddressBus struct {
	decoder memory.Decoder
	ic      InterruptController
}

//
func NewAddressBus(d memory.Decoder, ic InterruptController) *AddressBus {
	return &AddressBus{decoder: d, ic: ic}
}

// Read reads a byte. For interrupt acknowledge cycles, the byte comes from
// the interrupt controller instead of memory.
func (a *AddressBus) Read(addr uint16, interruptAck bool) byte {
	if interruptAck && a.ic != nil {
		return a.ic.ReadDataBus()
	}
	return a.decoder.Read(addr)
}

//
func (a *AddressBus) Write(addr uint16, val byte) {
	a.decoder.Write(addr, val)
}

// Peek reads memory through the active bank without any side effects.
func (a *AddressBus) Peek(addr uint16) byte {
	return a.decoder.Read(addr)
}

//
func (a *AddressBus) Decoder() memory.Decoder {
	return a.decoder
}

// Reset returns the decoder to bank 0 and re-arms any bank locks.
func (a *AddressBus) Reset() {
	a.decoder.Reset()
}
