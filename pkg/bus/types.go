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

// Package bus connects the CPU to memory and I/O: the address bus, the I/O
// port dispatch table, interrupt controllers, and the clock that drives all
// time dependent devices.
package bus

// CPU is what the interrupt controllers need from the processor.
type CPU interface {
	RaiseNMI()
	RaiseINT(level int)
	LowerINT(level int)
}

// Device is anything attached to the I/O bus. Port addresses passed to In
// and Out are absolute.
type Device interface {
	In(addr byte) byte
	Out(addr byte, val byte)
	Reset()
	Name() string
}

// ClockUser is notified of elapsed CPU cycles.
type ClockUser interface {
	Notification(cycles uint32)
}

// GppListener is notified whenever the general purpose port is written.
type GppListener interface {
	GppNewValue(gpo byte)
}

// InterruptController mediates interrupt delivery to the CPU.
type InterruptController interface {
	RaiseInterrupt(level int)
	LowerInterrupt(level int)
	RaiseNMI()
	// ReadDataBus returns the byte the interrupting card places onto the
	// data bus during an interrupt acknowledge cycle
	ReadDataBus() byte
	Pending() int
	SetCPU(cpu CPU)
	Reset()
}
