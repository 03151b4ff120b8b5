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

// Package cpu attaches a Z80 core to the H89's address and I/O buses.
package cpu

import (
	"fmt"

	"github.com/koron-go/z80"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/bus"
)

// NMI vector
const nmiVector = 0x0066

// T-states for accepting interrupts
const (
	nmiTStates  = 11
	intTStates  = 13
	haltTStates = 4
)

//
type memoryPort struct {
	ab *bus.AddressBus
}

func (m *memoryPort) Get(addr uint16) uint8 {
	return m.ab.Read(addr, false)
}

func (m *memoryPort) Set(addr uint16, value uint8) {
	m.ab.Write(addr, value)
}

//
type ioPort struct {
	io *bus.IOBus
}

func (p *ioPort) In(addr uint8) uint8 {
	return p.io.In(addr)
}

func (p *ioPort) Out(addr uint8, value uint8) {
	p.io.Out(addr, value)
}

/*
	Z80 runs a koron-go/z80 core one instruction at a time against the H89
	buses, and reports the T-states each step took. Interrupts are accepted
	here rather than in the core: on acknowledge, the instruction comes from
	the address bus, which asks the interrupt controller. RST n vectors as
	usual, while EI just resumes a CPU halted with interrupts enabled, as
	the Z-89-37 uses for DRQ.
*/
type Z80 struct {
	core     z80.CPU
	ab       *bus.AddressBus
	intLines byte
	nmi      bool
	eiDelay  bool
	cycles   uint64
}

//
func NewZ80(ab *bus.AddressBus, io *bus.IOBus) *Z80 {
	c := &Z80{ab: ab}
	c.core = z80.CPU{
		Memory: &memoryPort{ab: ab},
		IO:     &ioPort{io: io},
	}
	return c
}

// RaiseNMI latches a non-maskable interrupt, accepted before the next
// instruction.
func (c *Z80) RaiseNMI() {
	c.nmi = true
}

//
func (c *Z80) RaiseINT(level int) {
	c.intLines |= 1 << uint(level)
}

//
func (c *Z80) LowerINT(level int) {
	c.intLines &^= 1 << uint(level)
}

//
func (c *Z80) Reset() {
	c.core.States = z80.States{}
	c.intLines = 0
	c.nmi = false
	c.eiDelay = false
}

//
func (c *Z80) PC() uint16 {
	return c.core.PC
}

//
func (c *Z80) SetPC(pc uint16) {
	c.core.PC = pc
}

//
func (c *Z80) SP() uint16 {
	return c.core.SP
}

//
func (c *Z80) IsHalted() bool {
	return c.core.HALT
}

//
func (c *Z80) InterruptsEnabled() bool {
	return c.core.IFF1
}

// Cycles returns the T-states executed since creation.
func (c *Z80) Cycles() uint64 {
	return c.cycles
}

//
func (c *Z80) String() string {
	return fmt.Sprintf("PC=%04x SP=%04x halted=%v iff=%v",
		c.core.PC, c.core.SP, c.core.HALT, c.core.IFF1)
}

// Step accepts a pending interrupt or executes one instruction, and
// returns the T-states this took.
func (c *Z80) Step() uint32 {
	t := c.step()
	c.cycles += uint64(t)
	return t
}

//
func (c *Z80) step() uint32 {

	if c.nmi {
		c.nmi = false
		c.leaveHalt()
		c.push(c.core.PC)
		c.core.IFF2 = c.core.IFF1
		c.core.IFF1 = false
		c.core.PC = nmiVector
		return nmiTStates
	}

	if c.intLines != 0 && c.core.IFF1 && !c.eiDelay {
		if t, ok := c.acceptInterrupt(); ok {
			return t
		}
	}

	if c.core.HALT {
		c.eiDelay = false
		return haltTStates
	}

	pc := c.core.PC
	op := c.ab.Peek(pc)
	op1 := c.ab.Peek(pc + 1)
	op3 := c.ab.Peek(pc + 3)

	c.core.Step()

	// interrupts are accepted only after the instruction following EI
	c.eiDelay = op == opEI
	return tStates(pc, c.core.PC, op, op1, op3)
}

//
func (c *Z80) acceptInterrupt() (uint32, bool) {

	data := c.ab.Read(c.core.PC, true)

	switch {
	case data == opEI:
		c.leaveHalt()
		c.eiDelay = true
		return haltTStates, true

	case data&0xc7 == 0xc7:
		c.leaveHalt()
		c.core.IFF1 = false
		c.core.IFF2 = false
		c.push(c.core.PC)
		c.core.PC = uint16(data & 0x38)
		return intTStates, true
	}

	log.WithField("data", fmt.Sprintf("%02x", data)).Warn(
		"unexpected interrupt acknowledge data")
	return 0, false
}

// leaveHalt ends a halt, making sure the return address points past the HLT
// instruction.
func (c *Z80) leaveHalt() {
	if !c.core.HALT {
		return
	}
	c.core.HALT = false
	if c.ab.Peek(c.core.PC) == opHALT {
		c.core.PC++
	}
}

//
func (c *Z80) push(val uint16) {
	c.core.SP -= 2
	c.ab.Write(c.core.SP, byte(val))
	c.ab.Write(c.core.SP+1, byte(val>>8))
}
