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
	log "github.com/sirupsen/logrus"
)

// interrupt levels of the H89
const (
	LevelClock   = 1
	LevelConsole = 3
	LevelDisk    = 4
	MaxLevel     = 7
	//
	opRST0 = 0xc7
	opEI   = 0xfb
)

// RST returns the restart instruction for interrupt level.
func RST(level int) byte {
	return opRST0 | byte(level&0x07)<<3
}

/*
	H89InterruptController tracks the interrupt levels raised by devices and
	keeps the CPU's INT line in sync. During acknowledge it supplies the RST
	instruction for the highest pending level.
*/
type H89InterruptController struct {
	cpu    CPU
	levels byte
}

//
func NewH89InterruptController(cpu CPU) *H89InterruptController {
	return &H89InterruptController{cpu: cpu}
}

//
func (ic *H89InterruptController) SetCPU(cpu CPU) {
	ic.cpu = cpu
}

//
func validLevel(level int) bool {
	if level < 0 || level > MaxLevel {
		log.WithField("level", level).Error("invalid interrupt level")
		return false
	}
	return true
}

//
func (ic *H89InterruptController) RaiseInterrupt(level int) {
	if !validLevel(level) {
		return
	}
	bit := byte(1) << level
	if ic.levels&bit != 0 {
		return
	}
	ic.levels |= bit
	log.WithField("level", level).Trace("interrupt raised")
	if ic.cpu != nil {
		ic.cpu.RaiseINT(level)
	}
}

//
func (ic *H89InterruptController) LowerInterrupt(level int) {
	if !validLevel(level) {
		return
	}
	bit := byte(1) << level
	if ic.levels&bit == 0 {
		return
	}
	ic.levels &^= bit
	log.WithField("level", level).Trace("interrupt lowered")
	if ic.cpu != nil {
		ic.cpu.LowerINT(level)
	}
}

//
func (ic *H89InterruptController) RaiseNMI() {
	log.Trace("NMI raised")
	if ic.cpu != nil {
		ic.cpu.RaiseNMI()
	}
}

// Pending returns the highest pending level, or -1 if there is none.
func (ic *H89InterruptController) Pending() int {
	for level := MaxLevel; level >= 0; level-- {
		if ic.levels&(1<<level) != 0 {
			return level
		}
	}
	return -1
}

//
func (ic *H89InterruptController) ReadDataBus() byte {
	if level := ic.Pending(); level >= 0 {
		return RST(level)
	}
	return FloatingBus
}

//
func (ic *H89InterruptController) Reset() {
	for level := 0; level <= MaxLevel; level++ {
		ic.LowerInterrupt(level)
	}
}

/*
	Z37InterruptController adds the wiring of the Z-89-37 soft-sectored disk
	controller. The card drives level 4 from its INTRQ and DRQ lines, each
	gated by an enable in the card's control register. When DRQ is the
	reason for the interrupt, the acknowledge cycle yields EI instead of a
	restart, so a CPU waiting in HLT for the next data byte simply continues.
*/
type Z37InterruptController struct {
	*H89InterruptController
	intrqRaised  bool
	drqRaised    bool
	intrqAllowed bool
	drqAllowed   bool
}

//
func NewZ37InterruptController(cpu CPU) *Z37InterruptController {
	return &Z37InterruptController{
		H89InterruptController: NewH89InterruptController(cpu),
	}
}

//
func (ic *Z37InterruptController) SetINTRQ(raised bool) {
	ic.intrqRaised = raised
	ic.update()
}

//
func (ic *Z37InterruptController) SetDRQ(raised bool) {
	ic.drqRaised = raised
	ic.update()
}

//
func (ic *Z37InterruptController) SetAllowed(intrq, drq bool) {
	ic.intrqAllowed = intrq
	ic.drqAllowed = drq
	ic.update()
}

//
func (ic *Z37InterruptController) update() {
	if (ic.intrqRaised && ic.intrqAllowed) || (ic.drqRaised && ic.drqAllowed) {
		ic.RaiseInterrupt(LevelDisk)
	} else {
		ic.LowerInterrupt(LevelDisk)
	}
}

//
func (ic *Z37InterruptController) ReadDataBus() byte {
	if ic.Pending() == LevelDisk {
		if ic.drqRaised && ic.drqAllowed {
			return opEI
		}
		if ic.intrqRaised && ic.intrqAllowed {
			return RST(LevelDisk)
		}
	}
	return ic.H89InterruptController.ReadDataBus()
}

//
func (ic *Z37InterruptController) Reset() {
	ic.intrqRaised = false
	ic.drqRaised = false
	ic.intrqAllowed = false
	ic.drqAllowed = false
	ic.H89InterruptController.Reset()
}
