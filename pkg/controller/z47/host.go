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

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/link"
)

// status port bits
const (
	HostStatusError               = 0x01
	HostStatusDone                = 0x20
	HostStatusInterruptEnabled    = 0x40
	HostStatusDataTransferRequest = 0x80
)

// command port bits
const (
	HostCmdU137BSet         = 0x01
	HostCmdMasterReset      = 0x02
	HostCmdInterruptsEnable = 0x40
)

// DefaultBase is where the card sits when a Z-89-37 occupies 0x78
const DefaultBase = 0xb8

// port offsets
const (
	portStatus = 0
	portData   = 1
	// HostPorts is the number of ports the card occupies
	HostPorts = 2
)

/*
	HostInterface is the Z-89-47 card on the H89 side of the link. It is an
	I/O device with a status/command port and a data port. The card
	interrupts when the controller requests a data transfer, or finishes a
	command, if interrupts are enabled.
*/
type HostInterface struct {
	base  byte
	link  *link.ParallelLink
	ic    bus.InterruptController
	level int
	//
	intEnabled  bool
	done        bool
	dtr         bool
	err         bool
	masterReset bool
	u137b       bool
}

// NewHostInterface creates the card, and registers it as host of l.
func NewHostInterface(base byte, l *link.ParallelLink,
	ic bus.InterruptController, level int) *HostInterface {
	h := &HostInterface{base: base, link: l, ic: ic, level: level}
	l.RegisterHost(h)
	h.dtr = l.IsDTR()
	h.err = l.IsError()
	return h
}

//
func (h *HostInterface) Name() string {
	return "Z-89-47"
}

//
func (h *HostInterface) Base() byte {
	return h.base
}

//
func (h *HostInterface) In(addr byte) byte {

	switch addr - h.base {

	case portStatus:
		var ret byte
		if h.err {
			ret |= HostStatusError
		}
		if h.done {
			ret |= HostStatusDone
		}
		if h.intEnabled {
			ret |= HostStatusInterruptEnabled
		}
		if h.dtr {
			ret |= HostStatusDataTransferRequest
		}
		return ret

	case portData:
		val, ok := h.link.ReceiveDriveData()
		if !ok {
			log.Trace("Z-89-47 reading data port without pending data")
		}
		h.acknowledge()
		return val
	}

	return bus.FloatingBus
}

//
func (h *HostInterface) Out(addr byte, val byte) {

	switch addr - h.base {

	case portStatus:
		h.intEnabled = val&HostCmdInterruptsEnable != 0
		h.u137b = val&HostCmdU137BSet != 0
		if h.u137b {
			h.done = false
		}
		reset := val&HostCmdMasterReset != 0
		if reset != h.masterReset {
			h.masterReset = reset
			if reset {
				h.done = false
			}
			h.link.SetMasterReset(reset)
		}
		h.updateInterrupt()

	case portData:
		h.done = false
		h.link.SendHostData(val)
		h.acknowledge()
	}
}

// acknowledge pulses DTAK to tell the controller a data byte was taken
// or placed. This also clears the card's DTR flip-flop, it gets set again by
// the next rising DTR edge.
func (h *HostInterface) acknowledge() {
	h.dtr = false
	h.link.SetDTAK(true)
	h.link.SetDTAK(false)
	h.updateInterrupt()
}

//
func (h *HostInterface) RaiseSignal(s link.Signal) {
	switch s {
	case link.SignalDTR:
		h.dtr = true
	case link.SignalError:
		h.err = true
	case link.SignalBusy:
		h.done = false
	}
	h.updateInterrupt()
}

//
func (h *HostInterface) LowerSignal(s link.Signal) {
	switch s {
	case link.SignalDTR:
		h.dtr = false
	case link.SignalError:
		h.err = false
	case link.SignalBusy:
		h.done = true
	}
	h.updateInterrupt()
}

//
func (h *HostInterface) updateInterrupt() {
	if h.ic == nil {
		return
	}
	if h.intEnabled && (h.dtr || h.done) {
		h.ic.RaiseInterrupt(h.level)
	} else {
		h.ic.LowerInterrupt(h.level)
	}
}

// Reset asserts master reset towards the controller, and returns the card
// to power-on state.
func (h *HostInterface) Reset() {
	h.intEnabled = false
	h.done = false
	h.u137b = false
	h.link.SetMasterReset(true)
	h.link.SetMasterReset(false)
	h.masterReset = false
	h.dtr = h.link.IsDTR()
	h.err = h.link.IsError()
	h.updateInterrupt()
}
