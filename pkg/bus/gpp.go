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
	"fmt"

	log "github.com/sirupsen/logrus"
)

// general purpose port bits
const (
	GppSingleStep   byte = 0x01
	GppClockEnabled byte = 0x02
	GppOrg0         byte = 0x20
	GppSideSelect   byte = 0x40
)

// GppPort is the H89's general purpose port address.
const GppPort byte = 0xf2

/*
	GeneralPurposePort latches the byte written to it and tells every
	listener. Reading it returns the SW501 configuration switch.
*/
type GeneralPurposePort struct {
	sw501     byte
	latch     byte
	listeners []GppListener
}

//
func NewGeneralPurposePort(sw501 byte) *GeneralPurposePort {
	return &GeneralPurposePort{sw501: sw501}
}

//
func (g *GeneralPurposePort) AddListener(l GppListener) {
	g.listeners = append(g.listeners, l)
}

//
func (g *GeneralPurposePort) Name() string {
	return "gpp"
}

//
func (g *GeneralPurposePort) In(addr byte) byte {
	return g.sw501
}

//
func (g *GeneralPurposePort) Out(addr byte, val byte) {
	log.WithField("value", fmt.Sprintf("%02x", val)).Trace("GPP out")
	g.latch = val
	for _, l := range g.listeners {
		l.GppNewValue(val)
	}
}

//
func (g *GeneralPurposePort) Value() byte {
	return g.latch
}

//
func (g *GeneralPurposePort) Reset() {
	g.Out(GppPort, 0)
}

/*
	Timer is the H89's 2ms clock. While enabled via the general purpose port
	it raises interrupt level 1 every 2ms worth of cycles. Any write to the
	general purpose port acknowledges the interrupt.
*/
type Timer struct {
	ic      InterruptController
	period  uint32
	count   uint32
	enabled bool
}

// NewTimer creates a 2ms timer for a CPU running at clockRate Hz.
func NewTimer(ic InterruptController, clockRate uint32) *Timer {
	period := clockRate / 500
	if period == 0 {
		period = 1
	}
	return &Timer{ic: ic, period: period}
}

//
func (t *Timer) GppNewValue(gpo byte) {
	t.ic.LowerInterrupt(LevelClock)
	t.enabled = gpo&GppClockEnabled != 0
}

//
func (t *Timer) Notification(cycles uint32) {
	t.count += cycles
	for t.count >= t.period {
		t.count -= t.period
		if t.enabled {
			t.ic.RaiseInterrupt(LevelClock)
		}
	}
}

//
func (t *Timer) IsEnabled() bool {
	return t.enabled
}

// NMIPorts models the H8 front panel compatibility ports. Any access
// raises an NMI.
type NMIPorts struct {
	ic InterruptController
}

//
func NewNMIPorts(ic InterruptController) *NMIPorts {
	return &NMIPorts{ic: ic}
}

//
func (n *NMIPorts) Name() string {
	return "nmi"
}

//
func (n *NMIPorts) In(addr byte) byte {
	n.ic.RaiseNMI()
	return FloatingBus
}

//
func (n *NMIPorts) Out(addr byte, val byte) {
	n.ic.RaiseNMI()
}

//
func (n *NMIPorts) Reset() {}
