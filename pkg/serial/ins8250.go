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

// Package serial provides the H89's INS8250 serial ports, and the host side
// endpoints they can be connected to.
package serial

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/bus"
)

// standard port assignments and interrupt levels
const (
	ConsoleBase  = 0xe8
	LinePrinter  = 0xe0
	ModemBase    = 0xd8
	AuxBase      = 0xd0
	ConsoleLevel = bus.LevelConsole
	// Ports occupied by each UART
	Ports = 8
)

// register offsets
const (
	regData = iota // RBR/THR, DLL with DLAB
	regIER         // DLM with DLAB
	regIIR
	regLCR
	regMCR
	regLSR
	regMSR
	regSCR
)

// interrupt enable bits
const (
	IERReceiveData   = 0x01
	IERTransmitEmpty = 0x02
	IERLineStatus    = 0x04
	IERModemStatus   = 0x08
)

// interrupt identification values
const (
	IIRNone          = 0x01
	IIRTransmitEmpty = 0x02
	IIRReceiveData   = 0x04
	IIRLineStatus    = 0x06
)

// line status bits
const (
	LSRDataReady         = 0x01
	LSROverrun           = 0x02
	LSRTransmitHoldEmpty = 0x20
	LSRTransmitterEmpty  = 0x40
)

// line control bits
const (
	LCRDivisorLatch = 0x80
)

// modem status reported for an attached endpoint: CTS, DSR, DCD
const msrConnected = 0xb0

// uartClock is the baud rate generator crystal
const uartClock = 1843200

// inputQueue is how many bytes an endpoint can send ahead
const inputQueue = 256

// Console is the far end of a serial line.
type Console interface {
	// ReceiveData gets a byte the UART transmitted
	ReceiveData(b byte)
}

/*
	INS8250 is the H89's UART. Transmission is paced by the programmed
	divisor: a byte written to THR leaves for the attached console one
	character time later. Bytes from the console are queued, and moved into
	RBR one at a time when the previous one has been read.
*/
type INS8250 struct {
	name      string
	base      byte
	ic        bus.InterruptController
	level     int
	clockRate uint32
	console   Console
	input     chan byte
	//
	rbr     byte
	thr     byte
	ier     byte
	lcr     byte
	mcr     byte
	lsr     byte
	scr     byte
	divisor uint16
	//
	txPending     bool
	txCountdown   uint32
	threInterrupt bool
}

// NewINS8250 creates a UART at base, interrupting at level. A level below
// 0 means the UART does not interrupt.
func NewINS8250(name string, base byte, ic bus.InterruptController, level int,
	clockRate uint32) *INS8250 {
	u := &INS8250{
		name:      name,
		base:      base,
		ic:        ic,
		level:     level,
		clockRate: clockRate,
		input:     make(chan byte, inputQueue),
	}
	u.Reset()
	return u
}

//
func (u *INS8250) Name() string {
	return u.name
}

//
func (u *INS8250) Base() byte {
	return u.base
}

// Attach connects a console. Transmitted bytes get dropped while no console
// is attached.
func (u *INS8250) Attach(c Console) {
	u.console = c
}

// SendData queues a byte from the console for reception. It is safe for
// concurrent use, and drops the byte when the queue is full.
func (u *INS8250) SendData(b byte) {
	select {
	case u.input <- b:
	default:
		log.WithField("uart", u.name).Warn("input queue full, dropping byte")
	}
}

// SendReady tells whether the UART can take another byte from the console.
func (u *INS8250) SendReady() bool {
	return len(u.input) < cap(u.input)
}

//
func (u *INS8250) Reset() {
	u.ier = 0
	u.lcr = 0
	u.mcr = 0
	u.lsr = LSRTransmitHoldEmpty | LSRTransmitterEmpty
	u.divisor = 12 // 9600 baud
	u.txPending = false
	u.threInterrupt = false
	u.update()
}

//
func (u *INS8250) dlab() bool {
	return u.lcr&LCRDivisorLatch != 0
}

//
func (u *INS8250) In(addr byte) byte {

	switch addr - u.base {

	case regData:
		if u.dlab() {
			return byte(u.divisor)
		}
		u.lsr &^= LSRDataReady
		u.update()
		return u.rbr

	case regIER:
		if u.dlab() {
			return byte(u.divisor >> 8)
		}
		return u.ier

	case regIIR:
		iir := u.iir()
		if iir == IIRTransmitEmpty {
			u.threInterrupt = false
			u.update()
		}
		return iir

	case regLCR:
		return u.lcr

	case regMCR:
		return u.mcr

	case regLSR:
		ret := u.lsr
		u.lsr &^= LSROverrun
		u.update()
		return ret

	case regMSR:
		if u.console != nil {
			return msrConnected
		}
		return 0

	case regSCR:
		return u.scr
	}

	return bus.FloatingBus
}

//
func (u *INS8250) Out(addr byte, val byte) {

	switch addr - u.base {

	case regData:
		if u.dlab() {
			u.divisor = u.divisor&0xff00 | uint16(val)
			return
		}
		u.thr = val
		u.lsr &^= LSRTransmitHoldEmpty | LSRTransmitterEmpty
		u.threInterrupt = false
		if !u.txPending {
			u.txPending = true
			u.txCountdown = u.characterCycles()
		}
		u.update()

	case regIER:
		if u.dlab() {
			u.divisor = u.divisor&0x00ff | uint16(val)<<8
			return
		}
		prev := u.ier
		u.ier = val & 0x0f
		// enabling the THRE interrupt with an empty THR fires right away
		if prev&IERTransmitEmpty == 0 && val&IERTransmitEmpty != 0 &&
			u.lsr&LSRTransmitHoldEmpty != 0 {
			u.threInterrupt = true
		}
		u.update()

	case regLCR:
		u.lcr = val

	case regMCR:
		u.mcr = val & 0x1f

	case regSCR:
		u.scr = val
	}
}

// characterCycles is the CPU cycles needed to shift out one character of
// ten bits at the programmed baud rate.
func (u *INS8250) characterCycles() uint32 {
	div := uint64(u.divisor)
	if div == 0 {
		div = 1
	}
	ret := uint64(u.clockRate) * 10 * 16 * div / uartClock
	if ret == 0 {
		ret = 1
	}
	return uint32(ret)
}

// Baud returns the programmed baud rate.
func (u *INS8250) Baud() int {
	if u.divisor == 0 {
		return 0
	}
	return uartClock / 16 / int(u.divisor)
}

// Notification completes pending transmissions, and moves queued input into
// the receive buffer.
func (u *INS8250) Notification(cycles uint32) {

	if u.txPending {
		if cycles < u.txCountdown {
			u.txCountdown -= cycles
		} else {
			u.txPending = false
			u.lsr |= LSRTransmitHoldEmpty | LSRTransmitterEmpty
			u.threInterrupt = true
			if u.console != nil {
				u.console.ReceiveData(u.thr)
			}
			log.WithFields(log.Fields{
				"uart": u.name,
				"data": fmt.Sprintf("%02x", u.thr)}).Trace("transmitted")
			u.update()
		}
	}

	if u.lsr&LSRDataReady == 0 {
		select {
		case b := <-u.input:
			u.rbr = b
			u.lsr |= LSRDataReady
			u.update()
		default:
		}
	}
}

//
func (u *INS8250) iir() byte {
	switch {
	case u.ier&IERLineStatus != 0 && u.lsr&LSROverrun != 0:
		return IIRLineStatus
	case u.ier&IERReceiveData != 0 && u.lsr&LSRDataReady != 0:
		return IIRReceiveData
	case u.ier&IERTransmitEmpty != 0 && u.threInterrupt:
		return IIRTransmitEmpty
	}
	return IIRNone
}

// update keeps the interrupt line in sync with the pending conditions.
func (u *INS8250) update() {
	if u.ic == nil || u.level < 0 {
		return
	}
	if u.iir() != IIRNone {
		u.ic.RaiseInterrupt(u.level)
	} else {
		u.ic.LowerInterrupt(u.level)
	}
}
