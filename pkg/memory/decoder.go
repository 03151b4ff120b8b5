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

// GPP output bits the decoders listen on
const (
	GppOrg0Bit   byte = 0x20
	GppUnlockBit byte = 0x0C
	GppBankBits  byte = 0x0C
)

/*
	Decoder selects one of its layouts (banks) as the active view of memory.
	The selection is a function of the general purpose port bits the decoder
	declared interest in. A switch affects the very next access.
*/
type Decoder interface {
	Read(addr uint16) byte
	Write(addr uint16, val byte)
	PageByAddress(addr uint16) Page
	// AddLayout installs layout l as bank ix; invalid indexes are ignored
	AddLayout(ix int, l *Layout)
	// GppNewValue is called whenever the general purpose port is written
	GppNewValue(gpo byte)
	// GppBits returns the port bits the decoder currently listens on
	GppBits() byte
	CurrentBank() int
	BankCount() int
	Reset()
	Name() string
}

//
type decoder struct {
	name    string
	banks   []*Layout
	gppBits byte
	curBank int
}

//
func newDecoder(name string, arena *Arena, bankCount int, gppBits byte) decoder {
	d := decoder{
		name:    name,
		banks:   make([]*Layout, bankCount),
		gppBits: gppBits,
	}
	for ix := range d.banks {
		d.banks[ix] = NewLayout(arena)
	}
	return d
}

//
func (d *decoder) Name() string {
	return d.name
}

//
func (d *decoder) AddLayout(ix int, l *Layout) {
	if ix < 0 || ix >= len(d.banks) || l == nil {
		log.WithFields(log.Fields{
			"decoder": d.name,
			"bank":    ix,
		}).Warn("ignoring layout for invalid bank")
		return
	}
	d.banks[ix] = l
}

//
func (d *decoder) active() *Layout {
	return d.banks[d.curBank]
}

//
func (d *decoder) Read(addr uint16) byte {
	return d.active().Read(addr)
}

//
func (d *decoder) Write(addr uint16, val byte) {
	d.active().Write(addr, val)
}

//
func (d *decoder) PageByAddress(addr uint16) Page {
	return d.active().PageByAddress(addr)
}

//
func (d *decoder) GppBits() byte {
	return d.gppBits
}

//
func (d *decoder) CurrentBank() int {
	return d.curBank
}

//
func (d *decoder) BankCount() int {
	return len(d.banks)
}

//
func (d *decoder) selectBank(bank int) {
	bank &= len(d.banks) - 1
	if bank != d.curBank {
		log.WithFields(log.Fields{
			"decoder": d.name,
			"from":    d.curBank,
			"to":      bank,
		}).Trace("bank switch")
	}
	d.curBank = bank
}
