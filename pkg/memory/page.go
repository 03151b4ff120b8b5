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

// Package memory models the H88/H89 address space: 8K pages, layouts that
// assemble eight pages into 64K, and decoders that switch between layouts
// when the general purpose port changes.
package memory

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	// PageSize is the size of a memory page, the unit of bank switching
	PageSize = 8 * 1024
	// PageCount is the number of pages spanning the 64K address space
	PageCount = 8
	//
	pageMask   = PageSize - 1
	regionSize = 1024
)

// Kind identifies the variant of a page
type Kind int

const (
	KindNil Kind = iota
	KindROM
	KindRAM
	KindWriteUnderROM
)

//
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindROM:
		return "rom"
	case KindRAM:
		return "ram"
	case KindWriteUnderROM:
		return "write-under-rom"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Page is an 8K unit of memory. Only the low 13 bits of an address are
// significant, higher bits are masked off.
type Page interface {
	Read(addr uint16) byte
	Write(addr uint16, val byte)
	Kind() Kind
}

//
type nilPage struct{}

// NewNilPage returns a page that reads as 0 and discards writes.
func NewNilPage() Page {
	return &nilPage{}
}

//
func (p *nilPage) Read(addr uint16) byte {
	return 0
}

//
func (p *nilPage) Write(addr uint16, val byte) {}

//
func (p *nilPage) Kind() Kind {
	return KindNil
}

// RAM is a writable page.
type RAM struct {
	data [PageSize]byte
}

//
func NewRAM() *RAM {
	return &RAM{}
}

//
func (r *RAM) Read(addr uint16) byte {
	return r.data[addr&pageMask]
}

//
func (r *RAM) Write(addr uint16, val byte) {
	r.data[addr&pageMask] = val
}

//
func (r *RAM) Kind() Kind {
	return KindRAM
}

// ROM is a write protected page. Its content can be loaded only once.
type ROM struct {
	data   [PageSize]byte
	loaded bool
}

//
func NewROM() *ROM {
	return &ROM{}
}

// Load copies the image into the page starting at offset. Images that
// don't fill the page are mirrored across the region they were given,
// which needs to be a multiple of the image length.
func (r *ROM) Load(image []byte, offset, length int) error {

	if r.loaded {
		return fmt.Errorf("ROM page already loaded")
	}

	offset &= pageMask
	if len(image) == 0 || length < len(image) || offset+length > PageSize {
		return fmt.Errorf("ROM image of %d bytes does not fit %d bytes at %04x",
			len(image), length, offset)
	}

	for pos := 0; pos < length; pos += len(image) {
		copy(r.data[offset+pos:offset+length], image)
	}

	return nil
}

// Seal prevents any further loading.
func (r *ROM) Seal() {
	r.loaded = true
}

//
func (r *ROM) Read(addr uint16) byte {
	return r.data[addr&pageMask]
}

//
func (r *ROM) Write(addr uint16, val byte) {
	log.WithFields(log.Fields{
		"address": fmt.Sprintf("%04x", addr),
		"value":   fmt.Sprintf("%02x", val),
	}).Trace("discarding write to ROM")
}

//
func (r *ROM) Kind() Kind {
	return KindROM
}

/*
	WriteUnderROM combines a ROM and the RAM beneath it, as found on the H88
	where writes pass through to RAM even while the ROM is active for reads.
	The page is divided into eight 1K regions. For each region,

		maskRO			selects the ROM for reads
		maskInstalled	says whether there is RAM beneath; writes go there
		maskProtected	drops writes to installed RAM

	A region that is neither read-only nor installed reads as 0.
*/
type WriteUnderROM struct {
	rom           Page
	ram           Page
	maskRO        byte
	maskInstalled byte
	maskProtected byte
}

//
func NewWriteUnderROM(rom, ram Page, maskRO, maskInstalled byte) *WriteUnderROM {
	if rom == nil {
		rom = NewNilPage()
	}
	if ram == nil {
		ram = NewNilPage()
		maskInstalled = 0
	}
	return &WriteUnderROM{
		rom:           rom,
		ram:           ram,
		maskRO:        maskRO,
		maskInstalled: maskInstalled,
	}
}

//
func regionBit(addr uint16) byte {
	return 1 << ((addr & pageMask) >> 10)
}

//
func (w *WriteUnderROM) Read(addr uint16) byte {
	bit := regionBit(addr)
	if w.maskRO&bit != 0 {
		return w.rom.Read(addr)
	}
	if w.maskInstalled&bit != 0 {
		return w.ram.Read(addr)
	}
	return 0
}

//
func (w *WriteUnderROM) Write(addr uint16, val byte) {
	bit := regionBit(addr)
	if w.maskInstalled&bit != 0 && w.maskProtected&bit == 0 {
		w.ram.Write(addr, val)
	}
}

//
func (w *WriteUnderROM) Kind() Kind {
	return KindWriteUnderROM
}

// SetWriteProtected protects or releases the RAM in the given 1K region.
func (w *WriteUnderROM) SetWriteProtected(region int, protect bool) {
	if region < 0 || region >= PageSize/regionSize {
		log.Warnf("invalid write protect region %d", region)
		return
	}
	bit := byte(1) << region
	if protect {
		w.maskProtected |= bit
	} else {
		w.maskProtected &^= bit
	}
}

//
func (w *WriteUnderROM) IsWriteProtected(region int) bool {
	return region >= 0 && region < PageSize/regionSize &&
		w.maskProtected&(1<<region) != 0
}

//
func (w *WriteUnderROM) Masks() (ro, installed byte) {
	return w.maskRO, w.maskInstalled
}
