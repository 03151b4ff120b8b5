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
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Variant names the memory decoder of a machine
type Variant string

const (
	VariantH88      Variant = "h88"
	VariantH89      Variant = "h89"
	VariantMMS77318 Variant = "mms77318"
)

//
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantH88, VariantH89, VariantMMS77318:
		return v, nil
	case "":
		return VariantH89, nil
	}
	return "", fmt.Errorf("unknown memory variant: %s", s)
}

// regions of the ROM page, 1K each
const (
	monitorRegions   byte = 0x0f // 0x0000 - 0x0fff
	h17ROMRegions    byte = 0xc0 // 0x1800 - 0x1fff
	FloppyRAMRegion       = 5    // 0x1400 - 0x17ff
	floppyRAMRegions byte = 1 << FloppyRAMRegion
	//
	monitorOffset = 0x0000
	h17ROMOffset  = 0x1800
	h17ROMSize    = 0x0800
	// bank groups of the MMS 77318, each covering pages 0-5
	mmsGroups      = 4
	mmsGroupPages  = 6
	mmsCommonPages = PageCount - mmsGroupPages
)

// Options describes the memory of a machine
type Options struct {
	Variant Variant
	// RAM size in K, 16 to 64 in steps of 8
	RAMSize int
	// MTR-90 or compatible monitor ROM, 2K or 4K
	Monitor []byte
	// optional H17 controller ROM, 2K
	H17ROM []byte
}

/*
	System is the complete memory of a machine: the page arena, the decoder,
	and the ROM page which is also where the H17 floppy RAM lives.
*/
type System struct {
	Arena   *Arena
	Decoder Decoder
	ROMPage *WriteUnderROM
}

// NewSystem assembles pages, layouts and decoder for the given options.
func NewSystem(opts Options) (*System, error) {

	if opts.RAMSize == 0 {
		opts.RAMSize = 64
	}
	if opts.RAMSize < 16 || opts.RAMSize > 64 || opts.RAMSize%8 != 0 {
		return nil, fmt.Errorf("invalid RAM size %dK", opts.RAMSize)
	}
	if opts.Variant == "" {
		opts.Variant = VariantH89
	}

	rom := NewROM()
	if opts.Monitor != nil {
		if err := rom.Load(opts.Monitor, monitorOffset, ROMSize4K); err != nil {
			return nil, err
		}
	}
	maskRO := monitorRegions
	if opts.H17ROM != nil {
		if len(opts.H17ROM) != h17ROMSize {
			return nil, fmt.Errorf("invalid H17 ROM size %d", len(opts.H17ROM))
		}
		if err := rom.Load(opts.H17ROM, h17ROMOffset, h17ROMSize); err != nil {
			return nil, err
		}
		maskRO |= h17ROMRegions
	}
	rom.Seal()

	s := &System{Arena: NewArena()}
	s.Arena.Add(rom)

	// base RAM; with a full 64K page 0 is the RAM that ORG-0 maps in and
	// that sits beneath the ROM, otherwise RAM starts at 0x2000 and only
	// the H17 floppy RAM is beneath the ROM
	var ram [PageCount]PageRef
	var under *RAM
	installed := floppyRAMRegions
	full := opts.RAMSize == 64

	if full {
		for ix := 0; ix < PageCount; ix++ {
			p := NewRAM()
			if ix == 0 {
				under = p
			}
			ram[ix] = s.Arena.Add(p)
		}
		installed = 0xff

	} else {
		for ix := 1; ix <= opts.RAMSize/8; ix++ {
			ram[ix] = s.Arena.Add(NewRAM())
		}
		under = NewRAM()
		s.Arena.Add(under)
	}

	s.ROMPage = NewWriteUnderROM(rom, under, maskRO, installed)
	composite := s.Arena.Add(s.ROMPage)

	romLayout := NewLayout(s.Arena)
	romLayout.SetSlot(0, composite)
	for ix := 1; ix < PageCount; ix++ {
		romLayout.SetSlot(ix, ram[ix])
	}

	switch opts.Variant {

	case VariantH88:
		s.Decoder = NewH88Decoder(s.Arena)
		s.Decoder.AddLayout(0, romLayout)

	case VariantH89:
		s.Decoder = NewH89Decoder(s.Arena)
		s.Decoder.AddLayout(0, romLayout)
		if full {
			org0 := NewLayout(s.Arena)
			for ix := 0; ix < PageCount; ix++ {
				org0.SetSlot(ix, ram[ix])
			}
			s.Decoder.AddLayout(1, org0)
		} else {
			log.WithField("ram", opts.RAMSize).Warn(
				"ORG-0 needs 64K of RAM, mapping ROM layout instead")
			s.Decoder.AddLayout(1, romLayout)
		}

	case VariantMMS77318:
		if !full {
			return nil, fmt.Errorf("MMS 77318 needs 64K base RAM")
		}
		s.Decoder = NewMMS77318Decoder(s.Arena)
		for g := 0; g < mmsGroups; g++ {
			var pages [PageCount]PageRef
			for ix := 0; ix < mmsGroupPages; ix++ {
				if g == 0 {
					pages[ix] = ram[ix]
				} else {
					pages[ix] = s.Arena.Add(NewRAM())
				}
			}
			// common high RAM, shared by all banks
			for ix := mmsGroupPages; ix < PageCount; ix++ {
				pages[ix] = ram[ix]
			}

			withROM := NewLayout(s.Arena)
			org0 := NewLayout(s.Arena)
			for ix := 0; ix < PageCount; ix++ {
				withROM.SetSlot(ix, pages[ix])
				org0.SetSlot(ix, pages[ix])
			}
			withROM.SetSlot(0, composite)

			s.Decoder.AddLayout(g<<1, withROM)
			s.Decoder.AddLayout(g<<1|1, org0)
		}

	default:
		return nil, fmt.Errorf("unknown memory variant: %s", opts.Variant)
	}

	log.WithFields(log.Fields{
		"variant": opts.Variant,
		"ram":     opts.RAMSize,
		"banks":   s.Decoder.BankCount(),
		"pages":   s.Arena.Len(),
	}).Info("memory configured")

	return s, nil
}

// EnableFloppyRAMWrite releases or protects the H17 floppy RAM.
func (s *System) EnableFloppyRAMWrite(enable bool) {
	s.ROMPage.SetWriteProtected(FloppyRAMRegion, !enable)
}
