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

/*
	Layout assembles eight pages into one view of the 64K address space.
	Every address resolves to a page; unconfigured slots hold the nil page.
*/
type Layout struct {
	arena *Arena
	slots [PageCount]PageRef
}

//
func NewLayout(arena *Arena) *Layout {
	return &Layout{arena: arena}
}

// SetPage places the page referenced by ref into the slot covering addr.
func (l *Layout) SetPage(addr uint16, ref PageRef) {
	l.slots[addr>>13] = ref
}

// SetSlot places the page referenced by ref into slot ix.
func (l *Layout) SetSlot(ix int, ref PageRef) {
	if ix < 0 || ix >= PageCount {
		log.Warnf("ignoring page for invalid layout slot %d", ix)
		return
	}
	l.slots[ix] = ref
}

//
func (l *Layout) Slot(ix int) PageRef {
	if ix < 0 || ix >= PageCount {
		return NilRef
	}
	return l.slots[ix]
}

// PageByAddress returns the page covering addr, never nil.
func (l *Layout) PageByAddress(addr uint16) Page {
	return l.arena.Page(l.slots[addr>>13])
}

//
func (l *Layout) Read(addr uint16) byte {
	return l.PageByAddress(addr).Read(addr)
}

//
func (l *Layout) Write(addr uint16, val byte) {
	l.PageByAddress(addr).Write(addr, val)
}
