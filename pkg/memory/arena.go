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

// PageRef references a page held by an Arena.
type PageRef int

// NilRef references the arena's shared nil page.
const NilRef PageRef = 0

/*
	Arena owns all pages of a machine. Layouts refer to pages by index, so a
	physical page visible from several banks, such as common high RAM, is
	simply the same reference in each layout.
*/
type Arena struct {
	pages []Page
}

//
func NewArena() *Arena {
	return &Arena{pages: []Page{NewNilPage()}}
}

// Add places p into the arena and returns its reference. A nil page yields
// NilRef.
func (a *Arena) Add(p Page) PageRef {
	if p == nil {
		return NilRef
	}
	a.pages = append(a.pages, p)
	return PageRef(len(a.pages) - 1)
}

// Page returns the page for ref. Unknown references resolve to the nil page.
func (a *Arena) Page(ref PageRef) Page {
	if ref < 0 || int(ref) >= len(a.pages) {
		return a.pages[NilRef]
	}
	return a.pages[ref]
}

//
func (a *Arena) Len() int {
	return len(a.pages)
}
