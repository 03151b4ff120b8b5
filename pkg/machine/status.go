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

package machine

import (
	"fmt"
	"strings"
)

// Status is a snapshot of the machine
type Status struct {
	Variant     string       `json:"variant"`
	Decoder     string       `json:"decoder"`
	Bank        int          `json:"bank"`
	Cycles      uint64       `json:"cycles"`
	PC          uint16       `json:"pc"`
	SP          uint16       `json:"sp"`
	Halted      bool         `json:"halted"`
	Interrupts  bool         `json:"interruptsEnabled"`
	Pending     int          `json:"pendingInterrupt"`
	ClockActive bool         `json:"clockInterrupt"`
	Drives      []*DriveInfo `json:"drives"`
}

//
func (s *Status) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s, decoder %s, bank %d\n", s.Variant, s.Decoder, s.Bank)
	fmt.Fprintf(&sb, "PC=%04x SP=%04x halted=%v interrupts=%v pending=%d\n",
		s.PC, s.SP, s.Halted, s.Interrupts, s.Pending)
	fmt.Fprintf(&sb, "cycles: %d, 2ms clock: %v\n\n", s.Cycles, s.ClockActive)
	for _, d := range s.Drives {
		fmt.Fprintf(&sb, "%-4s %d  ", d.Card, d.Drive)
		if !d.Loaded {
			sb.WriteString("<empty>\n")
			continue
		}
		flags := ""
		if d.WriteProtected {
			flags += "P"
		}
		if d.Modified {
			flags += "*"
		}
		fmt.Fprintf(&sb, "%-2s %-16s %-13s track %d\n",
			flags, d.Name, d.Type, d.Track)
	}
	return sb.String()
}

//
func (m *Machine) Status() *Status {

	drives := m.Drives()

	m.lock.Lock()
	defer m.lock.Unlock()

	return &Status{
		Variant:     m.config.Memory.Variant,
		Decoder:     m.Memory.Decoder.Name(),
		Bank:        m.Memory.Decoder.CurrentBank(),
		Cycles:      m.Clock.Cycles(),
		PC:          m.CPU.PC(),
		SP:          m.CPU.SP(),
		Halted:      m.CPU.IsHalted(),
		Interrupts:  m.CPU.InterruptsEnabled(),
		Pending:     m.IC.Pending(),
		ClockActive: m.Timer.IsEnabled(),
		Drives:      drives,
	}
}

// Peek reads length bytes starting at addr through the active bank,
// without side effects. Addresses wrap around at 64K.
func (m *Machine) Peek(addr uint16, length int) []byte {
	m.lock.Lock()
	defer m.lock.Unlock()
	ret := make([]byte, length)
	for ix := range ret {
		ret[ix] = m.AddressBus.Peek(addr + uint16(ix))
	}
	return ret
}
