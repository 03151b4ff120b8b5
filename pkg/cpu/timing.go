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

package cpu

// base T-states of unprefixed instructions; conditional branches are listed
// with their not-taken time
var baseTStates = [256]uint8{
	4, 10, 7, 6, 4, 4, 7, 4, 4, 11, 7, 6, 4, 4, 7, 4,          // 0x00
	8, 10, 7, 6, 4, 4, 7, 4, 12, 11, 7, 6, 4, 4, 7, 4,         // 0x10
	7, 10, 16, 6, 4, 4, 7, 4, 7, 11, 16, 6, 4, 4, 7, 4,        // 0x20
	7, 10, 13, 6, 11, 11, 10, 4, 7, 11, 13, 6, 4, 4, 7, 4,     // 0x30
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x40
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x50
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x60
	7, 7, 7, 7, 7, 7, 4, 7, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x70
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x80
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0x90
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0xa0
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,            // 0xb0
	5, 10, 10, 10, 10, 11, 7, 11, 5, 10, 10, 0, 10, 17, 7, 11, // 0xc0
	5, 10, 10, 11, 10, 11, 7, 11, 5, 4, 10, 11, 10, 0, 7, 11,  // 0xd0
	5, 10, 10, 19, 10, 11, 7, 11, 5, 4, 10, 4, 10, 0, 7, 11,   // 0xe0
	5, 10, 10, 4, 10, 11, 7, 11, 5, 6, 10, 4, 10, 0, 7, 11,    // 0xf0
}

// prefixes
const (
	prefixCB = 0xcb
	prefixDD = 0xdd
	prefixED = 0xed
	prefixFD = 0xfd
)

//
const (
	opHALT = 0x76
	opEI   = 0xfb
	opDJNZ = 0x10
)

// tStates estimates the T-states taken by the instruction at pc, given the
// opcode bytes and the program counter after execution. Taken conditional
// branches are detected from newPC.
func tStates(pc, newPC uint16, op, op1, op3 byte) uint32 {

	switch op {
	case prefixCB:
		return cbTStates(op1, false)
	case prefixED:
		return edTStates(op1, pc == newPC)
	case prefixDD, prefixFD:
		return indexTStates(op1, op3)
	}

	t := uint32(baseTStates[op])

	switch {
	case op == opDJNZ || (op >= 0x20 && op <= 0x38 && op&0x07 == 0):
		// DJNZ, JR cc
		if newPC != pc+2 {
			t += 5
		}
	case op&0xc7 == 0xc4:
		// CALL cc
		if newPC != pc+3 {
			t += 7
		}
	case op&0xc7 == 0xc0:
		// RET cc
		if newPC != pc+1 {
			t += 6
		}
	}

	return t
}

//
func cbTStates(op byte, indexed bool) uint32 {
	hl := op&0x07 == 0x06
	bit := op&0xc0 == 0x40
	switch {
	case indexed && bit:
		return 20
	case indexed:
		return 23
	case hl && bit:
		return 12
	case hl:
		return 15
	}
	return 8
}

//
func edTStates(op byte, repeating bool) uint32 {
	switch {
	case op >= 0xa0 && op <= 0xbb && op&0x04 == 0:
		// block transfer, compare, and I/O
		if op >= 0xb0 && repeating {
			return 21
		}
		return 16
	case op&0xc7 == 0x40, op&0xc7 == 0x41:
		// IN r,(C) and OUT (C),r
		return 12
	case op&0xc7 == 0x42:
		// ADC/SBC HL,rr
		return 15
	case op&0xc7 == 0x43:
		// LD (nn),rr and LD rr,(nn)
		return 20
	case op&0xc7 == 0x45:
		// RETN, RETI
		return 14
	case op == 0x67, op == 0x6f:
		// RRD, RLD
		return 18
	case op == 0x47, op == 0x4f, op == 0x57, op == 0x5f:
		return 9
	}
	return 8
}

//
func indexTStates(op, op3 byte) uint32 {

	if op == prefixCB {
		return cbTStates(op3, true)
	}

	switch op {
	case 0x21: // LD IX,nn
		return 14
	case 0x22, 0x2a: // LD (nn),IX and LD IX,(nn)
		return 20
	case 0x34, 0x35: // INC/DEC (IX+d)
		return 23
	case 0x36: // LD (IX+d),n
		return 19
	case 0xe1: // POP IX
		return 14
	case 0xe5: // PUSH IX
		return 15
	case 0xe3: // EX (SP),IX
		return 23
	case 0xe9: // JP (IX)
		return 8
	case 0xf9: // LD SP,IX
		return 10
	}

	// anything addressing memory through (HL) becomes (IX+d)
	if op >= 0x40 && op < 0xc0 && baseTStates[op] == 7 {
		return 19
	}
	return uint32(baseTStates[op]) + 4
}
