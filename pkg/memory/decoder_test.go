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
	"testing"

	"github.com/xelalexv/h89emu/pkg/test"
)

// newMarkedDecoder installs a layout per bank whose single RAM page carries
// the bank number at address 0
func newMarkedDecoder(t *testing.T, d Decoder, arena *Arena) {
	for b := 0; b < d.BankCount(); b++ {
		l := NewLayout(arena)
		ram := NewRAM()
		ram.Write(0, byte(b))
		l.SetSlot(0, arena.Add(ram))
		d.AddLayout(b, l)
	}
}

//
func TestH89DecoderFollowsOrg0(t *testing.T) {

	arena := NewArena()
	d := NewH89Decoder(arena)
	newMarkedDecoder(t, d, arena)

	for _, tc := range []struct {
		gpo  byte
		bank int
	}{
		{0x00, 0}, {0x20, 1}, {0xdf, 0}, {0xff, 1}, {0x02, 0}, {0x22, 1},
	} {
		d.GppNewValue(tc.gpo)
		test.ExpectEquality(t, d.CurrentBank(), tc.bank, tc.gpo)
		test.ExpectEquality(t, d.Read(0), byte(tc.bank), tc.gpo)
	}

	d.Reset()
	test.ExpectEquality(t, d.CurrentBank(), 0)
}

//
func TestH88DecoderIgnoresGpp(t *testing.T) {
	arena := NewArena()
	d := NewH88Decoder(arena)
	newMarkedDecoder(t, d, arena)
	for gpo := 0; gpo < 256; gpo++ {
		d.GppNewValue(byte(gpo))
		test.ExpectEquality(t, d.CurrentBank(), 0)
	}
	test.ExpectEquality(t, d.GppBits(), byte(0))
}

//
func TestAddLayoutOutOfRange(t *testing.T) {
	arena := NewArena()
	d := NewH89Decoder(arena)
	d.AddLayout(2, NewLayout(arena))
	d.AddLayout(-1, NewLayout(arena))
	test.ExpectEquality(t, d.BankCount(), 2)
	// default layouts still resolve
	test.ExpectEquality(t, d.PageByAddress(0x1234).Kind(), KindNil)
}

//
func TestBankSwitchDeterminism(t *testing.T) {

	arena := NewArena()
	d := NewH89Decoder(arena)

	// bank after any sequence only depends on interesting bits of the last
	// write
	seqs := [][]byte{
		{0x20, 0x00, 0xff, 0x1f},
		{0x00, 0x3f, 0xdf},
		{0xff, 0x20},
	}
	for _, seq := range seqs {
		for _, v := range seq {
			d.GppNewValue(v)
		}
		last := seq[len(seq)-1]
		want := 0
		if last&d.GppBits() != 0 {
			want = 1
		}
		test.ExpectEquality(t, d.CurrentBank(), want, seq)
	}
}

//
func TestMMSUnlockSequence(t *testing.T) {

	arena := NewArena()
	d := NewMMS77318Decoder(arena)
	newMarkedDecoder(t, d, arena)

	// locked: bank bits ignored, only ORG-0
	d.GppNewValue(0x0c | GppOrg0Bit)
	test.ExpectEquality(t, d.CurrentBank(), 1)
	d.Reset()

	for ix, v := range unlockSequence {
		test.ExpectSuccess(t, !d.IsUnlocked(), ix)
		d.GppNewValue(v)
	}
	test.DemandEquality(t, d.IsUnlocked(), true)

	// last sequence byte 0x08 already selects bank group 2
	test.ExpectEquality(t, d.CurrentBank(), 4)

	for _, tc := range []struct {
		gpo  byte
		bank int
	}{
		{0x00, 0}, {0x20, 1}, {0x04, 2}, {0x24, 3},
		{0x08, 4}, {0x28, 5}, {0x0c, 6}, {0x2c, 7},
	} {
		d.GppNewValue(tc.gpo)
		test.ExpectEquality(t, d.CurrentBank(), tc.bank, tc.gpo)
		test.ExpectEquality(t, d.Read(0), byte(tc.bank), tc.gpo)
	}

	// unlock bits no longer relock the board
	for _, v := range []byte{0x00, 0x04, 0x0c, 0xff, 0x08} {
		d.GppNewValue(v)
		test.ExpectSuccess(t, d.IsUnlocked(), v)
	}

	d.Reset()
	test.ExpectEquality(t, d.IsUnlocked(), false)
	test.ExpectEquality(t, d.LockState(), 0)
	test.ExpectEquality(t, d.CurrentBank(), 0)
}

//
func TestMMSMismatchRestartsAtStepOne(t *testing.T) {

	d := NewMMS77318Decoder(NewArena())

	d.GppNewValue(0x04)
	d.GppNewValue(0x0c)
	d.GppNewValue(0x04)
	test.ExpectEquality(t, d.LockState(), 3)

	// deviation at step 3
	d.GppNewValue(0x00)
	test.ExpectEquality(t, d.LockState(), 1)

	// matching resumes with the second byte of the sequence
	for _, v := range unlockSequence[1:] {
		d.GppNewValue(v)
	}
	test.ExpectSuccess(t, d.IsUnlocked())
}

//
func TestMMSFullSequenceAfterMismatch(t *testing.T) {

	d := NewMMS77318Decoder(NewArena())

	// power-on write of 0 breaks the sequence right away
	d.GppNewValue(0x00)
	test.ExpectEquality(t, d.LockState(), 1)

	// the complete sequence still unlocks, its first byte is absorbed
	for _, v := range unlockSequence {
		d.GppNewValue(v)
	}
	test.ExpectSuccess(t, d.IsUnlocked())
}

//
func TestMMSMismatchAtEveryStep(t *testing.T) {
	for k := 1; k < unlocked; k++ {
		d := NewMMS77318Decoder(NewArena())
		for _, v := range unlockSequence[:k] {
			d.GppNewValue(v)
		}
		d.GppNewValue(unlockSequence[k] ^ 0x0c)
		test.ExpectEquality(t, d.LockState(), 1, k)
		test.ExpectEquality(t, d.IsUnlocked(), false, k)
	}
}
