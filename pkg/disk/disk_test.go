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

package disk

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/xelalexv/h89emu/pkg/test"
)

//
func TestHardSectoredEjectRoundTrip(t *testing.T) {

	d, err := NewHardSectoredDisk(2, 40)
	test.DemandSuccess(t, err)

	type pos struct{ side, track, pos int }
	written := map[pos]byte{
		{0, 0, 0}:                  0xa5,
		{0, 39, BytesPerTrack - 1}: 0x5a,
		{1, 0, 17}:                 0xfd,
		{1, 22, 1234}:              0x42,
		{1, 5, 100}:                0x77,
	}

	for p, v := range written {
		test.ExpectSuccess(t, d.WriteData(p.side, p.track, p.pos, v))
	}
	test.ExpectSuccess(t, d.IsModified())

	file := filepath.Join(t.TempDir(), "test.h8d")
	test.DemandSuccess(t, d.Eject(file))
	test.ExpectFailure(t, d.IsModified())

	loaded, err := LoadFile(file)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, loaded.Type(), TypeHardSectored)
	test.ExpectEquality(t, loaded.Sides(), 2)
	test.ExpectEquality(t, loaded.Tracks(), 40)
	test.ExpectEquality(t, loaded.Name(), "test")

	hs, ok := loaded.(*HardSectoredDisk)
	test.DemandSuccess(t, ok)
	for p, v := range written {
		got, ok := hs.ReadData(p.side, p.track, p.pos)
		test.ExpectSuccess(t, ok, p)
		test.ExpectEquality(t, got, v, p)
	}
}

//
func TestHardSectoredGeometry(t *testing.T) {

	tests := []struct {
		length int
		sides  int
		tracks int
	}{
		{35 * BytesPerTrack, 1, 35},
		{40 * BytesPerTrack, 1, 40},
		{70 * BytesPerTrack, 2, 35},
		{80 * BytesPerTrack, 2, 40},
		{81 * BytesPerTrack, 2, 40},
		{160 * BytesPerTrack, 2, 80},
		{80*BytesPerTrack + 100, 2, 40},
		{200 * BytesPerTrack, 2, 80},
	}

	for _, tc := range tests {
		d, err := ReadHardSectoredDisk(
			bytes.NewReader(make([]byte, tc.length)), "x")
		test.DemandSuccess(t, err, tc.length)
		test.ExpectEquality(t, d.Sides(), tc.sides, tc.length)
		test.ExpectEquality(t, d.Tracks(), tc.tracks, tc.length)
	}

	_, err := ReadHardSectoredDisk(bytes.NewReader(make([]byte, 100)), "x")
	test.ExpectFailure(t, err)

	_, err = NewHardSectoredDisk(3, 40)
	test.ExpectFailure(t, err)
}

//
func TestHardSectoredAccess(t *testing.T) {

	d, err := NewHardSectoredDisk(1, 40)
	test.DemandSuccess(t, err)

	test.ExpectFailure(t, d.WriteData(1, 0, 0, 1))
	test.ExpectFailure(t, d.WriteData(0, 40, 0, 1))
	test.ExpectFailure(t, d.WriteData(0, 0, BytesPerTrack, 1))

	_, ok := d.ReadSectorData(0, 0, 1, 0)
	test.ExpectFailure(t, ok)

	d.SetWriteProtected(true)
	test.ExpectFailure(t, d.WriteData(0, 0, 0, 1))
	test.ExpectFailure(t, d.IsModified())
}

//
func TestSoftSectored(t *testing.T) {

	g, err := GeometryForSize(327680)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, g, Geometry{2, 40, 16, 256})

	_, err = GeometryForSize(12345)
	test.ExpectFailure(t, err)

	d, err := NewSoftSectoredDisk(g)
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, d.WriteSectorData(1, 3, 2, 5, 0x77))
	v, ok := d.ReadSectorData(1, 3, 2, 5)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, byte(0x77))

	// same byte through the raw track view
	v, ok = d.ReadData(1, 3, 256+5)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, byte(0x77))

	_, ok = d.ReadSectorData(0, 0, 0, 0)
	test.ExpectFailure(t, ok)
	_, ok = d.ReadSectorData(0, 0, 17, 0)
	test.ExpectFailure(t, ok)
}

//
func TestEightInch(t *testing.T) {

	test.ExpectEquality(t, EightInchSize, 256256)

	short, err := ReadEightInchDisk(bytes.NewReader([]byte{1, 2, 3}), "short")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(short.Bytes()), EightInchSize)
	v, _ := short.ByteAt(2)
	test.ExpectEquality(t, v, byte(3))
	v, _ = short.ByteAt(EightInchSize - 1)
	test.ExpectEquality(t, v, byte(0))

	long, err := ReadEightInchDisk(
		bytes.NewReader(make([]byte, EightInchSize+500)), "long")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(long.Bytes()), EightInchSize)

	d := NewEightInchDisk()
	test.ExpectEquality(t, d.Offset(5, 1), 5*128*26)
	test.ExpectSuccess(t, d.WriteSectorData(0, 5, 1, 0, 0x99))
	v, _ = d.ByteAt(5 * 128 * 26)
	test.ExpectEquality(t, v, byte(0x99))
	test.ExpectFailure(t, d.SetByteAt(EightInchSize, 1))
}

//
func TestSplitNameTypeCompressor(t *testing.T) {

	tests := []struct {
		file, name, typ, comp string
	}{
		{"/images/cpm.h8d", "cpm", "h8d", ""},
		{"cpm.H8D.gz", "cpm", "h8d", "gz"},
		{"hdos.z47.7z", "hdos", "z47", "7z"},
		{"games.v2.img.zip", "games.v2", "img", "zip"},
		{"plain", "plain", "", ""},
	}

	for _, tc := range tests {
		n, typ, c := SplitNameTypeCompressor(tc.file)
		test.ExpectEquality(t, n, tc.name, tc.file)
		test.ExpectEquality(t, typ, tc.typ, tc.file)
		test.ExpectEquality(t, c, tc.comp, tc.file)
	}
}

//
func TestLoadCompressed(t *testing.T) {

	raw := make([]byte, 40*BytesPerTrack)
	raw[3200] = 0xcc

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Name = "boot.h8d"
	_, err := gw.Write(raw)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, gw.Close())

	d, err := Load(io.NopCloser(&gz), "", "gz", "")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Type(), TypeHardSectored)
	test.ExpectEquality(t, d.Name(), "boot")
	test.ExpectEquality(t, d.Bytes()[3200], byte(0xcc))

	var zb bytes.Buffer
	zw := zip.NewWriter(&zb)
	f, err := zw.Create("sys.z47")
	test.DemandSuccess(t, err)
	_, err = f.Write([]byte{9, 8, 7})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, zw.Close())

	d, err = Load(io.NopCloser(&zb), "", "zip", "")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, d.Type(), TypeEightInch)
	test.ExpectEquality(t, len(d.Bytes()), EightInchSize)

	_, err = Load(io.NopCloser(bytes.NewReader(raw)), "", "", "")
	test.ExpectFailure(t, err)

	_, err = Load(io.NopCloser(bytes.NewReader(raw)), "h8d", "rar", "")
	test.ExpectFailure(t, err)
}

//
func TestDrive(t *testing.T) {

	dr := NewDrive("sy0", 40, 1)
	test.ExpectSuccess(t, dr.IsTrackZero())
	test.ExpectSuccess(t, dr.IsWriteProtected())

	dr.Step(false)
	test.ExpectEquality(t, dr.Track(), 0)
	for i := 0; i < 50; i++ {
		dr.Step(true)
	}
	test.ExpectEquality(t, dr.Track(), 39)

	_, ok := dr.ReadData(0)
	test.ExpectFailure(t, ok)

	d, err := NewHardSectoredDisk(1, 40)
	test.DemandSuccess(t, err)
	file := filepath.Join(t.TempDir(), "drive.h8d")
	dr.Insert(d, file)
	test.ExpectFailure(t, dr.IsWriteProtected())

	test.ExpectSuccess(t, dr.WriteData(10, 0x31))
	v, ok := dr.ReadData(10)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, byte(0x31))
	test.ExpectEquality(t, dr.TrackLength(), BytesPerTrack)

	dr.SelectSide(1)
	test.ExpectEquality(t, dr.Side(), 0)

	_, err = dr.Eject("")
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, dr.HasDisk())

	data, err := os.ReadFile(file)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, data[39*BytesPerTrack+10], byte(0x31))

	_, err = dr.Eject("")
	test.ExpectFailure(t, err)
}
