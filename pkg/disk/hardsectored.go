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
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

const (
	// BytesPerTrack is the raw length of a hard-sectored track, including
	// sync bytes and sector headers
	BytesPerTrack = 3200
	// StandardTracks per side of the stock H-17 drives
	StandardTracks = 40
	// MaxHardSectoredTracks per side
	MaxHardSectoredTracks = 80
	// MaxSides for all 5.25" media
	MaxSides = 2
	// HardSectors is the number of sector holes per track
	HardSectors = 10
)

/*
	HardSectoredDisk stores raw track content, side-major: all tracks of side
	0 followed by all tracks of side 1.
*/
type HardSectoredDisk struct {
	image
	sides  int
	tracks int
}

// NewHardSectoredDisk creates a blank disk with the given geometry.
func NewHardSectoredDisk(sides, tracks int) (*HardSectoredDisk, error) {
	if sides < 1 || sides > MaxSides {
		return nil, fmt.Errorf("invalid number of sides: %d", sides)
	}
	if tracks < 1 || tracks > MaxHardSectoredTracks {
		return nil, fmt.Errorf("invalid number of tracks: %d", tracks)
	}
	return &HardSectoredDisk{
		image:  image{data: make([]byte, sides*tracks*BytesPerTrack)},
		sides:  sides,
		tracks: tracks,
	}, nil
}

// ReadHardSectoredDisk loads a raw track dump. Side and track count are
// derived from the data length: up to 40 tracks are single sided, longer
// images are two sided. Trailing bytes not filling a whole track are dropped.
func ReadHardSectoredDisk(in io.Reader, name string) (*HardSectoredDisk, error) {

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	total := len(data) / BytesPerTrack
	if total == 0 {
		return nil, fmt.Errorf("image too small for hard-sectored disk: %d bytes",
			len(data))
	}

	// anything beyond one side of a standard 40 track disk is two sided,
	// so an 80 track image is 2x40 as written by the H-17 drives
	sides := 1
	tracks := total
	if total > StandardTracks {
		sides = 2
		tracks = total / 2
	}
	if tracks > MaxHardSectoredTracks {
		tracks = MaxHardSectoredTracks
	}

	size := sides * tracks * BytesPerTrack
	if size != len(data) {
		log.WithFields(log.Fields{
			"name":   name,
			"length": len(data),
			"used":   size}).Warn("hard-sectored image has excess data")
	}

	log.WithFields(log.Fields{
		"name": name, "sides": sides, "tracks": tracks}).Debug(
		"hard-sectored disk loaded")

	return &HardSectoredDisk{
		image:  image{name: name, data: data[:size]},
		sides:  sides,
		tracks: tracks,
	}, nil
}

//
func (d *HardSectoredDisk) Type() Type {
	return TypeHardSectored
}

//
func (d *HardSectoredDisk) Sides() int {
	return d.sides
}

//
func (d *HardSectoredDisk) Tracks() int {
	return d.tracks
}

//
func (d *HardSectoredDisk) TrackLength() int {
	return BytesPerTrack
}

//
func (d *HardSectoredDisk) offset(side, track, pos int) int {
	if side < 0 || side >= d.sides || track < 0 || track >= d.tracks ||
		pos < 0 || pos >= BytesPerTrack {
		return -1
	}
	return (side*d.tracks+track)*BytesPerTrack + pos
}

//
func (d *HardSectoredDisk) ReadData(side, track, pos int) (byte, bool) {
	return d.read(d.offset(side, track, pos))
}

//
func (d *HardSectoredDisk) WriteData(side, track, pos int, val byte) bool {
	return d.write(d.offset(side, track, pos), val)
}

// ReadSectorData is not supported for hard-sectored media, the controller
// software locates sectors itself in the raw track stream.
func (d *HardSectoredDisk) ReadSectorData(side, track, sector, pos int) (byte, bool) {
	return 0, false
}

//
func (d *HardSectoredDisk) Emit(w io.Writer) {
	d.emit(w, d.Type(), d.sides, d.tracks)
}

//
func (d *HardSectoredDisk) Eject(file string) error {
	return d.persist(file)
}
