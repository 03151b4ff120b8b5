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
	EightInchSectorSize      = 128
	EightInchSectorsPerTrack = 26
	EightInchTracks          = 77
	// EightInchSize is the size of a flat single sided, single density image
	EightInchSize = EightInchSectorSize * EightInchSectorsPerTrack *
		EightInchTracks
)

/*
	EightInchDisk is the flat sector-major image used by the Z47 remote
	controller. It is addressed by byte offset, the controller computes
	offsets from track and sector itself.
*/
type EightInchDisk struct {
	image
}

//
func NewEightInchDisk() *EightInchDisk {
	return &EightInchDisk{image: image{data: make([]byte, EightInchSize)}}
}

// ReadEightInchDisk loads an image, truncating or zero padding it to
// EightInchSize.
func ReadEightInchDisk(in io.Reader, name string) (*EightInchDisk, error) {

	data, err := io.ReadAll(io.LimitReader(in, EightInchSize+1))
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"name": name, "length": len(data)})

	if len(data) > EightInchSize {
		logger.Warn("8-inch image too long, truncating")
		data = data[:EightInchSize]
	} else if len(data) < EightInchSize {
		logger.Warn("8-inch image too short, padding")
		data = append(data, make([]byte, EightInchSize-len(data))...)
	}

	logger.Debug("8-inch disk loaded")
	return &EightInchDisk{image: image{name: name, data: data}}, nil
}

//
func (d *EightInchDisk) Type() Type {
	return TypeEightInch
}

//
func (d *EightInchDisk) Sides() int {
	return 1
}

//
func (d *EightInchDisk) Tracks() int {
	return EightInchTracks
}

//
func (d *EightInchDisk) SectorSize() int {
	return EightInchSectorSize
}

//
func (d *EightInchDisk) SectorsPerTrack() int {
	return EightInchSectorsPerTrack
}

// ByteAt returns the byte at a flat image offset.
func (d *EightInchDisk) ByteAt(offset int) (byte, bool) {
	return d.read(offset)
}

// SetByteAt stores a byte at a flat image offset. It fails when the disk
// is write protected, or the offset is out of range.
func (d *EightInchDisk) SetByteAt(offset int, val byte) bool {
	return d.write(offset, val)
}

// Offset maps a track and a sector numbered from 1 to a flat image offset.
func (d *EightInchDisk) Offset(track, sector int) int {
	return track*EightInchSectorSize*EightInchSectorsPerTrack +
		(sector-1)*EightInchSectorSize
}

//
func (d *EightInchDisk) ReadSectorData(side, track, sector, pos int) (byte, bool) {
	if side != 0 || track < 0 || track >= EightInchTracks || sector < 1 ||
		sector > EightInchSectorsPerTrack || pos < 0 || pos >= EightInchSectorSize {
		return 0, false
	}
	return d.read(d.Offset(track, sector) + pos)
}

//
func (d *EightInchDisk) WriteSectorData(side, track, sector, pos int, val byte) bool {
	if side != 0 || track < 0 || track >= EightInchTracks || sector < 1 ||
		sector > EightInchSectorsPerTrack || pos < 0 || pos >= EightInchSectorSize {
		return false
	}
	return d.write(d.Offset(track, sector)+pos, val)
}

//
func (d *EightInchDisk) Emit(w io.Writer) {
	d.emit(w, d.Type(), 1, EightInchTracks)
	fmt.Fprintf(w, "sectors/track:   %d\n", EightInchSectorsPerTrack)
	fmt.Fprintf(w, "sector size:     %d\n", EightInchSectorSize)
}

//
func (d *EightInchDisk) Eject(file string) error {
	return d.persist(file)
}
