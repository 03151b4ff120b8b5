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

// Package disk models the removable media of the H89 disk subsystems, and
// the drives holding them.
package disk

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Type is the kind of medium a disk image represents
type Type int

const (
	TypeUnknown Type = iota
	TypeHardSectored
	TypeSoftSectored
	TypeEightInch
)

//
func (t Type) String() string {
	switch t {
	case TypeHardSectored:
		return "hard-sectored"
	case TypeSoftSectored:
		return "soft-sectored"
	case TypeEightInch:
		return "8-inch"
	}
	return "unknown"
}

// ParseType maps an image file extension to the disk type it holds.
func ParseType(ext string) (Type, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "h8d", "h17":
		return TypeHardSectored, nil
	case "img", "dsk", "ssd":
		return TypeSoftSectored, nil
	case "z47", "8in":
		return TypeEightInch, nil
	}
	return TypeUnknown, fmt.Errorf("unsupported disk image type: '%s'", ext)
}

// Disk is the common part of all media.
type Disk interface {
	//
	Type() Type
	//
	Name() string
	//
	SetName(n string)
	//
	Sides() int
	//
	Tracks() int
	//
	IsWriteProtected() bool
	//
	SetWriteProtected(p bool)
	// IsModified reports whether the disk was written since load or the
	// last eject.
	IsModified() bool
	// Bytes returns the raw image content as it would be persisted.
	Bytes() []byte
	// Emit writes a human readable summary of the disk.
	Emit(w io.Writer)
	// Eject persists the disk content to file. An empty file name persists
	// nothing, and only clears the modified flag.
	Eject(file string) error
}

// TrackDisk is a disk that can be accessed by raw track position, the way
// a controller sees the medium passing under the head.
type TrackDisk interface {
	Disk
	//
	TrackLength() int
	//
	ReadData(side, track, pos int) (byte, bool)
	//
	WriteData(side, track, pos int, val byte) bool
}

// SectorDisk is a disk that can be accessed by sector.
type SectorDisk interface {
	Disk
	//
	SectorSize() int
	//
	SectorsPerTrack() int
	//
	ReadSectorData(side, track, sector, pos int) (byte, bool)
	//
	WriteSectorData(side, track, sector, pos int, val byte) bool
}

// image holds the storage and bookkeeping shared by all disk types.
type image struct {
	name           string
	data           []byte
	writeProtected bool
	modified       bool
}

//
func (i *image) Name() string {
	return i.name
}

//
func (i *image) SetName(n string) {
	i.name = n
}

//
func (i *image) IsWriteProtected() bool {
	return i.writeProtected
}

//
func (i *image) SetWriteProtected(p bool) {
	i.writeProtected = p
}

//
func (i *image) IsModified() bool {
	return i.modified
}

//
func (i *image) Bytes() []byte {
	return i.data
}

//
func (i *image) read(offset int) (byte, bool) {
	if offset < 0 || offset >= len(i.data) {
		return 0, false
	}
	return i.data[offset], true
}

//
func (i *image) write(offset int, val byte) bool {
	if i.writeProtected || offset < 0 || offset >= len(i.data) {
		return false
	}
	i.data[offset] = val
	i.modified = true
	return true
}

//
func (i *image) persist(file string) error {

	if file == "" {
		i.modified = false
		return nil
	}

	logger := log.WithFields(log.Fields{"name": i.name, "file": file})

	if err := os.WriteFile(file, i.data, 0644); err != nil {
		logger.Errorf("cannot persist disk: %v", err)
		return fmt.Errorf("cannot persist disk '%s' to %s: %v", i.name, file, err)
	}

	i.modified = false
	logger.Info("disk persisted")
	return nil
}

//
func (i *image) emit(w io.Writer, t Type, sides, tracks int) {
	fmt.Fprintf(w, "\n%s\n\n", i.name)
	fmt.Fprintf(w, "type:            %s\n", t)
	fmt.Fprintf(w, "sides:           %d\n", sides)
	fmt.Fprintf(w, "tracks:          %d\n", tracks)
	fmt.Fprintf(w, "size:            %d\n", len(i.data))
	fmt.Fprintf(w, "write protected: %v\n", i.writeProtected)
	fmt.Fprintf(w, "modified:        %v\n", i.modified)
}
