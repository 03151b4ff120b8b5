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

	log "github.com/sirupsen/logrus"
)

/*
	Drive is a floppy drive mechanism: it holds at most one disk, and tracks
	head position, selected side, and motor state. Reads and writes go to the
	track under the head.
*/
type Drive struct {
	name      string
	maxTracks int
	sides     int
	//
	disk  Disk
	file  string
	track int
	side  int
	motor bool
}

// NewDrive creates an empty drive whose head can travel over maxTracks
// tracks, and which can read the given number of sides.
func NewDrive(name string, maxTracks, sides int) *Drive {
	if sides < 1 {
		sides = 1
	}
	return &Drive{name: name, maxTracks: maxTracks, sides: sides}
}

//
func (d *Drive) Name() string {
	return d.name
}

//
func (d *Drive) MaxTracks() int {
	return d.maxTracks
}

// Insert puts a disk into the drive. file is where the disk gets persisted
// on eject, and may be empty. A disk already present is ejected first,
// without persisting.
func (d *Drive) Insert(disk Disk, file string) {
	if d.disk != nil {
		log.WithField("drive", d.name).Warn("replacing disk in drive")
	}
	d.disk = disk
	d.file = file
	log.WithFields(log.Fields{
		"drive": d.name, "disk": disk.Name(), "file": file}).Info("disk inserted")
}

// Eject removes the disk from the drive, and persists it to file if it was
// modified. When file is empty, the file given on insert is used, unless
// that is a compressed image.
func (d *Drive) Eject(file string) (Disk, error) {

	if d.disk == nil {
		return nil, fmt.Errorf("no disk in drive %s", d.name)
	}

	ret := d.disk
	if file == "" && d.file != "" && !IsCompressed(d.file) {
		file = d.file
	}

	var err error
	if ret.IsModified() {
		if file == "" {
			log.WithField("drive", d.name).Warn(
				"discarding changes of ejected disk, no file to persist to")
		}
		err = ret.Eject(file)
	}

	d.disk = nil
	d.file = ""
	log.WithField("drive", d.name).Info("disk ejected")

	return ret, err
}

//
func (d *Drive) Disk() Disk {
	return d.disk
}

//
func (d *Drive) HasDisk() bool {
	return d.disk != nil
}

//
func (d *Drive) File() string {
	return d.file
}

// Step moves the head one track inwards (towards higher track numbers) or
// outwards, stopping at the mechanical limits.
func (d *Drive) Step(in bool) {
	if in {
		if d.track < d.maxTracks-1 {
			d.track++
		}
	} else if d.track > 0 {
		d.track--
	}
	log.WithFields(log.Fields{"drive": d.name, "track": d.track}).Trace("step")
}

//
func (d *Drive) Track() int {
	return d.track
}

//
func (d *Drive) SetTrack(t int) {
	if t < 0 {
		t = 0
	} else if t >= d.maxTracks {
		t = d.maxTracks - 1
	}
	d.track = t
}

//
func (d *Drive) IsTrackZero() bool {
	return d.track == 0
}

//
func (d *Drive) SelectSide(side int) {
	if side < 0 || side >= d.sides {
		side = 0
	}
	d.side = side
}

//
func (d *Drive) Side() int {
	return d.side
}

//
func (d *Drive) SetMotor(on bool) {
	d.motor = on
}

//
func (d *Drive) IsMotorOn() bool {
	return d.motor
}

// IsWriteProtected reports the write protect sensor. An empty drive
// reports protected, the sensor sees no notch.
func (d *Drive) IsWriteProtected() bool {
	return d.disk == nil || d.disk.IsWriteProtected()
}

// ReadData reads a raw byte at pos of the track under the head.
func (d *Drive) ReadData(pos int) (byte, bool) {
	if td, ok := d.disk.(TrackDisk); ok {
		return td.ReadData(d.side, d.track, pos)
	}
	return 0, false
}

//
func (d *Drive) WriteData(pos int, val byte) bool {
	if td, ok := d.disk.(TrackDisk); ok {
		return td.WriteData(d.side, d.track, pos, val)
	}
	return false
}

// TrackLength is the raw length of the track under the head, 0 for an
// empty drive.
func (d *Drive) TrackLength() int {
	if td, ok := d.disk.(TrackDisk); ok {
		return td.TrackLength()
	}
	return 0
}

// ReadSectorData reads from a sector of the track under the head, on the
// given side.
func (d *Drive) ReadSectorData(side, sector, pos int) (byte, bool) {
	if sd, ok := d.disk.(SectorDisk); ok {
		return sd.ReadSectorData(side, d.track, sector, pos)
	}
	return 0, false
}

//
func (d *Drive) WriteSectorData(side, sector, pos int, val byte) bool {
	if sd, ok := d.disk.(SectorDisk); ok {
		return sd.WriteSectorData(side, d.track, sector, pos, val)
	}
	return false
}

//
func (d *Drive) SectorDisk() (SectorDisk, bool) {
	sd, ok := d.disk.(SectorDisk)
	return sd, ok
}
