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

// Geometry of a soft-sectored disk
type Geometry struct {
	Sides           int
	Tracks          int
	SectorsPerTrack int
	SectorSize      int
}

//
func (g Geometry) Size() int {
	return g.Sides * g.Tracks * g.SectorsPerTrack * g.SectorSize
}

//
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%dx%d",
		g.Sides, g.Tracks, g.SectorsPerTrack, g.SectorSize)
}

// known geometries, by image size
var geometries = []Geometry{
	{1, 40, 10, 256},
	{1, 40, 16, 256},
	{2, 40, 10, 256},
	{2, 40, 16, 256},
	{2, 80, 10, 256},
	{2, 80, 16, 256},
	{1, 80, 5, 1024},
}

// GeometryForSize finds the known geometry matching an image size.
func GeometryForSize(size int) (Geometry, error) {
	for _, g := range geometries {
		if g.Size() == size {
			return g, nil
		}
	}
	return Geometry{}, fmt.Errorf(
		"no soft-sectored geometry for image size %d", size)
}

/*
	SoftSectoredDisk stores sector content only, side-major, sectors numbered
	from 1 within each track. Track level access presents the sectors of a
	track back to back.
*/
type SoftSectoredDisk struct {
	image
	geometry Geometry
}

//
func NewSoftSectoredDisk(g Geometry) (*SoftSectoredDisk, error) {
	if g.Size() <= 0 || g.Sides > MaxSides {
		return nil, fmt.Errorf("invalid geometry: %s", g)
	}
	return &SoftSectoredDisk{
		image:    image{data: make([]byte, g.Size())},
		geometry: g,
	}, nil
}

//
func ReadSoftSectoredDisk(in io.Reader, name string) (*SoftSectoredDisk, error) {

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	g, err := GeometryForSize(len(data))
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"name": name, "geometry": g}).Debug("soft-sectored disk loaded")

	return &SoftSectoredDisk{
		image:    image{name: name, data: data},
		geometry: g,
	}, nil
}

//
func (d *SoftSectoredDisk) Type() Type {
	return TypeSoftSectored
}

//
func (d *SoftSectoredDisk) Geometry() Geometry {
	return d.geometry
}

//
func (d *SoftSectoredDisk) Sides() int {
	return d.geometry.Sides
}

//
func (d *SoftSectoredDisk) Tracks() int {
	return d.geometry.Tracks
}

//
func (d *SoftSectoredDisk) SectorSize() int {
	return d.geometry.SectorSize
}

//
func (d *SoftSectoredDisk) SectorsPerTrack() int {
	return d.geometry.SectorsPerTrack
}

//
func (d *SoftSectoredDisk) TrackLength() int {
	return d.geometry.SectorsPerTrack * d.geometry.SectorSize
}

//
func (d *SoftSectoredDisk) trackOffset(side, track int) int {
	g := d.geometry
	if side < 0 || side >= g.Sides || track < 0 || track >= g.Tracks {
		return -1
	}
	return (side*g.Tracks + track) * d.TrackLength()
}

//
func (d *SoftSectoredDisk) sectorOffset(side, track, sector, pos int) int {
	t := d.trackOffset(side, track)
	if t < 0 || sector < 1 || sector > d.geometry.SectorsPerTrack ||
		pos < 0 || pos >= d.geometry.SectorSize {
		return -1
	}
	return t + (sector-1)*d.geometry.SectorSize + pos
}

//
func (d *SoftSectoredDisk) ReadSectorData(side, track, sector, pos int) (byte, bool) {
	return d.read(d.sectorOffset(side, track, sector, pos))
}

//
func (d *SoftSectoredDisk) WriteSectorData(side, track, sector, pos int, val byte) bool {
	return d.write(d.sectorOffset(side, track, sector, pos), val)
}

//
func (d *SoftSectoredDisk) ReadData(side, track, pos int) (byte, bool) {
	t := d.trackOffset(side, track)
	if t < 0 || pos < 0 || pos >= d.TrackLength() {
		return 0, false
	}
	return d.read(t + pos)
}

//
func (d *SoftSectoredDisk) WriteData(side, track, pos int, val byte) bool {
	t := d.trackOffset(side, track)
	if t < 0 || pos < 0 || pos >= d.TrackLength() {
		return false
	}
	return d.write(t+pos, val)
}

//
func (d *SoftSectoredDisk) Emit(w io.Writer) {
	d.emit(w, d.Type(), d.geometry.Sides, d.geometry.Tracks)
	fmt.Fprintf(w, "sectors/track:   %d\n", d.geometry.SectorsPerTrack)
	fmt.Fprintf(w, "sector size:     %d\n", d.geometry.SectorSize)
}

//
func (d *SoftSectoredDisk) Eject(file string) error {
	return d.persist(file)
}
