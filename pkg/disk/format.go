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
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

//
type Format interface {
	//
	Read(in io.Reader, name string) (Disk, error)
	//
	Write(d Disk, out io.Writer) error
}

//
func NewFormat(typ string) (Format, error) {
	t, err := ParseType(typ)
	if err != nil {
		return nil, err
	}
	return &rawFormat{typ: t}, nil
}

// rawFormat reads and writes plain images, as produced by Disk.Bytes
type rawFormat struct {
	typ Type
}

//
func (f *rawFormat) Read(in io.Reader, name string) (Disk, error) {
	switch f.typ {
	case TypeHardSectored:
		return ReadHardSectoredDisk(in, name)
	case TypeSoftSectored:
		return ReadSoftSectoredDisk(in, name)
	case TypeEightInch:
		return ReadEightInchDisk(in, name)
	}
	return nil, fmt.Errorf("cannot read disk type %s", f.typ)
}

//
func (f *rawFormat) Write(d Disk, out io.Writer) error {
	if d.Type() != f.typ {
		return fmt.Errorf("cannot write %s disk as %s", d.Type(), f.typ)
	}
	_, err := out.Write(d.Bytes())
	return err
}

/*
	Load reads a disk image from in. Compressor and typ may be left empty, in
	which case the source is read uncompressed, and the type is taken from the
	archive entry. When neither yields a type, load fails.
*/
func Load(in io.ReadCloser, typ, compressor, name string) (Disk, error) {

	rd, err := NewImageReader(in, compressor)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	if typ == "" {
		typ = rd.Type()
	}
	if name == "" {
		name = rd.Name()
	}

	form, err := NewFormat(typ)
	if err != nil {
		return nil, err
	}

	d, err := form.Read(rd, name)
	if err != nil {
		return nil, fmt.Errorf("disk image corrupted: %v", err)
	}

	log.WithFields(log.Fields{
		"name": d.Name(), "type": d.Type()}).Info("disk image loaded")
	return d, nil
}

// LoadFile loads a disk image from file, with type and compressor derived
// from the file name.
func LoadFile(file string) (Disk, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	name, typ, comp := SplitNameTypeCompressor(file)
	return Load(&bufferedFile{f, bufio.NewReader(f)}, typ, comp, name)
}

//
type bufferedFile struct {
	file   *os.File
	reader io.Reader
}

//
func (b *bufferedFile) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

//
func (b *bufferedFile) Close() error {
	return b.file.Close()
}

// IsCompressed tells whether a file name carries a compressor extension.
// Disks loaded from such files are not written back on eject.
func IsCompressed(file string) bool {
	_, _, comp := SplitNameTypeCompressor(file)
	return comp != ""
}
