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
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	log "github.com/sirupsen/logrus"
)

/*
	NewImageReader wraps a disk image source, and transparently decompresses
	it according to compressor. Supported are gzip, zip and 7z. For the archive
	formats, the first entry is used. Name and type of the image are taken from
	the archive entry when available.
*/
func NewImageReader(r io.ReadCloser, compressor string) (*ImageReader, error) {

	log.WithField("compressor", compressor).Debug("image reader requested")

	var ret *ImageReader
	var err error

	switch compressor {

	case "gzip", "gz":
		ret, err = getGZipReader(r)

	case "zip":
		ret, err = getZipReader(r, false)

	case "7z":
		ret, err = getZipReader(r, true)

	case "":
		ret = &ImageReader{readCloser: r}
	}

	if ret == nil && err == nil {
		err = fmt.Errorf("unsupported compressor: '%s'", compressor)
	}

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"compressor": ret.compressor,
		"name":       ret.name,
		"type":       ret.typ}).Debug("image reader created")

	return ret, nil
}

//
type ImageReader struct {
	readCloser io.ReadCloser
	//
	name       string
	typ        string
	compressor string
}

//
func (r *ImageReader) Read(p []byte) (n int, err error) {
	return r.readCloser.Read(p)
}

//
func (r *ImageReader) Close() error {
	return r.readCloser.Close()
}

//
func (r *ImageReader) Name() string {
	return r.name
}

// Type is the image type extension found inside a compressed source, if any
func (r *ImageReader) Type() string {
	return r.typ
}

//
func (r *ImageReader) Compressor() string {
	return r.compressor
}

//
func getGZipReader(r io.ReadCloser) (*ImageReader, error) {

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	ret := &ImageReader{readCloser: gzr}
	ret.name, ret.typ, _ = SplitNameTypeCompressor(gzr.Name)
	ret.compressor = "gzip"

	return ret, nil
}

//
func getZipReader(r io.ReadCloser, zip7 bool) (*ImageReader, error) {

	var sponge bytes.Buffer
	size, err := io.Copy(&sponge, r)
	if err != nil {
		return nil, err
	}
	r.Close()

	ret := &ImageReader{}

	if zip7 {
		zr, err := sevenzip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty 7-zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("7-zip archive has more than one entry, using first")
		}

		ret.name, ret.typ, _ = SplitNameTypeCompressor(zr.File[0].Name)
		ret.compressor = "7z"
		if ret.readCloser, err = zr.File[0].Open(); err != nil {
			return nil, err
		}

	} else {
		zr, err := zip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("zip archive has more than one entry, using first")
		}

		ret.name, ret.typ, _ = SplitNameTypeCompressor(zr.File[0].Name)
		ret.compressor = "zip"
		if ret.readCloser, err = zr.File[0].Open(); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

// SplitNameTypeCompressor splits an image file name into base name, image
// type extension and compressor extension, e.g. `cpm.h8d.gz` yields `cpm`,
// `h8d`, and `gz`.
func SplitNameTypeCompressor(file string) (name, typ, compressor string) {

	_, n := filepath.Split(file)

	for {
		ext := filepath.Ext(n)
		if ext == "" {
			name = n
			break
		}

		base := strings.TrimSuffix(n, ext)
		switch strings.ToLower(strings.TrimPrefix(ext, ".")) {

		case "h8d", "h17", "img", "dsk", "ssd", "z47", "8in":
			typ = strings.ToLower(ext[1:])

		case "gz", "gzip", "zip", "7z":
			compressor = strings.ToLower(ext[1:])

		default:
			return n, typ, compressor
		}
		n = base
	}

	return name, typ, compressor
}
