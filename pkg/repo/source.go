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

package repo

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// MaxImageSize limits how much is read from a source. The largest images,
// double sided 80 track soft-sectored disks, are 800K.
const MaxImageSize = 2 * 1024 * 1024

// how long to wait for a web server
const httpTimeout = 30 * time.Second

//
var httpClient = &http.Client{Timeout: httpTimeout}

// FileSource reads an image file from the repository
type FileSource struct {
	file   *os.File
	reader io.Reader
}

//
func NewFileSource(file string) (*FileSource, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	return &FileSource{
		file:   f,
		reader: io.LimitReader(bufio.NewReader(f), MaxImageSize),
	}, nil
}

//
func (fs *FileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *FileSource) Close() error {
	return fs.file.Close()
}

// HTTPSource downloads an image
type HTTPSource struct {
	url      string
	response *http.Response
	reader   io.Reader
}

//
func NewHTTPSource(url string) (*HTTPSource, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cannot get %s: %s", url, resp.Status)
	}
	return &HTTPSource{
		url:      url,
		response: resp,
		reader:   io.LimitReader(resp.Body, MaxImageSize),
	}, nil
}

//
func (hs *HTTPSource) Read(p []byte) (n int, err error) {
	return hs.reader.Read(p)
}

//
func (hs *HTTPSource) Close() error {
	return hs.response.Body.Close()
}
