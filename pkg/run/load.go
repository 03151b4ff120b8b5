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

package run

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

//
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		`load -d|--drive {card:drive} -i|--input {file}|-r|--ref {reference}
      [-f|--force] [-a|--address {address}]`,
		"load disk image into a drive",
		`
Use the load command to insert a disk image into a drive of the running machine.
The image is either a local file, or a reference to an image in the emulator's
repository (repo://...) or on the web (http://..., https://...). Images may be
compressed with gzip, zip, or 7z.`,
		"", `- Drives are given as {card}:{drive}, e.g. h17:0 or z37:1.

`+runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Drive, "drive", "d", "", nil, "drive to load", true)
	l.AddSetting(&l.Input, "input", "i", "", nil, "image file", false)
	l.AddSetting(&l.Ref, "ref", "r", "", nil, "image reference", false)
	l.AddSetting(&l.Force, "force", "f", "", false,
		"replace a modified disk", false)

	return l
}

//
type Load struct {
	Runner
	//
	Drive string
	Input string
	Ref   string
	Force bool
}

//
func (l *Load) Run() error {

	l.ParseSettings()

	card, drive, err := parseDrive(l.Drive)
	if err != nil {
		return err
	}

	if (l.Input == "") == (l.Ref == "") {
		return fmt.Errorf("either input file or reference required")
	}

	params := url.Values{}
	if l.Force {
		params.Set("force", "true")
	}

	var body io.Reader
	if l.Ref != "" {
		params.Set("ref", l.Ref)
	} else {
		f, err := os.Open(l.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		body = bufio.NewReader(f)
		params.Set("name", filepath.Base(l.Input))
	}

	resp, err := l.apiCall("PUT", fmt.Sprintf("/drive/%s/%d?%s",
		card, drive, params.Encode()), false, body)
	if err != nil {
		return err
	}
	return printReply(resp)
}
