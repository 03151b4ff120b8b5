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

package control

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xelalexv/h89emu/pkg/machine"
)

//
func (a *api) driveList(w http.ResponseWriter, req *http.Request) {

	drives := a.machine.Drives()

	if wantsJSON(req) {
		sendJSONReply(drives, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	WriteDriveList(&sb, drives)
	sendReply([]byte(sb.String()), http.StatusOK, w)
}

//
func (a *api) driveInfo(w http.ResponseWriter, req *http.Request) {

	card, drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	info, err := a.machine.DriveInfo(card, drive)
	if handleError(err, driveErrorStatus(err), w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(info, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	WriteDriveList(&sb, []*machine.DriveInfo{info})
	sendReply([]byte(sb.String()), http.StatusOK, w)
}

// dump sends the raw image of the disk in a drive. The image is copied
// first, so the machine is not held up by a slow client.
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	card, drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	var buf bytes.Buffer
	err := a.machine.DumpDisk(card, drive, &buf)
	if handleError(err, driveErrorStatus(err), w) {
		return
	}

	sendStreamReply(&buf, http.StatusOK, w)
}

//
func WriteDriveList(w io.Writer, drives []*machine.DriveInfo) {

	fmt.Fprintf(w, "\n%-5s %-5s %-3s %-20s %-14s %-6s %s\n",
		"CARD", "DRIVE", "", "NAME", "TYPE", "TRACK", "FILE")

	for _, d := range drives {
		if !d.Loaded {
			fmt.Fprintf(w, "%-5s %-5d %-3s %-20s\n", d.Card, d.Drive, "", "-")
			continue
		}
		flags := ""
		if d.WriteProtected {
			flags += "P"
		}
		if d.Modified {
			flags += "*"
		}
		fmt.Fprintf(w, "%-5s %-5d %-3s %-20s %-14s %-6d %s\n",
			d.Card, d.Drive, flags, d.Name, d.Type, d.Track, d.File)
	}

	fmt.Fprintln(w, "\nP: write protected, *: modified")
}
