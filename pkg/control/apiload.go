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
	"fmt"
	"io"
	"net/http"

	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/repo"
)

/*
	load inserts an image into a drive. The image is either the request body,
	or given by a repository or web reference in the ref argument. Type and
	compressor are taken from the reference or the name argument, and can be
	set explicitly with the type and compressor arguments. A modified disk in
	the drive is only replaced when the force flag is set.
*/
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	card, drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	var in io.ReadCloser
	file := getArg(req, "name")

	if ref, err := getRef(req); ref != "" {
		if err == nil {
			in, file, err = repo.Resolve(ref, a.repository)
		}
		if err != nil {
			handleError(err, http.StatusNotAcceptable, w)
			return
		}
	} else {
		in = http.MaxBytesReader(w, req.Body, repo.MaxImageSize)
	}

	name, typ, comp := disk.SplitNameTypeCompressor(file)
	if t := getArg(req, "type"); t != "" {
		typ = t
	}
	if c := getArg(req, "compressor"); c != "" {
		comp = c
	}

	d, err := disk.Load(in, typ, comp, name)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	err = a.machine.Load(card, drive, d, "", isFlagSet(req, "force"))
	if handleError(err, driveErrorStatus(err), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"loaded %s into %s drive %d", d.Name(), card, drive)), http.StatusOK, w)
}

// eject removes the disk from a drive. Changes are persisted when the disk
// was loaded from an uncompressed file.
func (a *api) eject(w http.ResponseWriter, req *http.Request) {

	card, drive := getDrive(w, req)
	if drive == -1 {
		return
	}

	d, err := a.machine.Eject(card, drive)
	if d == nil {
		handleError(err, driveErrorStatus(err), w)
		return
	}
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"ejected %s from %s drive %d", d.Name(), card, drive)), http.StatusOK, w)
}
