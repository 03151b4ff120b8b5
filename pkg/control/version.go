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
	"net/http"

	"github.com/xelalexv/h89emu/pkg/util"
)

// Version of the running emulator
type Version struct {
	Emulator string `json:"emulator"`
	Variant  string `json:"variant"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("emulator:   %s (%s)\n", v.Emulator, v.Variant)
}

//
func (a *api) version(w http.ResponseWriter, req *http.Request) {

	ver := &Version{
		Emulator: util.H89EmuVersion,
		Variant:  a.machine.Status().Variant,
	}

	if wantsJSON(req) {
		sendJSONReply(ver, http.StatusOK, w)
	} else {
		sendReply([]byte(ver.String()), http.StatusOK, w)
	}
}
