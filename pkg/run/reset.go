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
	"fmt"
)

//
func NewReset() *Reset {
	r := &Reset{}
	r.Runner = *NewRunner(
		"reset [-a|--address {address}] [-y|--yes]", "press the reset key",
		`
Use the reset command to reset the running machine. Memory contents are kept, but
banking returns to its power-up state, and the CPU starts over at address 0.`,
		"", runnerHelpEpilogue, r.Run)
	r.AddBaseSettings()
	r.AddSetting(&r.Yes, "yes", "y", "", false, "skip confirmation", false)
	return r
}

//
type Reset struct {
	Runner
	//
	Yes bool
}

//
func (r *Reset) Run() error {

	r.ParseSettings()

	if !r.Yes && !GetUserConfirmation(
		fmt.Sprintf("\nreset machine at %s?", r.Address)) {
		return nil
	}

	resp, err := r.apiCall("PUT", "/reset", false, nil)
	if err != nil {
		return err
	}
	return printReply(resp)
}
