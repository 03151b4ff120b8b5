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
func NewEject() *Eject {

	e := &Eject{}
	e.Runner = *NewRunner(
		"eject -d|--drive {card:drive} [-a|--address {address}]",
		"eject disk from a drive",
		`
Use the eject command to remove a disk from a drive of the running machine. If the
disk came from an uncompressed image file named in the machine configuration,
changes are written back to it. To keep changes of other disks, save them with
dump --output before ejecting.`,
		"", runnerHelpEpilogue, e.Run)

	e.AddBaseSettings()
	e.AddSetting(&e.Drive, "drive", "d", "", nil, "drive to eject", true)

	return e
}

//
type Eject struct {
	Runner
	//
	Drive string
}

//
func (e *Eject) Run() error {

	e.ParseSettings()

	card, drive, err := parseDrive(e.Drive)
	if err != nil {
		return err
	}

	resp, err := e.apiCall(
		"DELETE", fmt.Sprintf("/drive/%s/%d", card, drive), false, nil)
	if err != nil {
		return err
	}
	return printReply(resp)
}
