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

//
func NewLs() *Ls {
	l := &Ls{}
	l.Runner = *NewRunner(
		"ls [-a|--address {address}]", "list drives",
		"\nUse the ls command to list the drives of the running machine and their disks.",
		"", runnerHelpEpilogue, l.Run)
	l.AddBaseSettings()
	return l
}

//
type Ls struct {
	Runner
}

//
func (l *Ls) Run() error {
	l.ParseSettings()
	resp, err := l.apiCall("GET", "/drives", false, nil)
	if err != nil {
		return err
	}
	return printReply(resp)
}
