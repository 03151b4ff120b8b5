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
func NewStatus() *Status {
	s := &Status{}
	s.Runner = *NewRunner(
		"status [-a|--address {address}]", "show machine status",
		"\nUse the status command to show CPU registers, memory banking, and clock of the\nrunning machine.",
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	return s
}

//
type Status struct {
	Runner
}

//
func (s *Status) Run() error {
	s.ParseSettings()
	resp, err := s.apiCall("GET", "/status", false, nil)
	if err != nil {
		return err
	}
	return printReply(resp)
}
