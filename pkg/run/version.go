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
	"io"
	"strings"

	"github.com/xelalexv/h89emu/pkg/util"
)

//
func NewVersion() *Version {
	v := &Version{}
	v.Runner = *NewRunner(
		"version", "get client & emulator version info", "", "", "", v.Run)
	v.AddBaseSettings()
	return v
}

//
type Version struct {
	Runner
}

//
func (v *Version) Run() error {

	v.ParseSettings()

	resp, err := v.apiCall("GET", "/version", false, nil)
	if err != nil {
		PrintVersion("emulator:   not reachable\n")
		return nil
	}
	defer resp.Close()

	buf := new(strings.Builder)
	if _, err = io.Copy(buf, resp); err != nil {
		return err
	}

	PrintVersion(buf.String())
	return nil
}

//
func PrintVersion(remote string) {
	fmt.Printf(`
  _   _  ___   ___
 | | | |( _ ) / _ \  ___ _ __ ___  _   _
 | |_| |/ _ \| (_) |/ _ \ '_ ' _ \| | | |
 |  _  | (_) |\__, |  __/ | | | | | |_| |
 |_| |_|\___/   /_/ \___|_| |_| |_|\__,_|

 Heathkit H89/H88 emulator

h89:        %s
`, util.H89EmuVersion)
	if remote != "" {
		fmt.Printf("%s", remote)
	}
	fmt.Println()
}
