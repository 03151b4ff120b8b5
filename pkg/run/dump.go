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
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/xelalexv/h89emu/pkg/disk"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		`dump [-d|--drive {card:drive}] [-i|--input {file}] [-o|--output {file}]
      [-m|--memory {address}] [-l|--length {bytes}] [-a|--address {address}]`,
		"dump disk image from file or drive, or machine memory",
		`
Use the dump command to output a hex dump of a disk image, read either from file or
from a drive of the running machine, or to dump the running machine's memory.`,
		"", `- With --output, the raw disk image is written to the given file instead
  of printing a hex dump. This can be used to save a disk from a drive.

- Memory addresses and lengths may be given in hex with a 0x prefix.

`+runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Input, "input", "i", "", nil, "disk image file", false)
	d.AddSetting(&d.Drive, "drive", "d", "", nil, "drive to dump", false)
	d.AddSetting(&d.Output, "output", "o", "", nil,
		"write raw image to this file", false)
	d.AddSetting(&d.Memory, "memory", "m", "", nil,
		"dump memory starting at this address", false)
	d.AddSetting(&d.Length, "length", "l", "", "256",
		"number of memory bytes to dump", false)

	return d
}

//
type Dump struct {
	Runner
	//
	Input  string
	Drive  string
	Output string
	Memory string
	Length string
}

//
func (d *Dump) Run() error {

	d.ParseSettings()

	switch {
	case d.Input != "":
		return d.dumpFile()
	case d.Drive != "":
		return d.dumpDrive()
	case d.IsSet("memory"):
		return d.dumpMemory()
	}

	return fmt.Errorf("input file, drive, or memory address required")
}

//
func (d *Dump) dumpFile() error {

	dsk, err := disk.LoadFile(d.Input)
	if err != nil {
		return err
	}

	if d.Output != "" {
		return ioutil.WriteFile(d.Output, dsk.Bytes(), 0644)
	}

	dsk.Emit(os.Stdout)
	fmt.Println()
	return hexDump(dsk.Bytes())
}

//
func (d *Dump) dumpDrive() error {

	card, drive, err := parseDrive(d.Drive)
	if err != nil {
		return err
	}

	resp, err := d.apiCall(
		"GET", fmt.Sprintf("/drive/%s/%d/dump", card, drive), false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	if d.Output != "" {
		f, err := os.Create(d.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(f, resp)
		return err
	}

	data, err := ioutil.ReadAll(resp)
	if err != nil {
		return err
	}
	return hexDump(data)
}

//
func (d *Dump) dumpMemory() error {

	resp, err := d.apiCall("GET", fmt.Sprintf("/memory?address=%s&length=%s",
		d.Memory, d.Length), false, nil)
	if err != nil {
		return err
	}
	return printReply(resp)
}

//
func hexDump(data []byte) error {
	dumper := hex.Dumper(os.Stdout)
	defer dumper.Close()
	_, err := dumper.Write(data)
	return err
}
