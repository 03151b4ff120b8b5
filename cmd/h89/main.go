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

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xelalexv/h89emu/pkg/run"
)

//
func main() {

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:   "h89",
		Short: "Heathkit H89/H88 emulator",
		Long: `
h89 runs an emulated Heathkit H89 or H88, and controls the running machine.
Start the machine with serve, then use the other commands from another
terminal to load disks, inspect state, or reset the machine.`,
		SilenceUsage: true,
	}

	for _, r := range []*run.Runner{
		&run.NewServe().Runner,
		&run.NewLoad().Runner,
		&run.NewEject().Runner,
		&run.NewLs().Runner,
		&run.NewStatus().Runner,
		&run.NewDump().Runner,
		&run.NewSearch().Runner,
		&run.NewReset().Runner,
		&run.NewVersion().Runner,
	} {
		root.AddCommand(&r.Command)
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
