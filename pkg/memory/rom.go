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

package memory

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// valid ROM image sizes
const (
	ROMSize2K = 2048
	ROMSize4K = 4096
)

// LoadROM reads a raw ROM image from file. Only images of exactly 2048 or
// 4096 bytes are accepted.
func LoadROM(file string) ([]byte, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ReadROM(f)
	if err != nil {
		return nil, fmt.Errorf("error loading ROM %s: %v", file, err)
	}

	log.WithFields(log.Fields{"file": file, "size": len(data)}).Info("ROM loaded")
	return data, nil
}

// ReadROM reads a raw ROM image, see LoadROM.
func ReadROM(r io.Reader) ([]byte, error) {

	data, err := io.ReadAll(io.LimitReader(r, ROMSize4K+1))
	if err != nil {
		return nil, err
	}

	if l := len(data); l != ROMSize2K && l != ROMSize4K {
		return nil, fmt.Errorf("invalid ROM size %d", l)
	}

	return data, nil
}
