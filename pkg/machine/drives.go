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

package machine

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
)

// errors callers may want to tell apart
var (
	ErrNoSuchCard  = errors.New("no such card")
	ErrNoDisk      = errors.New("no disk in drive")
	ErrModified    = errors.New("disk in drive is modified")
	ErrWrongMedium = errors.New("disk type does not fit drive")
)

// DriveInfo describes a drive and its disk
type DriveInfo struct {
	Card           string `json:"card"`
	Drive          int    `json:"drive"`
	Loaded         bool   `json:"loaded"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	File           string `json:"file,omitempty"`
	Sides          int    `json:"sides,omitempty"`
	Tracks         int    `json:"tracks,omitempty"`
	WriteProtected bool   `json:"writeProtected"`
	Modified       bool   `json:"modified"`
	Track          int    `json:"track"`
	Motor          bool   `json:"motor"`
}

//
type driveSource interface {
	Drive(ix int) (*disk.Drive, error)
}

// medium returns the disk type the drives of card take
func medium(card string) disk.Type {
	switch card {
	case CardH17:
		return disk.TypeHardSectored
	case CardZ37:
		return disk.TypeSoftSectored
	case CardZ47:
		return disk.TypeEightInch
	}
	return disk.TypeUnknown
}

//
func (m *Machine) cards() []string {
	var ret []string
	if m.H17 != nil {
		ret = append(ret, CardH17)
	}
	if m.Z37 != nil {
		ret = append(ret, CardZ37)
	}
	if m.Z47 != nil {
		ret = append(ret, CardZ47)
	}
	return ret
}

//
func (m *Machine) drive(card string, ix int) (*disk.Drive, error) {

	var src driveSource
	switch card {
	case CardH17:
		if m.H17 != nil {
			src = m.H17
		}
	case CardZ37:
		if m.Z37 != nil {
			src = m.Z37
		}
	case CardZ47:
		if m.Z47 != nil {
			src = m.Z47
		}
	}

	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchCard, card)
	}
	return src.Drive(ix)
}

// Load inserts d into a drive. A modified disk already in the drive is
// only replaced when forced, and then without persisting it.
func (m *Machine) Load(card string, ix int, d disk.Disk, file string,
	force bool) error {

	m.lock.Lock()
	defer m.lock.Unlock()

	drv, err := m.drive(card, ix)
	if err != nil {
		return err
	}

	if d.Type() != medium(card) {
		return fmt.Errorf("%w: %v into %s", ErrWrongMedium, d.Type(), card)
	}

	if old := drv.Disk(); old != nil && old.IsModified() && !force {
		return fmt.Errorf("%w: %s drive %d", ErrModified, card, ix)
	}

	drv.Insert(d, file)
	m.notify()
	return nil
}

// Eject removes the disk from a drive, persisting it if it was modified
// and it has a file to go to. The disk is returned even if persisting
// failed.
func (m *Machine) Eject(card string, ix int) (disk.Disk, error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	drv, err := m.drive(card, ix)
	if err != nil {
		return nil, err
	}
	if !drv.HasDisk() {
		return nil, fmt.Errorf("%w: %s drive %d", ErrNoDisk, card, ix)
	}

	d, err := drv.Eject("")
	m.notify()
	return d, err
}

// EjectAll ejects every disk, e.g. on shutdown, so changes get persisted.
func (m *Machine) EjectAll() {
	for _, info := range m.Drives() {
		if !info.Loaded {
			continue
		}
		if _, err := m.Eject(info.Card, info.Drive); err != nil {
			log.WithFields(log.Fields{
				"card": info.Card, "drive": info.Drive}).Errorf(
				"error ejecting disk: %v", err)
		}
	}
}

// DriveInfo reports on a single drive.
func (m *Machine) DriveInfo(card string, ix int) (*DriveInfo, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	drv, err := m.drive(card, ix)
	if err != nil {
		return nil, err
	}
	return driveInfo(card, ix, drv), nil
}

// Drives reports on all drives of all cards.
func (m *Machine) Drives() []*DriveInfo {

	m.lock.Lock()
	defer m.lock.Unlock()

	var ret []*DriveInfo
	for _, card := range m.cards() {
		for ix := 0; ; ix++ {
			drv, err := m.drive(card, ix)
			if err != nil {
				break
			}
			ret = append(ret, driveInfo(card, ix, drv))
		}
	}
	return ret
}

//
func driveInfo(card string, ix int, drv *disk.Drive) *DriveInfo {
	ret := &DriveInfo{
		Card:           card,
		Drive:          ix,
		WriteProtected: drv.IsWriteProtected(),
		Track:          drv.Track(),
		Motor:          drv.IsMotorOn(),
	}
	if d := drv.Disk(); d != nil {
		ret.Loaded = true
		ret.Name = d.Name()
		ret.Type = d.Type().String()
		ret.File = drv.File()
		ret.Sides = d.Sides()
		ret.Tracks = d.Tracks()
		ret.Modified = d.IsModified()
	}
	return ret
}

// DumpDisk writes the raw image of the disk in a drive to w.
func (m *Machine) DumpDisk(card string, ix int, w io.Writer) error {

	m.lock.Lock()
	defer m.lock.Unlock()

	drv, err := m.drive(card, ix)
	if err != nil {
		return err
	}
	d := drv.Disk()
	if d == nil {
		return fmt.Errorf("%w: %s drive %d", ErrNoDisk, card, ix)
	}
	_, err = w.Write(d.Bytes())
	return err
}
