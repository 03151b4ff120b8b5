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

package bus

import (
	log "github.com/sirupsen/logrus"
)

/*
	Clock broadcasts elapsed CPU cycles to every registered user. It replaces
	a global wall clock: the machine owns one and hands it to the devices
	that need timing.
*/
type Clock struct {
	users  []ClockUser
	cycles uint64
}

//
func NewClock() *Clock {
	return &Clock{}
}

//
func (c *Clock) Register(u ClockUser) {
	for _, e := range c.users {
		if e == u {
			log.Warn("clock user already registered")
			return
		}
	}
	c.users = append(c.users, u)
}

//
func (c *Clock) Unregister(u ClockUser) {
	for ix, e := range c.users {
		if e == u {
			c.users = append(c.users[:ix], c.users[ix+1:]...)
			return
		}
	}
}

// AddCycles advances time and notifies all users.
func (c *Clock) AddCycles(cycles uint32) {
	c.cycles += uint64(cycles)
	for _, u := range c.users {
		u.Notification(cycles)
	}
}

// Cycles returns the total number of cycles since creation.
func (c *Clock) Cycles() uint64 {
	return c.cycles
}
