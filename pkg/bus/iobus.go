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
	"fmt"

	log "github.com/sirupsen/logrus"
)

// FloatingBus is what reading an unclaimed port returns.
const FloatingBus = 0xff

// IOBus maps the 256 port addresses to devices.
type IOBus struct {
	ports [256]Device
}

//
func NewIOBus() *IOBus {
	return &IOBus{}
}

// AddDevice claims ports [base, base+numPorts) for d. If any of these ports
// is already taken, nothing is claimed and false is returned.
func (b *IOBus) AddDevice(d Device, base byte, numPorts int) bool {

	logger := log.WithFields(log.Fields{
		"device": d.Name(),
		"base":   fmt.Sprintf("%02x", base),
		"ports":  numPorts,
	})

	if numPorts <= 0 || int(base)+numPorts > len(b.ports) {
		logger.Error("invalid port range")
		return false
	}

	for p := int(base); p < int(base)+numPorts; p++ {
		if other := b.ports[p]; other != nil {
			logger.WithFields(log.Fields{
				"port":  fmt.Sprintf("%02x", p),
				"owner": other.Name(),
			}).Error("port already claimed")
			return false
		}
	}

	for p := int(base); p < int(base)+numPorts; p++ {
		b.ports[p] = d
	}

	logger.Debug("device added")
	return true
}

//
func (b *IOBus) In(addr byte) byte {
	if d := b.ports[addr]; d != nil {
		return d.In(addr)
	}
	log.WithField("port", fmt.Sprintf("%02x", addr)).Trace("in from unclaimed port")
	return FloatingBus
}

//
func (b *IOBus) Out(addr byte, val byte) {
	if d := b.ports[addr]; d != nil {
		d.Out(addr, val)
		return
	}
	log.WithFields(log.Fields{
		"port":  fmt.Sprintf("%02x", addr),
		"value": fmt.Sprintf("%02x", val),
	}).Trace("out to unclaimed port")
}

// Device returns the device claiming port addr, if any.
func (b *IOBus) Device(addr byte) Device {
	return b.ports[addr]
}

// Devices returns each attached device once, in port order.
func (b *IOBus) Devices() []Device {
	var ret []Device
	seen := make(map[Device]bool)
	for _, d := range b.ports {
		if d != nil && !seen[d] {
			seen[d] = true
			ret = append(ret, d)
		}
	}
	return ret
}

// Reset resets every device exactly once, no matter how many ports it has.
func (b *IOBus) Reset() {
	for _, d := range b.Devices() {
		d.Reset()
	}
}
