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

package serial

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

/*
	PortBridge connects a UART to a serial port of the host, so the emulated
	machine can talk to real equipment. The port is given as device, or as
	device:baud, e.g. /dev/ttyUSB0:9600.
*/
type PortBridge struct {
	*StreamConsole
	port   io.ReadWriteCloser
	device string
	baud   uint
	closed sync.Once
}

// ParsePortSpec splits a port spec into device and baud rate. Baud rate
// defaults to 9600.
func ParsePortSpec(spec string) (string, uint, error) {
	device := spec
	baud := uint(9600)
	if ix := strings.LastIndex(spec, ":"); ix > 0 {
		device = spec[:ix]
		b, err := strconv.ParseUint(spec[ix+1:], 10, 32)
		if err != nil || b == 0 {
			return "", 0, fmt.Errorf("invalid baud rate in '%s'", spec)
		}
		baud = uint(b)
	}
	if device == "" {
		return "", 0, fmt.Errorf("no device in '%s'", spec)
	}
	return device, baud, nil
}

//
func NewPortBridge(spec string, sink Sink) (*PortBridge, error) {

	device, baud, err := ParsePortSpec(spec)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(serial.OpenOptions{
		PortName:        device,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %v", device, err)
	}

	log.WithFields(log.Fields{
		"device": device,
		"baud":   baud}).Info("serial port opened")

	return &PortBridge{
		StreamConsole: NewStreamConsole(port, port, sink),
		port:          port,
		device:        device,
		baud:          baud,
	}, nil
}

//
func (p *PortBridge) Device() string {
	return p.device
}

// Start starts forwarding and closes the port once ctx is done.
func (p *PortBridge) Start(ctx context.Context) {
	p.StreamConsole.Start(ctx)
	go func() {
		<-p.Done()
		p.Close()
	}()
}

//
func (p *PortBridge) Close() {
	p.StreamConsole.Stop()
	p.closed.Do(func() {
		if err := p.port.Close(); err != nil {
			log.Errorf("error closing serial port %s: %v", p.device, err)
		}
	})
}
