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

// Package link models the parallel link between a host interface card and
// a remote drive controller: one shared data latch plus discrete signal
// lines.
package link

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Signal identifies a signal line of the link
type Signal int

const (
	// driven by the drive controller
	SignalBusy Signal = iota
	SignalDTR
	SignalDDOut
	SignalError
	// driven by the host
	SignalDTAK
	SignalMasterReset
)

//
func (s Signal) String() string {
	switch s {
	case SignalBusy:
		return "busy"
	case SignalDTR:
		return "dtr"
	case SignalDDOut:
		return "ddout"
	case SignalError:
		return "error"
	case SignalDTAK:
		return "dtak"
	case SignalMasterReset:
		return "master-reset"
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// Peer is either end of the link. Signal changes made by one end are
// delivered to the other.
type Peer interface {
	RaiseSignal(s Signal)
	LowerSignal(s Signal)
}

/*
	ParallelLink carries one data byte at a time in either direction, and
	the handshake signals. Only one direction may have data pending. A sender
	overwriting pending data from the other side is logged as contention, but
	the write still happens, like on the real open collector bus.
*/
type ParallelLink struct {
	host   Peer
	device Peer
	//
	data          byte
	dataFromHost  bool
	dataFromDrive bool
	//
	busy        bool
	dtr         bool
	ddOut       bool
	errorSignal bool
	dtak        bool
	masterReset bool
}

//
func NewParallelLink() *ParallelLink {
	return &ParallelLink{}
}

// RegisterHost attaches the host side. A second registration is logged,
// and replaces the first one.
func (l *ParallelLink) RegisterHost(p Peer) {
	if l.host != nil {
		log.Error("parallel link host already registered, replacing")
	}
	l.host = p
}

// RegisterDevice attaches the drive side, see RegisterHost.
func (l *ParallelLink) RegisterDevice(p Peer) {
	if l.device != nil {
		log.Error("parallel link device already registered, replacing")
	}
	l.device = p
}

// SendHostData places a byte from the host onto the link.
func (l *ParallelLink) SendHostData(val byte) {
	if l.dataFromDrive {
		log.WithField("data", fmt.Sprintf("%02x", val)).Error(
			"link contention: host sending while drive data pending")
		l.dataFromDrive = false
	}
	l.data = val
	l.dataFromHost = true
}

// SendDriveData places a byte from the drive onto the link.
func (l *ParallelLink) SendDriveData(val byte) {
	if l.dataFromHost {
		log.WithField("data", fmt.Sprintf("%02x", val)).Error(
			"link contention: drive sending while host data pending")
		l.dataFromHost = false
	}
	l.data = val
	l.dataFromDrive = true
}

// ReceiveHostData takes the byte sent by the host.
func (l *ParallelLink) ReceiveHostData() (byte, bool) {
	ok := l.dataFromHost
	l.dataFromHost = false
	return l.data, ok
}

// ReceiveDriveData takes the byte sent by the drive.
func (l *ParallelLink) ReceiveDriveData() (byte, bool) {
	ok := l.dataFromDrive
	l.dataFromDrive = false
	return l.data, ok
}

//
func (l *ParallelLink) Data() byte {
	return l.data
}

//
func (l *ParallelLink) HasHostData() bool {
	return l.dataFromHost
}

//
func (l *ParallelLink) HasDriveData() bool {
	return l.dataFromDrive
}

//
func (l *ParallelLink) SetBusy(v bool) {
	l.busy = v
	l.notify(l.host, SignalBusy, v)
}

//
func (l *ParallelLink) SetDTR(v bool) {
	l.dtr = v
	l.notify(l.host, SignalDTR, v)
}

//
func (l *ParallelLink) SetDDOut(v bool) {
	l.ddOut = v
	l.notify(l.host, SignalDDOut, v)
}

//
func (l *ParallelLink) SetError(v bool) {
	l.errorSignal = v
	l.notify(l.host, SignalError, v)
}

//
func (l *ParallelLink) SetDTAK(v bool) {
	l.dtak = v
	l.notify(l.device, SignalDTAK, v)
}

//
func (l *ParallelLink) SetMasterReset(v bool) {
	l.masterReset = v
	l.notify(l.device, SignalMasterReset, v)
}

//
func (l *ParallelLink) notify(p Peer, s Signal, raised bool) {
	log.WithFields(log.Fields{"signal": s, "raised": raised}).Trace("link signal")
	if p == nil {
		return
	}
	if raised {
		p.RaiseSignal(s)
	} else {
		p.LowerSignal(s)
	}
}

//
func (l *ParallelLink) IsBusy() bool {
	return l.busy
}

//
func (l *ParallelLink) IsDTR() bool {
	return l.dtr
}

//
func (l *ParallelLink) IsDDOut() bool {
	return l.ddOut
}

//
func (l *ParallelLink) IsError() bool {
	return l.errorSignal
}

//
func (l *ParallelLink) IsDTAK() bool {
	return l.dtak
}

//
func (l *ParallelLink) IsMasterReset() bool {
	return l.masterReset
}

// Reset clears data and signal state. Registrations are kept.
func (l *ParallelLink) Reset() {
	l.data = 0
	l.dataFromHost = false
	l.dataFromDrive = false
	l.busy = false
	l.dtr = false
	l.ddOut = false
	l.errorSignal = false
	l.dtak = false
	l.masterReset = false
}
