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

// Package z47 implements the Z-89-47 host interface card and the remote Z47
// dual 8-inch drive controller it talks to over a parallel link.
package z47

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/link"
)

// LinkState is the handshake state of the controller's side of the link
type LinkState int

const (
	LinkReady LinkState = iota
	LinkAwaitingToReqReceive
	LinkAwaitingToReceive
	LinkAwaitingToTransmit
	LinkAwaitingTransmitComplete
	LinkHoldingDTR
	LinkAwaitingReadyState
)

//
func (s LinkState) String() string {
	switch s {
	case LinkReady:
		return "ready"
	case LinkAwaitingToReqReceive:
		return "awaiting-to-req-receive"
	case LinkAwaitingToReceive:
		return "awaiting-to-receive"
	case LinkAwaitingToTransmit:
		return "awaiting-to-transmit"
	case LinkAwaitingTransmitComplete:
		return "awaiting-transmit-complete"
	case LinkHoldingDTR:
		return "holding-dtr"
	case LinkAwaitingReadyState:
		return "awaiting-ready-state"
	}
	return fmt.Sprintf("link-state(%d)", int(s))
}

// ControllerState is the command being executed, or StateNone
type ControllerState int

const StateNone ControllerState = -1

//
func (s ControllerState) String() string {
	if s == StateNone {
		return "none"
	}
	if c, ok := commands[byte(s)]; ok {
		return c.name
	}
	return fmt.Sprintf("controller-state(%d)", int(s))
}

// timing, in CPU cycles
const (
	settleCycles     = 120
	handshakeCycles  = 16
	holdingDTRCycles = 8
)

// parameter byte masks
const (
	sideMask   = 0x80
	driveMask  = 0x60
	sectorMask = 0x1F
	trackMask  = 0xFF
)

// controller status bits, as returned by ReadControllerStatus
const (
	StatusInvalidCommand   = 0x01
	StatusBadTrackOverflow = 0x02
	StatusLateData         = 0x04
	StatusCRCError         = 0x08
	StatusNoRecordFound    = 0x10
	StatusDeletedData      = 0x20
	StatusWriteProtected   = 0x40
	StatusDriveNotReady    = 0x80
)

// ready status bits, per drive, as returned by ReadReadyStatus
const (
	ReadyDrive0        = 0x01
	ReadyChangedDrive0 = 0x02
	ReadyDrive1        = 0x04
	ReadyChangedDrive1 = 0x08
)

// DriveCount is the number of drives in a Z47 cabinet
const DriveCount = 2

//
type errorLatches struct {
	driveNotReady          bool
	diskWriteProtected     bool
	deletedData            bool
	noRecordFound          bool
	crcError               bool
	lateData               bool
	invalidCommandReceived bool
	badTrackOverflow       bool
}

//
func (e *errorLatches) any() bool {
	return e.status() != 0
}

//
func (e *errorLatches) status() byte {
	var ret byte
	flags := []struct {
		set bool
		bit byte
	}{
		{e.invalidCommandReceived, StatusInvalidCommand},
		{e.badTrackOverflow, StatusBadTrackOverflow},
		{e.lateData, StatusLateData},
		{e.crcError, StatusCRCError},
		{e.noRecordFound, StatusNoRecordFound},
		{e.deletedData, StatusDeletedData},
		{e.diskWriteProtected, StatusWriteProtected},
		{e.driveNotReady, StatusDriveNotReady},
	}
	for _, f := range flags {
		if f.set {
			ret |= f.bit
		}
	}
	return ret
}

/*
	Controller is the remote Z47 controller. It is driven entirely by clock
	notifications: each one first burns down any pending countdown, then
	advances the link handshake, and only when the link is quiescent steps
	the command being executed.
*/
type Controller struct {
	link   *link.ParallelLink
	drives [DriveCount]*disk.Drive
	//
	linkState     LinkState
	state         ControllerState
	statePosition int
	countdown     uint32
	//
	rx   byte
	tx   byte
	dtak bool
	//
	errors       errorLatches
	readyChanged [DriveCount]bool
	readyShadow  [DriveCount]bool
	//
	sectorCount     int
	characteristics [DriveCount]byte
	buffer          []byte
	//
	track           int
	side            int
	drive           int
	sector          int
	offset          int
	bytesToTransfer int
	lastTrack       byte
	lastSDS         byte
	// secondary address for copy
	dstTrack  int
	dstDrive  int
	dstSector int
}

// NewController creates a controller attached to the device side of l.
func NewController(l *link.ParallelLink) *Controller {
	c := &Controller{link: l, sectorCount: 1}
	for ix := range c.drives {
		c.drives[ix] = disk.NewDrive(
			fmt.Sprintf("z47-%d", ix), disk.EightInchTracks, 1)
	}
	l.RegisterDevice(c)
	c.Reset()
	return c
}

//
func (c *Controller) Name() string {
	return "Z47 controller"
}

//
func (c *Controller) Drive(ix int) (*disk.Drive, error) {
	if ix < 0 || ix >= DriveCount {
		return nil, fmt.Errorf("invalid Z47 drive: %d", ix)
	}
	return c.drives[ix], nil
}

//
func (c *Controller) LinkState() LinkState {
	return c.linkState
}

//
func (c *Controller) State() ControllerState {
	return c.state
}

//
func (c *Controller) StatePosition() int {
	return c.statePosition
}

// Status returns the latched error bits without clearing them.
func (c *Controller) Status() byte {
	return c.errors.status()
}

// Reset is the power-on state: idle, waiting for a command with DTR high.
func (c *Controller) Reset() {
	c.abort()
	c.sectorCount = 1
	c.buffer = nil
	for ix := range c.characteristics {
		c.characteristics[ix] = 0
	}
}

//
func (c *Controller) abort() {
	c.state = StateNone
	c.statePosition = 0
	c.countdown = 0
	c.bytesToTransfer = 0
	c.dtak = false
	c.errors = errorLatches{}
	c.link.SetBusy(false)
	c.link.SetError(false)
	c.link.SetDDOut(false)
	c.linkState = LinkAwaitingToReceive
	c.link.SetDTR(true)
}

// RaiseSignal handles signals asserted by the host.
func (c *Controller) RaiseSignal(s link.Signal) {
	switch s {
	case link.SignalDTAK:
		c.dtak = true
	case link.SignalMasterReset:
		c.masterReset()
	default:
		log.WithField("signal", s).Trace("Z47 ignoring raised signal")
	}
}

//
func (c *Controller) LowerSignal(s link.Signal) {
	log.WithField("signal", s).Trace("Z47 signal lowered")
}

//
func (c *Controller) masterReset() {
	log.WithFields(log.Fields{
		"state":    c.state,
		"position": c.statePosition}).Debug("Z47 master reset")
	c.abort()
	for ix := range c.readyChanged {
		c.readyChanged[ix] = true
	}
}

// Notification advances the controller by the given number of CPU cycles.
func (c *Controller) Notification(cycles uint32) {

	c.pollReady()

	if c.countdown > 0 {
		if cycles < c.countdown {
			c.countdown -= cycles
			return
		}
		c.countdown = 0
	}

	switch c.linkState {

	case LinkReady:

	case LinkAwaitingToReqReceive:
		c.dtak = false
		c.link.SetDTR(true)
		c.linkState = LinkAwaitingToReceive
		return

	case LinkAwaitingToReceive:
		val, ok := c.link.ReceiveHostData()
		if !ok {
			return
		}
		c.link.SetDTR(false)
		c.rx = val
		c.linkState = LinkReady
		if c.state == StateNone {
			c.startCommand(val)
			return
		}

	case LinkAwaitingToTransmit:
		c.dtak = false
		c.link.SendDriveData(c.tx)
		c.link.SetDTR(true)
		c.linkState = LinkAwaitingTransmitComplete
		return

	case LinkAwaitingTransmitComplete:
		if !c.dtak && c.link.HasDriveData() {
			return
		}
		c.linkState = LinkHoldingDTR
		c.countdown = holdingDTRCycles
		return

	case LinkHoldingDTR:
		c.link.SetDTR(false)
		c.linkState = LinkAwaitingReadyState
		return

	case LinkAwaitingReadyState:
		if c.state == StateNone {
			c.linkState = LinkAwaitingToReceive
			c.link.SetDTR(true)
			return
		}
		c.linkState = LinkReady
	}

	c.step()
}

// step advances the command in progress by one position.
func (c *Controller) step() {
	if c.state == StateNone {
		return
	}
	cmd, ok := commands[byte(c.state)]
	if !ok {
		c.commandComplete()
		return
	}
	c.statePosition++
	log.WithFields(log.Fields{
		"command":  cmd.name,
		"position": c.statePosition,
		"value":    fmt.Sprintf("%02x", c.rx)}).Trace("Z47 step")
	cmd.handler(c, c.statePosition, c.rx)
}

//
func (c *Controller) startCommand(code byte) {

	c.link.SetBusy(true)

	cmd, ok := commands[code]
	if !ok {
		log.WithField("command", fmt.Sprintf("%02x", code)).Warn(
			"Z47 invalid command")
		c.latchError(func(e *errorLatches) { e.invalidCommandReceived = true })
		c.state = ControllerState(code)
		c.commandComplete()
		return
	}

	log.WithField("command", cmd.name).Debug("Z47 command")
	c.state = ControllerState(code)
	c.statePosition = 0
	c.step()
}

// commandComplete ends the current command. Error latches survive.
func (c *Controller) commandComplete() {
	log.WithField("command", c.state).Debug("Z47 command complete")
	c.state = StateNone
	c.statePosition = 0
	c.bytesToTransfer = 0
	c.linkState = LinkAwaitingReadyState
	c.link.SetBusy(false)
	c.link.SetDDOut(false)
	c.countdown = settleCycles
}

//
func (c *Controller) requestByte() {
	c.link.SetDDOut(false)
	c.linkState = LinkAwaitingToReqReceive
	c.countdown = handshakeCycles
}

//
func (c *Controller) transmit(val byte) {
	c.tx = val
	c.link.SetDDOut(true)
	c.linkState = LinkAwaitingToTransmit
	c.countdown = handshakeCycles
}

//
func (c *Controller) latchError(set func(e *errorLatches)) {
	set(&c.errors)
	c.link.SetError(true)
}

//
func (c *Controller) clearErrors() {
	c.errors = errorLatches{}
	c.link.SetError(false)
}

// pollReady tracks disk insertion and removal for the ready status.
func (c *Controller) pollReady() {
	for ix, d := range c.drives {
		if r := d.HasDisk(); r != c.readyShadow[ix] {
			c.readyShadow[ix] = r
			c.readyChanged[ix] = true
		}
	}
}

//
func (c *Controller) readyStatus() byte {
	var ret byte
	if c.readyShadow[0] {
		ret |= ReadyDrive0
	}
	if c.readyChanged[0] {
		ret |= ReadyChangedDrive0
	}
	if c.readyShadow[1] {
		ret |= ReadyDrive1
	}
	if c.readyChanged[1] {
		ret |= ReadyChangedDrive1
	}
	return ret
}

// decodeAddress takes the track and side/drive/sector parameter bytes.
func decodeAddress(trackByte, sds byte) (track, side, drive, sector int) {
	return int(trackByte & trackMask), int(sds&sideMask) >> 7,
		int(sds&driveMask) >> 5, int(sds & sectorMask)
}

// selectDisk returns the disk in the given drive, latching drive not ready
// when there is none.
func (c *Controller) selectDisk(drive int) (*disk.EightInchDisk, bool) {
	if drive < 0 || drive >= DriveCount {
		c.latchError(func(e *errorLatches) { e.driveNotReady = true })
		return nil, false
	}
	d, ok := c.drives[drive].Disk().(*disk.EightInchDisk)
	if !ok {
		c.latchError(func(e *errorLatches) { e.driveNotReady = true })
		return nil, false
	}
	return d, true
}

// locate validates a sector address and the length of the transfer
// starting there. It latches the matching error and returns false when the
// address is unusable.
func (c *Controller) locate(d *disk.EightInchDisk, track, side, sector,
	length int) (int, bool) {

	if side != 0 || track >= disk.EightInchTracks || sector < 1 ||
		sector > disk.EightInchSectorsPerTrack {
		c.latchError(func(e *errorLatches) { e.noRecordFound = true })
		return 0, false
	}

	offset := d.Offset(track, sector)
	if offset+length > disk.EightInchSize {
		c.latchError(func(e *errorLatches) { e.badTrackOverflow = true })
		return 0, false
	}

	return offset, true
}

//
func (c *Controller) transferLength() int {
	return c.sectorCount * disk.EightInchSectorSize
}
