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

package z37

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
)

// status bits
const (
	StatusBusy           = 0x01
	StatusIndex          = 0x02 // type I
	StatusDRQ            = 0x02 // type II & III
	StatusTrackZero      = 0x04 // type I
	StatusLostData       = 0x04 // type II & III
	StatusCRCError       = 0x08
	StatusSeekError      = 0x10 // type I
	StatusRecordNotFound = 0x10 // type II & III
	StatusHeadLoaded     = 0x20 // type I
	StatusWriteProtect   = 0x40
	StatusNotReady       = 0x80
)

// command groups and flags
const (
	cmdRestore        = 0x00
	cmdSeek           = 0x10
	cmdStep           = 0x20
	cmdStepIn         = 0x40
	cmdStepOut        = 0x60
	cmdReadSector     = 0x80
	cmdWriteSector    = 0xa0
	cmdReadAddress    = 0xc0
	cmdForceInterrupt = 0xd0
	cmdReadTrack      = 0xe0
	cmdWriteTrack     = 0xf0
	//
	flagVerify      = 0x04
	flagHeadLoad    = 0x08
	flagUpdateTrack = 0x10
	flagMultiple    = 0x10
	flagSide        = 0x02
	flagImmediate   = 0x08
)

// timing, in CPU cycles
const (
	typeICycles  = 2000
	searchCycles = 400
	formatFill   = 0xe5
)

// operation in progress
type operation int

const (
	opNone operation = iota
	opTypeI
	opRead
	opWrite
	opReadAddress
	opReadTrack
	opWriteTrack
)

// Lines receives the controller's interrupt and data request outputs.
type Lines interface {
	SetINTRQ(raised bool)
	SetDRQ(raised bool)
}

/*
	WD1797 is the floppy disk controller chip of the Z-89-37. Commands run
	as countdowns on the clock; data bytes are offered one byte time apart,
	and a byte not taken (or not supplied) in time sets lost data.
*/
type WD1797 struct {
	lines      Lines
	drive      *disk.Drive
	byteCycles uint32
	//
	status  byte
	track   byte
	sector  byte
	data    byte
	command byte
	//
	op        operation
	countdown uint32
	stepIn    bool
	side      int
	multiple  bool
	buffer    []byte
	pos       int
	drq       bool
	intrq     bool
	started   bool
}

//
func NewWD1797(lines Lines, byteCycles uint32) *WD1797 {
	if byteCycles == 0 {
		byteCycles = 1
	}
	return &WD1797{lines: lines, byteCycles: byteCycles}
}

// SelectDrive connects the drive the card selected, nil for none.
func (w *WD1797) SelectDrive(d *disk.Drive) {
	w.drive = d
}

//
func (w *WD1797) SetByteCycles(c uint32) {
	if c > 0 {
		w.byteCycles = c
	}
}

//
func (w *WD1797) Reset() {
	w.op = opNone
	w.countdown = 0
	w.status = 0
	w.command = 0
	w.sector = 1
	w.stepIn = true
	w.setDRQ(false)
	w.setINTRQ(false)
}

//
func (w *WD1797) setDRQ(r bool) {
	w.drq = r
	if r {
		w.status |= StatusDRQ
	} else if w.op != opTypeI {
		w.status &^= StatusDRQ
	}
	if w.lines != nil {
		w.lines.SetDRQ(r)
	}
}

//
func (w *WD1797) setINTRQ(r bool) {
	w.intrq = r
	if w.lines != nil {
		w.lines.SetINTRQ(r)
	}
}

// ReadStatus returns the status register, and clears INTRQ.
func (w *WD1797) ReadStatus() byte {
	w.setINTRQ(false)
	if w.op == opNone && isTypeI(w.command) {
		return w.typeIStatus()
	}
	return w.status
}

//
func (w *WD1797) typeIStatus() byte {
	ret := w.status & (StatusBusy | StatusSeekError | StatusCRCError)
	if w.drive == nil || !w.drive.HasDisk() {
		ret |= StatusNotReady
		return ret
	}
	if w.drive.IsTrackZero() {
		ret |= StatusTrackZero
	}
	if w.drive.IsWriteProtected() {
		ret |= StatusWriteProtect
	}
	if w.drive.IsMotorOn() {
		ret |= StatusHeadLoaded
	}
	return ret
}

//
func (w *WD1797) Track() byte {
	return w.track
}

//
func (w *WD1797) SetTrack(t byte) {
	w.track = t
}

//
func (w *WD1797) Sector() byte {
	return w.sector
}

//
func (w *WD1797) SetSector(s byte) {
	w.sector = s
}

// ReadData returns the data register, and clears DRQ.
func (w *WD1797) ReadData() byte {
	w.setDRQ(false)
	return w.data
}

// WriteData loads the data register, and clears DRQ.
func (w *WD1797) WriteData(val byte) {
	w.data = val
	w.setDRQ(false)
}

//
func isTypeI(cmd byte) bool {
	return cmd&0x80 == 0
}

// WriteCommand starts a command. Only force interrupt is accepted while
// busy.
func (w *WD1797) WriteCommand(cmd byte) {

	logger := log.WithField("command", fmt.Sprintf("%02x", cmd))

	if cmd&0xf0 == cmdForceInterrupt {
		w.forceInterrupt(cmd)
		return
	}

	if w.status&StatusBusy != 0 {
		logger.Debug("WD1797 busy, command ignored")
		return
	}

	logger.Trace("WD1797 command")
	w.command = cmd
	w.setINTRQ(false)
	w.setDRQ(false)
	w.status = StatusBusy
	w.started = false
	w.pos = 0

	if isTypeI(cmd) {
		w.op = opTypeI
		w.countdown = typeICycles
		return
	}

	w.side = 0
	if cmd&flagSide != 0 {
		w.side = 1
	}

	if w.drive == nil || !w.drive.HasDisk() {
		w.complete(StatusNotReady)
		return
	}

	switch cmd & 0xf0 {
	case cmdReadSector, cmdReadSector | flagMultiple:
		w.op = opRead
		w.multiple = cmd&flagMultiple != 0
	case cmdWriteSector, cmdWriteSector | flagMultiple:
		w.op = opWrite
		w.multiple = cmd&flagMultiple != 0
	case cmdReadAddress:
		w.op = opReadAddress
	case cmdReadTrack:
		w.op = opReadTrack
	case cmdWriteTrack:
		w.op = opWriteTrack
	}

	if (w.op == opWrite || w.op == opWriteTrack) &&
		w.drive.IsWriteProtected() {
		w.complete(StatusWriteProtect)
		return
	}

	w.countdown = searchCycles
}

//
func (w *WD1797) forceInterrupt(cmd byte) {
	log.WithField("flags", cmd&0x0f).Debug("WD1797 force interrupt")
	wasBusy := w.status&StatusBusy != 0
	w.op = opNone
	w.countdown = 0
	w.setDRQ(false)
	if !wasBusy {
		// status reflects type I again
		w.command = cmdRestore
		w.status = 0
	}
	w.status &^= StatusBusy
	if cmd&flagImmediate != 0 {
		w.setINTRQ(true)
	}
}

// complete ends the current command with the given status bits.
func (w *WD1797) complete(status byte) {
	w.op = opNone
	w.countdown = 0
	w.status = (w.status | status) &^ StatusBusy
	w.setDRQ(false)
	w.setINTRQ(true)
	log.WithField("status", fmt.Sprintf("%02x", w.status)).Trace(
		"WD1797 command complete")
}

// Notification advances the command in progress.
func (w *WD1797) Notification(cycles uint32) {

	for w.op != opNone && cycles > 0 {

		if w.countdown > cycles {
			w.countdown -= cycles
			return
		}
		cycles -= w.countdown
		w.countdown = 0

		switch w.op {
		case opTypeI:
			w.executeTypeI()
		case opRead, opReadAddress, opReadTrack:
			w.readByteTime()
		case opWrite, opWriteTrack:
			w.writeByteTime()
		}
	}
}

//
func (w *WD1797) executeTypeI() {

	cmd := w.command
	if w.drive == nil || !w.drive.HasDisk() {
		w.complete(StatusNotReady)
		return
	}

	switch {
	case cmd&0xf0 == cmdRestore:
		for ix := 0; ix < 255 && !w.drive.IsTrackZero(); ix++ {
			w.drive.Step(false)
		}
		w.track = 0

	case cmd&0xf0 == cmdSeek:
		for w.track != w.data {
			in := w.data > w.track
			w.drive.Step(in)
			if in {
				w.track++
			} else {
				w.track--
			}
		}

	default:
		switch cmd & 0xe0 {
		case cmdStepIn:
			w.stepIn = true
		case cmdStepOut:
			w.stepIn = false
		}
		w.drive.Step(w.stepIn)
		if cmd&flagUpdateTrack != 0 {
			if w.stepIn {
				w.track++
			} else {
				w.track--
			}
		}
	}

	var status byte
	if cmd&flagVerify != 0 && int(w.track) != w.drive.Track() {
		status |= StatusSeekError
	}
	w.complete(status)
}

// prepare loads the buffer for the current read operation, or sizes it for
// a write. It returns false when the addressed record does not exist.
func (w *WD1797) prepare() bool {

	sd, ok := w.drive.SectorDisk()

	switch w.op {

	case opRead, opWrite:
		if !ok || int(w.track) != w.drive.Track() || w.sector < 1 ||
			int(w.sector) > sd.SectorsPerTrack() {
			return false
		}
		w.buffer = make([]byte, sd.SectorSize())
		if w.op == opRead {
			for ix := range w.buffer {
				if w.buffer[ix], ok = w.drive.ReadSectorData(
					w.side, int(w.sector), ix); !ok {
					return false
				}
			}
		}

	case opReadAddress:
		if !ok {
			return false
		}
		size := byte(0)
		for s := sd.SectorSize(); s > 128; s >>= 1 {
			size++
		}
		w.buffer = []byte{
			byte(w.drive.Track()), byte(w.side), 1, size, 0, 0}

	case opReadTrack:
		w.buffer = make([]byte, w.drive.TrackLength())
		w.drive.SelectSide(w.side)
		for ix := range w.buffer {
			w.buffer[ix], _ = w.drive.ReadData(ix)
		}

	case opWriteTrack:
		w.buffer = make([]byte, w.drive.TrackLength())
	}

	return len(w.buffer) > 0
}

//
func (w *WD1797) readByteTime() {

	if !w.started {
		if !w.prepare() {
			w.complete(StatusRecordNotFound)
			return
		}
		w.started = true
		w.pos = 0
	} else if w.drq {
		w.status |= StatusLostData
	}

	if w.pos >= len(w.buffer) {
		if w.op == opReadAddress {
			w.sector = w.buffer[0]
		}
		if w.op == opRead && w.multiple {
			w.sector++
			w.started = false
			w.countdown = searchCycles
			return
		}
		w.complete(0)
		return
	}

	w.data = w.buffer[w.pos]
	w.pos++
	w.setDRQ(true)
	w.countdown = w.byteCycles
}

//
func (w *WD1797) writeByteTime() {

	if !w.started {
		if !w.prepare() {
			w.complete(StatusRecordNotFound)
			return
		}
		w.started = true
		w.pos = 0
		w.setDRQ(true)
		w.countdown = w.byteCycles
		return
	}

	if w.drq {
		w.status |= StatusLostData
		w.data = 0
	}
	w.buffer[w.pos] = w.data
	w.pos++

	if w.pos < len(w.buffer) {
		w.setDRQ(true)
		w.countdown = w.byteCycles
		return
	}

	w.flush()

	if w.op == opWrite && w.multiple {
		w.sector++
		w.started = false
		w.countdown = searchCycles
		return
	}
	w.complete(0)
}

// flush commits a completed write buffer to disk.
func (w *WD1797) flush() {

	if w.op == opWriteTrack {
		// formatting: every sector of the track reads back as fill
		sd, ok := w.drive.SectorDisk()
		if !ok {
			return
		}
		for s := 1; s <= sd.SectorsPerTrack(); s++ {
			for ix := 0; ix < sd.SectorSize(); ix++ {
				w.drive.WriteSectorData(w.side, s, ix, formatFill)
			}
		}
		return
	}

	for ix, b := range w.buffer {
		if !w.drive.WriteSectorData(w.side, int(w.sector), ix, b) {
			w.status |= StatusRecordNotFound
			return
		}
	}
}

//
func (w *WD1797) IsBusy() bool {
	return w.status&StatusBusy != 0
}
