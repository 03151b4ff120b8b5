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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/controller/h17"
	"github.com/xelalexv/h89emu/pkg/controller/z37"
	"github.com/xelalexv/h89emu/pkg/controller/z47"
	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/memory"
	"github.com/xelalexv/h89emu/pkg/serial"
	"github.com/xelalexv/h89emu/pkg/test"
)

//
func newMachine(t *testing.T, cfg *Config) *Machine {
	t.Helper()
	m, err := New(cfg)
	test.DemandSuccess(t, err)
	return m
}

//
func TestDefaultMachine(t *testing.T) {

	m := newMachine(t, DefaultConfig())

	test.ExpectEquality(t, m.IOBus.Device(h17.DefaultBase).Name(), m.H17.Name())
	test.ExpectEquality(t, m.IOBus.Device(z37.DefaultBase+3).Name(), m.Z37.Name())
	test.ExpectEquality(t, m.IOBus.Device(serial.ConsoleBase+7).Name(), "console")
	test.ExpectEquality(t, m.IOBus.Device(bus.GppPort).Name(), "gpp")
	test.ExpectSuccess(t, m.Z47 == nil)
	test.ExpectEquality(t, len(m.UARTs), 4)
	test.ExpectSuccess(t, m.UART("console") != nil)
	test.ExpectSuccess(t, m.UART("printer") == nil)

	// three H-17 drives plus four Z-89-37 drives
	test.ExpectEquality(t, len(m.Drives()), 7)
}

//
func TestPortConflict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Z47.Enabled = true
	cfg.Z47.Base = z37.DefaultBase
	_, err := New(cfg)
	test.ExpectFailure(t, err)
}

//
func TestZ47Machine(t *testing.T) {

	cfg := DefaultConfig()
	cfg.Z37.Enabled = false
	cfg.Z47.Enabled = true
	m := newMachine(t, cfg)

	test.ExpectEquality(t, m.IOBus.Device(z47.DefaultBase).Name(), m.Z47Host.Name())
	test.ExpectSuccess(t, m.Z37 == nil)

	// the host sees the controller ready after reset
	m.RunCycles(1000)
	test.ExpectEquality(t,
		m.IOBus.In(z47.DefaultBase)&z47.HostStatusDataTransferRequest,
		byte(z47.HostStatusDataTransferRequest))
}

//
func TestLoadEject(t *testing.T) {

	m := newMachine(t, DefaultConfig())

	hard, err := disk.NewHardSectoredDisk(1, 40)
	test.DemandSuccess(t, err)
	soft, err := disk.NewSoftSectoredDisk(disk.Geometry{
		Sides: 1, Tracks: 40, SectorsPerTrack: 10, SectorSize: 256})
	test.DemandSuccess(t, err)

	err = m.Load(CardH17, 0, soft, "", false)
	test.ExpectSuccess(t, errors.Is(err, ErrWrongMedium))
	err = m.Load(CardZ47, 0, soft, "", false)
	test.ExpectSuccess(t, errors.Is(err, ErrNoSuchCard))
	test.ExpectFailure(t, m.Load(CardZ37, 9, soft, "", false))

	test.DemandSuccess(t, m.Load(CardH17, 0, hard, "", false))
	test.DemandSuccess(t, m.Load(CardZ37, 1, soft, "", false))

	select {
	case <-m.Changes():
	default:
		t.Error("no change signaled")
	}

	info, err := m.DriveInfo(CardH17, 0)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, info.Loaded)
	test.ExpectEquality(t, info.Type, disk.TypeHardSectored.String())
	test.ExpectEquality(t, info.Tracks, 40)

	// modified disks are only replaced when forced
	test.DemandSuccess(t, hard.WriteData(0, 0, 0, 0x55))
	other, _ := disk.NewHardSectoredDisk(1, 40)
	err = m.Load(CardH17, 0, other, "", false)
	test.ExpectSuccess(t, errors.Is(err, ErrModified))
	test.ExpectSuccess(t, m.Load(CardH17, 0, other, "", true))

	d, err := m.Eject(CardZ37, 1)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, d == disk.Disk(soft))

	_, err = m.Eject(CardZ37, 1)
	test.ExpectSuccess(t, errors.Is(err, ErrNoDisk))

	var buf bytes.Buffer
	test.DemandSuccess(t, m.DumpDisk(CardH17, 0, &buf))
	test.ExpectEquality(t, buf.Len(), 40*disk.BytesPerTrack)
}

//
func TestConfiguredImages(t *testing.T) {

	dir := t.TempDir()
	file := filepath.Join(dir, "cpm.h8d")
	test.DemandSuccess(t, os.WriteFile(
		file, make([]byte, 40*disk.BytesPerTrack), 0644))

	cfg := DefaultConfig()
	cfg.H17.Drives = []string{"", file, filepath.Join(dir, "missing.h8d")}
	m := newMachine(t, cfg)

	info, err := m.DriveInfo(CardH17, 1)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, info.Loaded)
	test.ExpectEquality(t, info.File, file)

	info, err = m.DriveInfo(CardH17, 2)
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, info.Loaded)
}

//
func TestResetRearmsMemoryLock(t *testing.T) {

	cfg := DefaultConfig()
	cfg.Memory.Variant = string(memory.VariantMMS77318)
	m := newMachine(t, cfg)

	mms, ok := m.Memory.Decoder.(*memory.MMS77318Decoder)
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, mms.LockState(), 0)

	// a sequence missing its first byte must not unlock
	for _, v := range []byte{0x0c, 0x04, 0x08, 0x0c, 0x08} {
		m.IOBus.Out(bus.GppPort, v)
	}
	test.ExpectSuccess(t, !mms.IsUnlocked())

	m.Reset()
	test.ExpectEquality(t, mms.LockState(), 0)
	for _, v := range []byte{0x0c, 0x04, 0x08, 0x0c, 0x08} {
		m.IOBus.Out(bus.GppPort, v)
	}
	test.ExpectSuccess(t, !mms.IsUnlocked())

	m.Reset()
	for _, v := range []byte{0x04, 0x0c, 0x04, 0x08, 0x0c, 0x08} {
		m.IOBus.Out(bus.GppPort, v)
	}
	test.ExpectSuccess(t, mms.IsUnlocked())

	m.Reset()
	test.ExpectSuccess(t, !mms.IsUnlocked())
	test.ExpectEquality(t, mms.LockState(), 0)
}

//
func TestRunCycles(t *testing.T) {
	m := newMachine(t, DefaultConfig())
	done := m.RunCycles(1000)
	test.ExpectSuccess(t, done >= 1000)
	test.ExpectEquality(t, m.Clock.Cycles(), uint64(done))
}

//
func TestClockInterrupt(t *testing.T) {

	m := newMachine(t, DefaultConfig())
	test.ExpectEquality(t, m.IC.Pending(), -1)

	m.IOBus.Out(bus.GppPort, bus.GppClockEnabled)
	m.Clock.AddCycles(DefaultClockRate / 500)
	test.ExpectEquality(t, m.IC.Pending(), bus.LevelClock)
	test.ExpectSuccess(t, m.Status().ClockActive)

	m.Reset()
	test.ExpectEquality(t, m.IC.Pending(), -1)
	test.ExpectFailure(t, m.Status().ClockActive)
}

//
func TestPeek(t *testing.T) {

	m := newMachine(t, DefaultConfig())
	m.AddressBus.Write(0x8000, 0x12)
	m.AddressBus.Write(0xffff, 0x34)

	test.ExpectEquality(t, m.Peek(0x8000, 1)[0], byte(0x12))

	data := m.Peek(0xffff, 2)
	test.DemandEquality(t, len(data), 2)
	test.ExpectEquality(t, data[0], byte(0x34))
}

//
func TestStatus(t *testing.T) {
	m := newMachine(t, DefaultConfig())
	s := m.Status()
	test.ExpectEquality(t, s.Variant, "h89")
	test.ExpectEquality(t, s.Bank, 0)
	test.ExpectEquality(t, len(s.Drives), 7)
	test.ExpectSuccess(t, len(s.String()) > 0)
}

//
func TestRun(t *testing.T) {

	m := newMachine(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	test.ExpectSuccess(t, m.Run(ctx))
	test.ExpectSuccess(t, m.Clock.Cycles() > 0)

	failing := func(ctx context.Context) error {
		return errors.New("service failed")
	}
	test.ExpectFailure(t, m.Run(context.Background(), failing))
}

//
func TestLoadConfig(t *testing.T) {

	file := filepath.Join(t.TempDir(), "h89.yaml")
	test.DemandSuccess(t, os.WriteFile(file, []byte(`
memory:
  variant: mms77318
z37:
  enabled: false
z47:
  enabled: true
  drives: ["", "disk.z47"]
`), 0644))

	t.Setenv("H89_CLOCK", "4096000")

	cfg, err := LoadConfig(file)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, cfg.Memory.Variant, "mms77318")
	test.ExpectEquality(t, cfg.Memory.RAM, 64)
	test.ExpectEquality(t, cfg.ClockRate, uint32(4096000))
	test.ExpectSuccess(t, cfg.H17.Enabled)
	test.ExpectEquality(t, cfg.H17.Base, h17.DefaultBase)
	test.ExpectFailure(t, cfg.Z37.Enabled)
	test.ExpectSuccess(t, cfg.Z47.Enabled)
	test.ExpectEquality(t, cfg.Z47.Base, z47.DefaultBase)
	test.ExpectEquality(t, cfg.Z47.Level, bus.LevelDisk)
	test.DemandEquality(t, len(cfg.Z47.Drives), 2)
	test.ExpectEquality(t, cfg.Z47.Drives[1], "disk.z47")
	test.ExpectEquality(t, len(cfg.Serial), 4)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	test.ExpectFailure(t, err)
}

//
func TestValidate(t *testing.T) {

	cfg := DefaultConfig()
	test.ExpectSuccess(t, cfg.Validate())

	cfg.Memory.Variant = "h8"
	test.ExpectFailure(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Z47.Enabled = true
	cfg.Z47.Level = 8
	test.ExpectFailure(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SW501 = 0x100
	test.ExpectFailure(t, cfg.Validate())
}
