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

// Package machine assembles an H89 from its configuration, and runs it.
package machine

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/controller/h17"
	"github.com/xelalexv/h89emu/pkg/controller/z37"
	"github.com/xelalexv/h89emu/pkg/controller/z47"
	"github.com/xelalexv/h89emu/pkg/cpu"
	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/link"
	"github.com/xelalexv/h89emu/pkg/memory"
	"github.com/xelalexv/h89emu/pkg/serial"
)

// ports of the NMI latch
const (
	nmiPortBase = 0xf0
	nmiPorts    = 2
)

// a time slice of the run loop
const sliceDuration = 10 * time.Millisecond

// Service is something to run alongside the machine, e.g. the control API.
type Service func(ctx context.Context) error

/*
	Machine is a complete H89: memory, buses, CPU, and the configured cards.
	Everything in it is driven from a single goroutine, the run loop. Access
	from other goroutines, such as the control API, goes through the
	machine's methods, which serialize against the run loop.
*/
type Machine struct {
	config *Config
	lock   sync.Mutex
	//
	Memory     *memory.System
	AddressBus *bus.AddressBus
	IOBus      *bus.IOBus
	IC         bus.InterruptController
	Clock      *bus.Clock
	GPP        *bus.GeneralPurposePort
	Timer      *bus.Timer
	CPU        *cpu.Z80
	//
	H17     *h17.Controller
	Z37     *z37.Controller
	Z47Host *z47.HostInterface
	Z47     *z47.Controller
	Link    *link.ParallelLink
	UARTs   []*serial.INS8250
	//
	changes chan struct{}
}

// New builds a machine. ROM files and disk images named in cfg are loaded.
// An image that cannot be loaded leaves its drive empty.
func New(cfg *Config) (*Machine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{config: cfg, changes: make(chan struct{}, 1)}

	opts, err := memoryOptions(cfg.Memory)
	if err != nil {
		return nil, err
	}
	if m.Memory, err = memory.NewSystem(opts); err != nil {
		return nil, err
	}

	var z37ic *bus.Z37InterruptController
	if cfg.Z37.Enabled {
		z37ic = bus.NewZ37InterruptController(nil)
		m.IC = z37ic
	} else {
		m.IC = bus.NewH89InterruptController(nil)
	}

	m.AddressBus = bus.NewAddressBus(m.Memory.Decoder, m.IC)
	m.IOBus = bus.NewIOBus()
	m.Clock = bus.NewClock()
	m.CPU = cpu.NewZ80(m.AddressBus, m.IOBus)
	m.IC.SetCPU(m.CPU)

	m.GPP = bus.NewGeneralPurposePort(byte(cfg.SW501))
	m.GPP.AddListener(m.Memory.Decoder)
	m.Timer = bus.NewTimer(m.IC, cfg.ClockRate)
	m.GPP.AddListener(m.Timer)
	m.Clock.Register(m.Timer)

	if err := m.addDevice(m.GPP, bus.GppPort, 1); err != nil {
		return nil, err
	}
	if err := m.addDevice(bus.NewNMIPorts(m.IC), nmiPortBase, nmiPorts); err != nil {
		return nil, err
	}

	if cfg.H17.Enabled {
		m.H17 = h17.NewController(
			byte(cfg.H17.Base), cfg.ClockRate, m.Memory.EnableFloppyRAMWrite)
		if err := m.addDevice(m.H17, m.H17.Base(), h17.Ports); err != nil {
			return nil, err
		}
		m.GPP.AddListener(m.H17)
		m.Clock.Register(m.H17)
	}

	if cfg.Z37.Enabled {
		m.Z37 = z37.NewController(byte(cfg.Z37.Base), cfg.ClockRate, z37ic)
		if err := m.addDevice(m.Z37, m.Z37.Base(), z37.Ports); err != nil {
			return nil, err
		}
		m.Clock.Register(m.Z37)
	}

	if cfg.Z47.Enabled {
		m.Link = link.NewParallelLink()
		m.Z47 = z47.NewController(m.Link)
		m.Z47Host = z47.NewHostInterface(
			byte(cfg.Z47.Base), m.Link, m.IC, cfg.Z47.Level)
		if err := m.addDevice(
			m.Z47Host, m.Z47Host.Base(), z47.HostPorts); err != nil {
			return nil, err
		}
		m.Clock.Register(m.Z47)
	}

	for _, s := range cfg.Serial {
		u := serial.NewINS8250(
			s.Name, byte(s.Base), m.IC, s.Level, cfg.ClockRate)
		if err := m.addDevice(u, u.Base(), serial.Ports); err != nil {
			return nil, err
		}
		m.Clock.Register(u)
		m.UARTs = append(m.UARTs, u)
	}

	m.insertConfiguredImages()
	m.reset()

	return m, nil
}

//
func memoryOptions(cfg MemoryConfig) (memory.Options, error) {

	opts := memory.Options{RAMSize: cfg.RAM}

	var err error
	if opts.Variant, err = memory.ParseVariant(cfg.Variant); err != nil {
		return opts, err
	}

	if cfg.Monitor != "" {
		if opts.Monitor, err = memory.LoadROM(cfg.Monitor); err != nil {
			return opts, fmt.Errorf("cannot load monitor ROM: %v", err)
		}
	} else {
		log.Warn("no monitor ROM configured")
	}

	if cfg.H17ROM != "" {
		if opts.H17ROM, err = memory.LoadROM(cfg.H17ROM); err != nil {
			return opts, fmt.Errorf("cannot load H17 ROM: %v", err)
		}
	}

	return opts, nil
}

//
func (m *Machine) addDevice(d bus.Device, base byte, ports int) error {
	if !m.IOBus.AddDevice(d, base, ports) {
		return fmt.Errorf("cannot place %s at port %03o: ports in use",
			d.Name(), base)
	}
	return nil
}

//
func (m *Machine) insertConfiguredImages() {
	for card, cc := range map[string]CardConfig{
		CardH17: m.config.H17, CardZ37: m.config.Z37, CardZ47: m.config.Z47} {
		if !cc.Enabled {
			continue
		}
		for ix, file := range cc.Drives {
			if file == "" {
				continue
			}
			logger := log.WithFields(log.Fields{
				"card": card, "drive": ix, "file": file})
			d, err := disk.LoadFile(file)
			if err != nil {
				logger.Errorf("cannot load image, leaving drive empty: %v", err)
				continue
			}
			if d.Type() != medium(card) {
				logger.Errorf("%v: %v", ErrWrongMedium, d.Type())
				continue
			}
			drv, err := m.drive(card, ix)
			if err != nil {
				logger.Errorf("cannot insert image: %v", err)
				continue
			}
			drv.Insert(d, file)
			logger.Info("image inserted")
		}
	}
}

//
func (m *Machine) Config() *Config {
	return m.config
}

// UART returns the serial port with given name, or nil.
func (m *Machine) UART(name string) *serial.INS8250 {
	for _, u := range m.UARTs {
		if u.Name() == name {
			return u
		}
	}
	return nil
}

// Reset is a press of the reset key: memory returns to its power-up banking,
// all devices and the CPU reset.
func (m *Machine) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reset()
	m.notify()
}

//
func (m *Machine) reset() {
	m.IC.Reset()
	// the GPP writes 0 on reset, decoder lock must be re-armed after that
	m.IOBus.Reset()
	m.AddressBus.Reset()
	m.CPU.Reset()
	log.Info("machine reset")
}

// RunCycles executes instructions for at least cycles CPU cycles, and
// returns how many were executed.
func (m *Machine) RunCycles(cycles uint32) uint32 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.runCycles(cycles)
}

//
func (m *Machine) runCycles(cycles uint32) uint32 {
	var done uint32
	for done < cycles {
		t := m.CPU.Step()
		m.Clock.AddCycles(t)
		done += t
	}
	return done
}

/*
	Run runs the machine until ctx is done or one of the services fails.
	Execution is done in time slices. When throttling, each slice is paced
	to take as long as on the real machine.
*/
func (m *Machine) Run(ctx context.Context, services ...Service) error {

	g, ctx := errgroup.WithContext(ctx)

	for _, s := range services {
		s := s
		g.Go(func() error {
			return s(ctx)
		})
	}

	g.Go(func() error {
		return m.loop(ctx)
	})

	return g.Wait()
}

//
func (m *Machine) loop(ctx context.Context) error {

	rate := uint64(m.config.ClockRate)
	slice := uint32(rate * uint64(sliceDuration) / uint64(time.Second))
	if slice == 0 {
		slice = 1
	}

	log.WithFields(log.Fields{
		"clock":    rate,
		"throttle": m.config.Throttle}).Info("machine running")

	start := time.Now()
	var executed uint64

	for {
		select {
		case <-ctx.Done():
			log.Info("machine stopped")
			return nil
		default:
		}

		executed += uint64(m.RunCycles(slice))

		if m.config.Throttle {
			due := start.Add(time.Duration(
				float64(executed) / float64(rate) * float64(time.Second)))
			if wait := time.Until(due); wait > 0 {
				time.Sleep(wait)
			} else if wait < -time.Second {
				// fallen behind too far, don't try to catch up
				start = time.Now()
				executed = 0
			}
		}
	}
}

// Changes signals changes to drive contents and resets. The channel holds
// at most one pending signal.
func (m *Machine) Changes() <-chan struct{} {
	return m.changes
}

//
func (m *Machine) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
