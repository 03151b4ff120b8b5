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

package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/control"
	"github.com/xelalexv/h89emu/pkg/machine"
	"github.com/xelalexv/h89emu/pkg/repo"
	"github.com/xelalexv/h89emu/pkg/serial"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-c|--config {file}] [-l|--listen {address}] [-r|--repo {dir}]
      [--index {dir}] [--log-file {file}] [--no-throttle]`,
		"run the emulated machine",
		`
Use the serve command to run an emulated H89 or H88. The console UART is connected
to this terminal. Press Ctrl-] to stop the machine. Drives can be loaded and
ejected while the machine is running, using the load and eject commands.`,
		"", `- Modified disks from uncompressed image files named in the machine
  configuration are written back when ejected, and when the machine stops.

- When the console is on this terminal, use --log-file to keep log output
  from mixing with the console output.

`+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Config, "config", "c", "", nil,
		"machine configuration file", false)
	s.AddSetting(&s.Listen, "listen", "l", "", control.DefaultAddress,
		"address of the control API", false)
	s.AddSetting(&s.Repo, "repo", "r", "", nil,
		"image repository directory", false)
	s.AddSetting(&s.Index, "index", "", "", nil,
		"search index directory; defaults to .index inside the repository", false)
	s.AddSetting(&s.LogFile, "log-file", "", "", nil,
		"write log output to this file", false)
	s.AddSetting(&s.NoThrottle, "no-throttle", "", "", false,
		"run as fast as possible", false)

	return s
}

//
type Serve struct {
	Runner
	//
	Config     string
	Listen     string
	Repo       string
	Index      string
	LogFile    string
	NoThrottle bool
}

//
func (s *Serve) Run() error {

	s.ParseSettings()

	if s.LogFile != "" {
		f, err := os.OpenFile(
			s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := machine.LoadConfig(s.Config)
	if err != nil {
		return err
	}
	if s.NoThrottle {
		cfg.Throttle = false
	}

	m, err := machine.New(cfg)
	if err != nil {
		return err
	}
	defer m.EjectAll()

	index, err := s.startIndex()
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Stop()
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := []machine.Service{
		control.NewAPIServer(s.Listen, m, index, s.Repo).Serve,
	}

	for _, sc := range cfg.Serial {
		svc, err := attach(m, sc, stop)
		if err != nil {
			return err
		}
		if svc != nil {
			services = append(services, svc)
		}
	}

	return m.Run(ctx, services...)
}

// startIndex opens and starts the search index, if a repository is set
func (s *Serve) startIndex() (*repo.Index, error) {

	if s.Repo == "" {
		return nil, nil
	}

	dir := s.Index
	if dir == "" {
		dir = filepath.Join(s.Repo, ".index")
	}

	index, err := repo.NewIndex(dir, s.Repo)
	if err != nil {
		return nil, err
	}
	if err := index.Start(); err != nil {
		index.Stop()
		return nil, err
	}
	return index, nil
}

/*
	attach connects a UART to what its configuration names, and returns the
	service running the connection. Returns a nil service for an unattached
	UART. The escape key on the terminal calls quit.
*/
func attach(m *machine.Machine, sc machine.SerialConfig,
	quit func()) (machine.Service, error) {

	uart := m.UART(sc.Name)
	if uart == nil || sc.Attach == machine.AttachNone {
		return nil, nil
	}

	logger := log.WithFields(log.Fields{"uart": sc.Name, "attach": sc.Attach})

	if sc.Attach == machine.AttachTerminal {
		con := serial.NewTerminalConsole(uart)
		con.SetEscape(serial.DefaultEscape, quit)
		uart.Attach(con)
		return func(ctx context.Context) error {
			if err := con.Start(ctx); err != nil {
				return err
			}
			logger.Info("console attached, press Ctrl-] to quit")
			<-ctx.Done()
			con.Stop()
			return nil
		}, nil
	}

	bridge, err := serial.NewPortBridge(sc.Attach, uart)
	if err != nil {
		return nil, err
	}
	uart.Attach(bridge)
	return func(ctx context.Context) error {
		bridge.Start(ctx)
		logger.Info("serial port attached")
		<-ctx.Done()
		bridge.Close()
		return nil
	}, nil
}
