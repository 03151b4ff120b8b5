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
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// DefaultEscape is Ctrl-], which detaches from the terminal.
const DefaultEscape = 0x1d

/*
	TerminalConsole is a StreamConsole on the process' own terminal. While
	running, the terminal is in raw mode, so keystrokes go to the emulated
	machine unprocessed, and the H19's escape sequences reach the host
	terminal as they are.
*/
type TerminalConsole struct {
	*StreamConsole
	fd       int
	oldState *term.State
}

//
func NewTerminalConsole(sink Sink) *TerminalConsole {
	return &TerminalConsole{
		StreamConsole: NewStreamConsole(os.Stdin, os.Stdout, sink),
		fd:            int(os.Stdin.Fd()),
	}
}

// Start switches the terminal into raw mode if stdin is a terminal, and
// starts forwarding input.
func (t *TerminalConsole) Start(ctx context.Context) error {
	if term.IsTerminal(t.fd) {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %v", err)
		}
		t.oldState = state
	} else {
		log.Info("stdin is not a terminal, console runs in line mode")
	}
	t.StreamConsole.Start(ctx)
	return nil
}

// Stop ends input forwarding and restores the terminal.
func (t *TerminalConsole) Stop() {
	t.StreamConsole.Stop()
	if t.oldState != nil {
		if err := term.Restore(t.fd, t.oldState); err != nil {
			log.Errorf("failed to restore terminal: %v", err)
		}
		t.oldState = nil
	}
}
