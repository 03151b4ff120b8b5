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
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sink takes bytes from a console, usually an INS8250.
type Sink interface {
	SendData(b byte)
	SendReady() bool
}

// how long the reader backs off while the sink is full
const sinkBackoff = 2 * time.Millisecond

/*
	StreamConsole connects a UART to a pair of streams. Bytes the UART
	transmits are written to out. A reader goroutine forwards bytes from in
	to the sink, holding back while the sink is full. If an escape byte is
	set, reading it calls the escape handler instead of forwarding it.
*/
type StreamConsole struct {
	in       io.Reader
	out      *bufio.Writer
	outLock  sync.Mutex
	sink     Sink
	escape   byte
	onEscape func()
	done     chan struct{}
	stopped  sync.Once
}

//
func NewStreamConsole(in io.Reader, out io.Writer, sink Sink) *StreamConsole {
	return &StreamConsole{
		in:   in,
		out:  bufio.NewWriter(out),
		sink: sink,
		done: make(chan struct{}),
	}
}

// SetEscape sets the byte that calls handler instead of being forwarded. A
// 0 escape byte disables this.
func (c *StreamConsole) SetEscape(escape byte, handler func()) {
	c.escape = escape
	c.onEscape = handler
}

// ReceiveData writes a byte transmitted by the UART.
func (c *StreamConsole) ReceiveData(b byte) {
	c.outLock.Lock()
	defer c.outLock.Unlock()
	if err := c.out.WriteByte(b); err != nil {
		log.Errorf("console write failed: %v", err)
		return
	}
	// bytes arrive one by one at serial speed, so keep the terminal current
	if err := c.out.Flush(); err != nil {
		log.Errorf("console flush failed: %v", err)
	}
}

// Start begins forwarding input until ctx is done or Stop is called.
func (c *StreamConsole) Start(ctx context.Context) {

	bytes := make(chan byte)
	go func() {
		defer close(bytes)
		buf := make([]byte, 64)
		for {
			n, err := c.in.Read(buf)
			for _, b := range buf[:n] {
				select {
				case bytes <- b:
				case <-c.done:
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					log.Errorf("console read failed: %v", err)
				}
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.Stop()
				return
			case <-c.done:
				return
			case b, ok := <-bytes:
				if !ok {
					// input ended, wait for shutdown
					bytes = nil
					continue
				}
				c.forward(ctx, b)
			}
		}
	}()
}

//
func (c *StreamConsole) forward(ctx context.Context, b byte) {

	if c.escape != 0 && b == c.escape {
		if c.onEscape != nil {
			c.onEscape()
		}
		return
	}

	for !c.sink.SendReady() {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-time.After(sinkBackoff):
		}
	}
	c.sink.SendData(b)
}

// Stop ends input forwarding. It can be called more than once.
func (c *StreamConsole) Stop() {
	c.stopped.Do(func() {
		close(c.done)
	})
}

// Done is closed once the console has been stopped.
func (c *StreamConsole) Done() <-chan struct{} {
	return c.done
}
