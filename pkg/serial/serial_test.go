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
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/test"
)

const testClock = 2048000

//
type fakeIC struct {
	raised map[int]bool
}

func newFakeIC() *fakeIC {
	return &fakeIC{raised: map[int]bool{}}
}

func (f *fakeIC) RaiseInterrupt(level int) { f.raised[level] = true }
func (f *fakeIC) LowerInterrupt(level int) { f.raised[level] = false }
func (f *fakeIC) RaiseNMI()                {}
func (f *fakeIC) ReadDataBus() byte        { return 0 }
func (f *fakeIC) Pending() int             { return 0 }
func (f *fakeIC) SetCPU(cpu bus.CPU)       {}
func (f *fakeIC) Reset()                   {}

//
type captured struct {
	data []byte
}

func (c *captured) ReceiveData(b byte) { c.data = append(c.data, b) }

//
func TestTransmitPacing(t *testing.T) {

	u := NewINS8250("console", ConsoleBase, nil, -1, testClock)
	c := &captured{}
	u.Attach(c)

	// 9600 baud at 2.048MHz
	test.ExpectEquality(t, u.characterCycles(), uint32(2133))

	u.Out(ConsoleBase, 'H')
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&LSRTransmitHoldEmpty, byte(0))

	u.Notification(2000)
	test.ExpectEquality(t, len(c.data), 0)

	u.Notification(200)
	test.DemandEquality(t, len(c.data), 1)
	test.ExpectEquality(t, c.data[0], byte('H'))
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&
		(LSRTransmitHoldEmpty|LSRTransmitterEmpty),
		byte(LSRTransmitHoldEmpty|LSRTransmitterEmpty))
}

//
func TestReceive(t *testing.T) {

	u := NewINS8250("console", ConsoleBase, nil, -1, testClock)
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&LSRDataReady, byte(0))

	u.SendData('a')
	u.SendData('b')
	u.Notification(1)
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&LSRDataReady,
		byte(LSRDataReady))

	// second byte waits until the first has been read
	u.Notification(1)
	test.ExpectEquality(t, u.In(ConsoleBase), byte('a'))
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&LSRDataReady, byte(0))

	u.Notification(1)
	test.ExpectEquality(t, u.In(ConsoleBase), byte('b'))

	u.Notification(1)
	test.ExpectEquality(t, u.In(ConsoleBase+regLSR)&LSRDataReady, byte(0))
}

//
func TestSendReady(t *testing.T) {
	u := NewINS8250("aux", AuxBase, nil, -1, testClock)
	for ix := 0; ix < inputQueue; ix++ {
		test.DemandSuccess(t, u.SendReady(), ix)
		u.SendData(byte(ix))
	}
	test.ExpectFailure(t, u.SendReady())
}

//
func TestDivisorLatch(t *testing.T) {

	u := NewINS8250("modem", ModemBase, nil, -1, testClock)
	test.ExpectEquality(t, u.Baud(), 9600)

	u.Out(ModemBase+regLCR, LCRDivisorLatch|0x03)
	u.Out(ModemBase+regData, 6)
	u.Out(ModemBase+regIER, 0)
	test.ExpectEquality(t, u.In(ModemBase+regData), byte(6))
	test.ExpectEquality(t, u.In(ModemBase+regIER), byte(0))

	u.Out(ModemBase+regLCR, 0x03)
	test.ExpectEquality(t, u.Baud(), 19200)
	test.ExpectEquality(t, u.In(ModemBase+regLCR), byte(0x03))
}

//
func TestReceiveInterrupt(t *testing.T) {

	ic := newFakeIC()
	u := NewINS8250("console", ConsoleBase, ic, ConsoleLevel, testClock)

	u.Out(ConsoleBase+regIER, IERReceiveData)
	test.ExpectFailure(t, ic.raised[ConsoleLevel])
	test.ExpectEquality(t, u.In(ConsoleBase+regIIR), byte(IIRNone))

	u.SendData('x')
	u.Notification(1)
	test.ExpectSuccess(t, ic.raised[ConsoleLevel])
	test.ExpectEquality(t, u.In(ConsoleBase+regIIR), byte(IIRReceiveData))

	test.ExpectEquality(t, u.In(ConsoleBase), byte('x'))
	test.ExpectFailure(t, ic.raised[ConsoleLevel])
}

//
func TestTransmitInterrupt(t *testing.T) {

	ic := newFakeIC()
	u := NewINS8250("console", ConsoleBase, ic, ConsoleLevel, testClock)

	u.Out(ConsoleBase+regIER, IERTransmitEmpty)
	test.ExpectSuccess(t, ic.raised[ConsoleLevel])

	// reading IIR acknowledges THRE
	test.ExpectEquality(t, u.In(ConsoleBase+regIIR), byte(IIRTransmitEmpty))
	test.ExpectFailure(t, ic.raised[ConsoleLevel])

	u.Out(ConsoleBase, 'z')
	test.ExpectFailure(t, ic.raised[ConsoleLevel])
	u.Notification(u.characterCycles())
	test.ExpectSuccess(t, ic.raised[ConsoleLevel])

	// writing THR acknowledges as well
	u.Out(ConsoleBase, 'y')
	test.ExpectFailure(t, ic.raised[ConsoleLevel])
}

//
func TestModemStatus(t *testing.T) {
	u := NewINS8250("lp", LinePrinter, nil, -1, testClock)
	test.ExpectEquality(t, u.In(LinePrinter+regMSR), byte(0))
	u.Attach(&captured{})
	test.ExpectEquality(t, u.In(LinePrinter+regMSR), byte(msrConnected))
	u.Out(LinePrinter+regSCR, 0x5a)
	test.ExpectEquality(t, u.In(LinePrinter+regSCR), byte(0x5a))
}

//
type fakeSink struct {
	lock sync.Mutex
	data []byte
}

func (s *fakeSink) SendData(b byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data = append(s.data, b)
}

func (s *fakeSink) SendReady() bool { return true }

func (s *fakeSink) received() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return string(s.data)
}

//
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

//
func TestStreamConsole(t *testing.T) {

	sink := &fakeSink{}
	out := &bytes.Buffer{}
	c := NewStreamConsole(strings.NewReader("a\x1dbc"), out, sink)

	escapes := 0
	var lock sync.Mutex
	c.SetEscape(DefaultEscape, func() {
		lock.Lock()
		escapes++
		lock.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	waitFor(t, func() bool { return sink.received() == "abc" })
	lock.Lock()
	test.ExpectEquality(t, escapes, 1)
	lock.Unlock()

	c.ReceiveData('o')
	c.ReceiveData('k')
	test.ExpectEquality(t, out.String(), "ok")

	cancel()
	waitFor(t, func() bool {
		select {
		case <-c.Done():
			return true
		default:
			return false
		}
	})
}

//
func TestParsePortSpec(t *testing.T) {

	dev, baud, err := ParsePortSpec("/dev/ttyUSB0")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, dev, "/dev/ttyUSB0")
	test.ExpectEquality(t, baud, uint(9600))

	dev, baud, err = ParsePortSpec("/dev/ttyS1:19200")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, dev, "/dev/ttyS1")
	test.ExpectEquality(t, baud, uint(19200))

	_, _, err = ParsePortSpec("/dev/ttyS1:fast")
	test.ExpectFailure(t, err)
	_, _, err = ParsePortSpec("")
	test.ExpectFailure(t, err)
}
