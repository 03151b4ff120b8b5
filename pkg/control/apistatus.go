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

package control

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

// longest a watch request may wait
const maxWatchTimeout = 600

// largest memory range a single request may read
const maxPeek = 0x10000

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {
	s := a.machine.Status()
	if wantsJSON(req) {
		sendJSONReply(s, http.StatusOK, w)
		return
	}
	sendReply([]byte(s.String()), http.StatusOK, w)
}

// watch waits until a disk gets loaded or ejected, or the machine gets
// reset, then replies with the status. When nothing happens until the
// timeout, the reply is 304.
func (a *api) watch(w http.ResponseWriter, req *http.Request) {

	timeout, err := getIntArg(req, "timeout", 60)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if timeout < 1 || timeout > maxWatchTimeout {
		handleError(fmt.Errorf("timeout must be between 1 and %d seconds",
			maxWatchTimeout), http.StatusUnprocessableEntity, w)
		return
	}

	select {
	case <-a.machine.Changes():
		a.status(w, req)
	case <-time.After(time.Duration(timeout) * time.Second):
		w.WriteHeader(http.StatusNotModified)
	case <-req.Context().Done():
	}
}

//
func (a *api) reset(w http.ResponseWriter, req *http.Request) {
	a.machine.Reset()
	sendReply([]byte("machine reset"), http.StatusOK, w)
}

// memory reads through the active memory bank without side effects
func (a *api) memory(w http.ResponseWriter, req *http.Request) {

	addr, err := getIntArg(req, "address", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if addr < 0 || addr > 0xffff {
		handleError(fmt.Errorf("address out of range: %d", addr),
			http.StatusUnprocessableEntity, w)
		return
	}

	length, err := getIntArg(req, "length", 256)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if length < 1 || length > maxPeek {
		handleError(fmt.Errorf("length out of range: %d", length),
			http.StatusUnprocessableEntity, w)
		return
	}

	data := a.machine.Peek(uint16(addr), length)

	if wantsJSON(req) {
		sendJSONReply(map[string]interface{}{
			"address": addr,
			"data":    hex.EncodeToString(data),
		}, http.StatusOK, w)
		return
	}

	sendReply([]byte(dumpWithOffset(data, addr)), http.StatusOK, w)
}

// dumpWithOffset is a hex dump whose offsets start at base
func dumpWithOffset(data []byte, base int) string {
	dump := hex.Dump(data)
	if base == 0 {
		return dump
	}
	var ret []byte
	for ix := 0; ix < len(data); ix += 16 {
		end := ix + 16
		if end > len(data) {
			end = len(data)
		}
		line := hex.Dump(data[ix:end])
		ret = append(ret, fmt.Sprintf("%08x%s", (base+ix)&0xffff, line[8:])...)
	}
	return string(ret)
}
