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

// Package control provides the HTTP API for controlling a running machine.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/machine"
	"github.com/xelalexv/h89emu/pkg/repo"
)

// DefaultAddress is where the API listens unless configured otherwise
const DefaultAddress = ":8889"

// how long a server shutdown may take
const shutdownTimeout = 5 * time.Second

// Machine is what the API needs from the emulated machine
type Machine interface {
	Status() *machine.Status
	Drives() []*machine.DriveInfo
	DriveInfo(card string, ix int) (*machine.DriveInfo, error)
	Load(card string, ix int, d disk.Disk, file string, force bool) error
	Eject(card string, ix int) (disk.Disk, error)
	DumpDisk(card string, ix int, w io.Writer) error
	Peek(addr uint16, length int) []byte
	Reset()
	Changes() <-chan struct{}
}

//
type API interface {
	Serve(ctx context.Context) error
	Handler() http.Handler
}

//
type api struct {
	address    string
	machine    Machine
	index      *repo.Index
	repository string
	router     *mux.Router
}

// NewAPIServer creates the API for m. index may be nil, in which case search
// is not available. repository is the directory repo:// references are
// resolved in, and may be empty.
func NewAPIServer(address string, m Machine, index *repo.Index,
	repository string) API {

	if address == "" {
		address = DefaultAddress
	}

	a := &api{
		address:    address,
		machine:    m,
		index:      index,
		repository: repository,
	}

	r := mux.NewRouter()
	r.HandleFunc("/status", a.status).Methods("GET")
	r.HandleFunc("/watch", a.watch).Methods("GET")
	r.HandleFunc("/drives", a.driveList).Methods("GET")
	r.HandleFunc("/drive/{card}/{drive:[0-9]+}", a.driveInfo).Methods("GET")
	r.HandleFunc("/drive/{card}/{drive:[0-9]+}/dump", a.dump).Methods("GET")
	r.HandleFunc("/drive/{card}/{drive:[0-9]+}", a.load).Methods("PUT")
	r.HandleFunc("/drive/{card}/{drive:[0-9]+}", a.eject).Methods("DELETE")
	r.HandleFunc("/reset", a.reset).Methods("PUT")
	r.HandleFunc("/memory", a.memory).Methods("GET")
	r.HandleFunc("/search", a.search).Methods("GET")
	r.HandleFunc("/version", a.version).Methods("GET")
	a.router = r

	return a
}

//
func (a *api) Handler() http.Handler {
	return a.router
}

// Serve runs the API server until ctx is done.
func (a *api) Serve(ctx context.Context) error {

	srv := &http.Server{Addr: a.address, Handler: a.router}

	errs := make(chan error, 1)
	go func() {
		log.WithField("address", a.address).Info("API server starting")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("API server failed: %v", err)

	case <-ctx.Done():
		log.Info("API server shutting down")
		sctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("API server shutdown failed: %v", err)
		}
		return nil
	}
}

// getDrive gets card and drive from the request path. On error, this sends
// the reply and returns a drive of -1.
func getDrive(w http.ResponseWriter, req *http.Request) (string, int) {
	vars := mux.Vars(req)
	drive, err := strconv.Atoi(vars["drive"])
	if err != nil {
		handleError(fmt.Errorf("invalid drive number: %v", err),
			http.StatusUnprocessableEntity, w)
		return "", -1
	}
	return strings.ToLower(vars["card"]), drive
}

// driveErrorStatus maps machine errors to a status code
func driveErrorStatus(err error) int {
	switch {
	case errors.Is(err, machine.ErrNoSuchCard):
		return http.StatusNotFound
	case errors.Is(err, machine.ErrModified):
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

//
func getRef(req *http.Request) (string, error) {
	ref := getArg(req, "ref")
	if ref == "" {
		return "", nil
	}
	if !strings.Contains(ref, "://") {
		return ref, fmt.Errorf("invalid reference: %s", ref)
	}
	return ref, nil
}

//
func getArg(req *http.Request, arg string) string {
	return req.URL.Query().Get(arg)
}

// getIntArg parses an integer argument, accepting the prefixes 0x and 0 for
// hex and octal. When the argument is missing, def is returned.
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	v := getArg(req, arg)
	if v == "" {
		return def, nil
	}
	ret, err := strconv.ParseInt(v, 0, 32)
	if err != nil {
		return def, fmt.Errorf("invalid value for %s: %s", arg, v)
	}
	return int(ret), nil
}

//
func isFlagSet(req *http.Request, flag string) bool {
	v, ok := req.URL.Query()[flag]
	if !ok {
		return false
	}
	return len(v) == 0 || v[0] == "" || strings.ToLower(v[0]) == "true"
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {
	if e == nil {
		return false
	}
	log.Errorf("API error: %v", e)
	sendReply([]byte(e.Error()), statusCode, w)
	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	body, err := json.Marshal(obj)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending JSON reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending stream reply: %v", err)
	}
}
