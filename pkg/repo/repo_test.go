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

package repo

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xelalexv/h89emu/pkg/test"
)

//
func writeFile(t *testing.T, file string, data []byte) {
	t.Helper()
	test.DemandSuccess(t, os.MkdirAll(filepath.Dir(file), 0755))
	test.DemandSuccess(t, os.WriteFile(file, data, 0644))
}

//
func TestIsImage(t *testing.T) {
	test.ExpectSuccess(t, IsImage("cpm22.h8d"))
	test.ExpectSuccess(t, IsImage("dir/hdos.img.gz"))
	test.ExpectSuccess(t, IsImage("games.zip"))
	test.ExpectFailure(t, IsImage("readme.txt"))
	test.ExpectFailure(t, IsImage("Makefile"))
}

//
func TestNewEntry(t *testing.T) {
	e := newEntry("cpm/cpm-2.2_boot.h8d")
	test.ExpectEquality(t, e.Name, "cpm/cpm 2 2 boot h8d")
	test.ExpectEquality(t, e.Type, "hard-sectored")
	test.ExpectFailure(t, e.Compressed)

	e = newEntry("z47.zip")
	test.ExpectEquality(t, e.Type, "")
	test.ExpectSuccess(t, e.Compressed)
}

//
func TestIndex(t *testing.T) {

	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	writeFile(t, filepath.Join(repo, "cpm", "cpm22.h8d"), []byte{0})
	writeFile(t, filepath.Join(repo, "hdos.img.gz"), []byte{0})
	writeFile(t, filepath.Join(repo, "notes.txt"), []byte{0})

	ix, err := NewIndex(filepath.Join(dir, "index"), repo)
	test.DemandSuccess(t, err)
	ix.flushDelay = 20 * time.Millisecond
	test.DemandSuccess(t, ix.Start())
	defer ix.Stop()

	res, err := ix.Search("cpm22", 10)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(res.Hits), 1)
	test.ExpectEquality(t, res.Hits[0], filepath.Join("cpm", "cpm22.h8d"))
	test.ExpectSuccess(t, res.Complete)

	res, err = ix.Search("notes", 10)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(res.Hits), 0)

	_, err = ix.Search("  ", 10)
	test.ExpectFailure(t, err)

	// images added later are picked up
	writeFile(t, filepath.Join(repo, "games.h8d"), []byte{0})
	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err = ix.Search("games", 10)
		test.DemandSuccess(t, err)
		if len(res.Hits) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("new image not indexed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

//
func TestSearchLimit(t *testing.T) {

	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	for _, n := range []string{"disk1.h8d", "disk2.h8d", "disk3.h8d"} {
		writeFile(t, filepath.Join(repo, n), []byte{0})
	}

	ix, err := NewIndex(filepath.Join(dir, "index"), repo)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, ix.Start())
	defer ix.Stop()

	res, err := ix.Search("h8d", 2)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(res.Hits), 2)
	test.ExpectFailure(t, res.Complete)
	test.ExpectEquality(t, res.Total, uint64(3))
}

//
func TestResolveRepo(t *testing.T) {

	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "cpm", "boot.h8d"), []byte("boot"))

	src, name, err := Resolve("repo://cpm/boot.h8d", repo)
	test.DemandSuccess(t, err)
	data, err := io.ReadAll(src)
	src.Close()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(data), "boot")
	test.ExpectEquality(t, name, "boot.h8d")

	// no way out of the repository
	_, _, err = Resolve("repo://../cpm/boot.h8d", filepath.Join(repo, "cpm"))
	test.ExpectFailure(t, err)

	_, _, err = Resolve("repo://cpm/boot.h8d", "")
	test.ExpectFailure(t, err)
	_, _, err = Resolve("ftp://host/boot.h8d", repo)
	test.ExpectFailure(t, err)
}

//
func TestResolveHTTP(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/images/hdos.h8d" {
				http.NotFound(w, req)
				return
			}
			w.Write([]byte("hdos"))
		}))
	defer srv.Close()

	src, name, err := Resolve(srv.URL+"/images/hdos.h8d", "")
	test.DemandSuccess(t, err)
	data, err := io.ReadAll(src)
	src.Close()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(data), "hdos")
	test.ExpectEquality(t, name, "hdos.h8d")

	_, _, err = Resolve(srv.URL+"/images/missing.h8d", "")
	test.ExpectFailure(t, err)
}
