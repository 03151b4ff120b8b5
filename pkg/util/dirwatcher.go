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

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

/*
	DirWatcher watches a directory tree for changes. Directories added to the
	tree are included in the watch as they appear. Hidden files and
	directories, i.e. those starting with a dot, are ignored.
*/
type DirWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped sync.Once
	running bool
}

// NewDirWatcher sets up a watcher for the tree rooted in dir. It does not
// report anything until started.
func NewDirWatcher(dir string) (*DirWatcher, error) {

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DirWatcher{watcher: w, done: make(chan struct{})}

	if err := filepath.Walk(dir, dw.walk); err != nil {
		w.Close()
		return nil, fmt.Errorf("error walking directory '%s': %v", dir, err)
	}

	return dw, nil
}

/*
	Start starts reporting changes to handler. After a change, flush gets
	called once the tree has been quiet for backoff. Handler and flush are
	always called from the same goroutine, so they need not be thread safe.
	A watcher can only be started once.
*/
func (dw *DirWatcher) Start(backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) error {

	if dw.running {
		return fmt.Errorf("directory watcher already started")
	}
	dw.running = true

	go func() {

		defer close(dw.done)

		timer := time.NewTimer(backoff)
		timer.Stop()

		for {
			select {

			case evt, ok := <-dw.watcher.Events:
				if !ok {
					timer.Stop()
					log.Debug("directory watcher routine exiting")
					return
				}
				if isHidden(evt.Name) {
					continue
				}
				dw.follow(evt)
				if err := handler(evt); err != nil {
					log.Errorf("error in watch event handler: %v", err)
				}
				timer.Reset(backoff)

			case err, ok := <-dw.watcher.Errors:
				if ok {
					log.Errorf("directory watcher error: %v", err)
				}

			case <-timer.C:
				if err := flush(); err != nil {
					log.Errorf("error flushing: %v", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the watcher, and waits for its routine to end when it was
// started. A stopped watcher cannot be started again.
func (dw *DirWatcher) Stop() {
	dw.stopped.Do(func() {
		log.Info("closing directory watcher")
		if err := dw.watcher.Close(); err != nil {
			log.Errorf("could not close file watcher: %v", err)
		}
		if dw.running {
			<-dw.done
		}
	})
}

// follow adds new directories to the watch
func (dw *DirWatcher) follow(evt fsnotify.Event) {
	log.WithFields(
		log.Fields{"path": evt.Name, "op": evt.Op}).Debug("watch event")
	if evt.Op&fsnotify.Create == 0 {
		return
	}
	if info, err := os.Lstat(evt.Name); err == nil && info.IsDir() {
		filepath.Walk(evt.Name, dw.walk)
	}
}

//
func (dw *DirWatcher) walk(path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	if isHidden(path) {
		return filepath.SkipDir
	}
	if err := dw.watcher.Add(path); err != nil {
		return fmt.Errorf("error watching directory '%s': %v", path, err)
	}
	log.WithField("path", path).Debug("watching directory")
	return nil
}

//
func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && strings.HasPrefix(base, ".") && base != ".."
}
