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

// Package repo keeps a searchable index over a directory of disk images,
// and resolves references to images in it or on the web.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/h89emu/pkg/disk"
	"github.com/xelalexv/h89emu/pkg/util"
)

// characters that separate words in image file names
const separators = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

// how many index changes to collect before writing them
const maxBatch = 100

// how long the repository has to be quiet before pending changes get
// written
const defaultFlushDelay = 5 * time.Second

var nameCleaner *strings.Replacer

//
func init() {
	rep := make([]string, 2*len(separators))
	for ix, c := range separators {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

// Entry is what gets indexed for each image
type Entry struct {
	Name       string
	Type       string
	Compressed bool
}

// IsImage tells whether a file name looks like a disk image, possibly
// compressed.
func IsImage(file string) bool {
	_, typ, comp := disk.SplitNameTypeCompressor(file)
	return typ != "" || comp != ""
}

//
func newEntry(path string) Entry {
	_, typ, comp := disk.SplitNameTypeCompressor(path)
	e := Entry{Name: nameCleaner.Replace(path), Compressed: comp != ""}
	if t, err := disk.ParseType(typ); err == nil {
		e.Type = t.String()
	}
	return e
}

/*
	Index is a bleve index over the disk images in a repository directory.
	Once started, it follows changes to the directory. Index changes are
	collected in a batch, which gets written when it is full, or when the
	repository has been quiet for a while.
*/
type Index struct {
	base    string
	repo    string
	stopped bool
	//
	index   bleve.Index
	empty   bool
	watcher *util.DirWatcher
	//
	batch      *bleve.Batch
	batchCount int
	flushDelay time.Duration
}

// NewIndex opens the index at base for the repository at repo, creating it
// if it does not exist yet.
func NewIndex(base, repo string) (*Index, error) {

	var err error
	i := &Index{flushDelay: defaultFlushDelay}

	if i.base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	if i.repo, err = filepath.Abs(repo); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"index": i.base, "repo": i.repo})

	if _, err := os.Stat(i.base); os.IsNotExist(err) {
		logger.Info("creating new index")
		if i.index, err = bleve.New(i.base, bleve.NewIndexMapping()); err != nil {
			return nil, fmt.Errorf("cannot create index: %v", err)
		}
		i.empty = true

	} else {
		logger.Info("opening index")
		if i.index, err = bleve.Open(i.base); err != nil {
			return nil, fmt.Errorf("cannot open index: %v", err)
		}
	}

	i.batch = i.index.NewBatch()
	return i, nil
}

//
func (i *Index) Repo() string {
	return i.repo
}

// Start brings the index up to date with the repository, and starts
// following changes.
func (i *Index) Start() error {

	start := time.Now()
	if err := i.prune(); err != nil {
		return fmt.Errorf("error pruning index: %v", err)
	}
	if err := i.update(); err != nil {
		return fmt.Errorf("error updating index: %v", err)
	}
	if err := i.batched(true); err != nil {
		return err
	}
	log.WithField("duration", time.Since(start)).Info("index up to date")

	var err error
	if i.watcher, err = util.NewDirWatcher(i.repo); err != nil {
		return fmt.Errorf("error creating repo watcher: %v", err)
	}
	if err := i.watcher.Start(
		i.flushDelay, i.watchEvent, i.flushEvent); err != nil {
		return fmt.Errorf("error starting repo watcher: %v", err)
	}

	log.Info("index ready")
	return nil
}

//
func (i *Index) Stop() {
	i.stopped = true
	if i.watcher != nil {
		i.watcher.Stop()
	}
	if i.index != nil {
		if err := i.index.Close(); err != nil {
			log.Errorf("error closing index: %v", err)
		}
	}
}

// prune removes entries whose files are gone
func (i *Index) prune() error {

	if i.empty {
		return nil
	}

	ix, err := i.index.Advanced()
	if err != nil {
		return err
	}

	rd, err := ix.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	docs, err := rd.DocIDReaderAll()
	if err != nil {
		return err
	}
	defer docs.Close()

	for {
		d, err := docs.Next()
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		id, err := rd.ExternalID(d)
		if err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(i.repo, id)); os.IsNotExist(err) {
			i.removeEntry(id)
		}
	}
}

// update adds all images changed since the index was last written
func (i *Index) update() error {

	var lastMod time.Time
	if !i.empty {
		if store, err := os.Stat(filepath.Join(i.base, "store")); err == nil {
			lastMod = store.ModTime()
		}
	}
	i.empty = false

	return filepath.Walk(i.repo,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if i.stopped {
				return fmt.Errorf("index stopped")
			}
			if !info.IsDir() && IsImage(path) && info.ModTime().After(lastMod) {
				i.addEntry(i.relative(path))
			}
			return nil
		})
}

//
func (i *Index) watchEvent(evt fsnotify.Event) error {

	rel := i.relative(evt.Name)

	switch {
	case evt.Op&fsnotify.Create != 0:
		info, err := os.Stat(evt.Name)
		if err != nil {
			return fmt.Errorf("cannot add new entry: %v", err)
		}
		if !info.IsDir() && IsImage(rel) {
			return i.addEntry(rel)
		}

	case evt.Op&(fsnotify.Rename|fsnotify.Remove) != 0:
		return i.removeEntry(rel)
	}

	return nil
}

//
func (i *Index) flushEvent() error {
	return i.batched(true)
}

//
func (i *Index) addEntry(path string) error {
	log.WithField("image", path).Debug("adding image to index")
	if err := i.batch.Index(path, newEntry(path)); err != nil {
		return fmt.Errorf("failed to batch index entry: %v", err)
	}
	return i.batched(false)
}

//
func (i *Index) removeEntry(path string) error {
	log.WithField("image", path).Debug("removing image from index")
	i.batch.Delete(path)
	return i.batched(false)
}

// batched counts a batch action, and writes the batch when full or when
// flush is set. Only called from Start and the watcher routine, which do not
// overlap.
func (i *Index) batched(flush bool) error {
	if i.batchCount++; flush || i.batchCount > maxBatch {
		if err := i.index.Batch(i.batch); err != nil {
			return fmt.Errorf("failed to write index batch: %v", err)
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}
	return nil
}

//
type SearchResult struct {
	Hits     []string `json:"hits"`
	Total    uint64   `json:"total"`
	Complete bool     `json:"complete"`
}

// Search looks for images matching term, a bleve query string. At most max
// hits are returned, Complete tells whether there were more.
func (i *Index) Search(term string, max int) (*SearchResult, error) {

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("no search term")
	}
	if max < 1 {
		max = 1
	}

	log.WithField("term", term).Debug("searching")
	req := bleve.NewSearchRequestOptions(
		bleve.NewQueryStringQuery(term), max+1, 0, false)
	res, err := i.index.Search(req)
	if err != nil {
		return nil, err
	}

	ret := &SearchResult{
		Hits:     make([]string, len(res.Hits)),
		Total:    res.Total,
		Complete: true,
	}
	for ix, h := range res.Hits {
		ret.Hits[ix] = h.ID
	}
	if len(ret.Hits) > max {
		ret.Hits = ret.Hits[:max]
		ret.Complete = false
	}

	return ret, nil
}

//
func (i *Index) relative(path string) string {
	if rel, err := filepath.Rel(i.repo, path); err == nil &&
		!strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
