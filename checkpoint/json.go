// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package checkpoint

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/background"
	"github.com/misterr-labs/Equilibria/fault"
)

// hashLine - one record of the checkpoint JSON file
type hashLine struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// hashFile - layout of the checkpoint JSON file
type hashFile struct {
	HashLines []hashLine `json:"hashlines"`
}

// LoadFile - merge checkpoints from a JSON file
//
// a missing file is not an error; records at or below the current
// maximum height are ignored so a file can only extend the table;
// records whose hash does not decode are skipped, but a record that
// conflicts with an already stored hash aborts the load
func (store *Store) LoadFile(fileName string, log *logger.L) error {

	data, err := ioutil.ReadFile(fileName)
	if os.IsNotExist(err) {
		log.Infof("checkpoint file not present: %q", fileName)
		return nil
	}
	if nil != err {
		return err
	}

	var file hashFile
	if err := json.Unmarshal(data, &file); nil != err {
		return err
	}

	previousMax := store.MaxHeight()

	for _, line := range file.HashLines {
		if line.Height <= previousMax {
			log.Debugf("ignoring checkpoint height: %d", line.Height)
			continue
		}
		if err := store.AddHex(line.Height, line.Hash); nil != err {
			if fault.ErrCheckpointMismatch == err {
				return err
			}
			log.Warnf("skipping checkpoint height: %d  error: %s", line.Height, err)
			continue
		}
		log.Infof("added checkpoint height: %d  hash: %s", line.Height, line.Hash)
	}

	return nil
}

// watcher - reload the checkpoint file whenever it is rewritten
//
// the containing directory is watched rather than the file itself so
// that a file created after startup, or replaced by rename, is still
// picked up
type watcher struct {
	log      *logger.L
	store    *Store
	fileName string
	events   *fsnotify.Watcher
}

// NewWatcher - create a background process watching a checkpoint
// file
func (store *Store) NewWatcher(fileName string, log *logger.L) (background.Process, error) {

	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	events, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	if err := events.Add(filepath.Dir(filePath)); nil != err {
		events.Close()
		return nil, err
	}

	return &watcher{
		log:      log,
		store:    store,
		fileName: filePath,
		events:   events,
	}, nil
}

// Run - watch loop
func (w *watcher) Run(args interface{}, shutdown <-chan struct{}) {

	log := w.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.events.Events:
			if !ok {
				break loop
			}
			log.Debugf("file event: %v", event)

			if path.Base(event.Name) != path.Base(w.fileName) {
				continue loop
			}
			if !watcherEventFileChange(event) {
				continue loop
			}

			log.Infof("reloading checkpoint file: %q", w.fileName)
			if err := w.store.LoadFile(w.fileName, log); nil != err {
				log.Errorf("reload error: %s", err)
			}

		case err, ok := <-w.events.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watch error: %s", err)
		}
	}

	w.events.Close()
	log.Info("stopped")
}

func watcherEventFileChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}
