// Package watcher follows a sink file and emits records as they are appended.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/data/parser"
	"github.com/penwyp/go-state-sight/internal/data/sink"
	"github.com/penwyp/go-state-sight/internal/util"
)

// Follower re-reads a sink file whenever it changes and emits the records it
// has not emitted yet. A truncated or replaced file is read from the start.
type Follower struct {
	path    string
	format  sink.Format
	watcher *fsnotify.Watcher
	records chan model.ChangeRecord
	errors  chan error

	seen int
	info *util.FileInfo
}

// NewFollower watches the directory holding path, so the file may be created
// or replaced after the follower starts.
func NewFollower(path string, format sink.Format) (*Follower, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Follower{
		path:    abs,
		format:  format,
		watcher: watcher,
		records: make(chan model.ChangeRecord, 100),
		errors:  make(chan error, 1),
	}, nil
}

// Records returns the channel of newly appended records. It is closed when Run
// returns.
func (f *Follower) Records() <-chan model.ChangeRecord {
	return f.records
}

// Errors returns watcher failures. It is closed when Run returns.
func (f *Follower) Errors() <-chan error {
	return f.errors
}

// Run emits the records already in the file, then follows it until ctx is
// cancelled or the watcher stops.
func (f *Follower) Run(ctx context.Context) {
	defer close(f.errors)
	defer close(f.records)
	defer f.watcher.Close()

	if !f.reload(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				util.LogDebug("followed sink removed", util.F("path", f.path))
				f.seen = 0
				f.info = nil
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if !f.reload(ctx) {
					return
				}
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("sink watch error", util.F("path", f.path), util.F("error", err.Error()))
			select {
			case f.errors <- err:
			default:
			}
		}
	}
}

// reload parses the file and emits unseen records. It returns false when ctx
// was cancelled while emitting.
func (f *Follower) reload(ctx context.Context) bool {
	info, err := util.GetFileInfo(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			util.LogDebug("stat followed sink failed", util.F("path", f.path), util.F("error", err.Error()))
		}
		return true
	}
	if f.info.Replaced(info) {
		util.LogDebug("followed sink truncated or replaced", util.F("path", f.path))
		f.seen = 0
	}
	f.info = info

	records, err := parser.ParseFile(f.path, f.format)
	if err != nil {
		// A json sink is briefly invalid while its closing bracket is
		// rewritten; the next write event reads it again.
		util.LogDebug("parse followed sink failed", util.F("path", f.path), util.F("error", err.Error()))
		return true
	}
	if len(records) < f.seen {
		f.seen = 0
	}

	for _, r := range records[f.seen:] {
		select {
		case f.records <- r:
			f.seen++
		case <-ctx.Done():
			return false
		}
	}
	return true
}
