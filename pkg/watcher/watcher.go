package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/kgview/pkg/logging"
)

// ChangeEvent represents a batch of input file changes
type ChangeEvent struct {
	Types     []ChangeType // Distinct roles of the changed files, in first-seen order
	Paths     []string
	Timestamp time.Time
}

// Has reports whether the event includes a change of type t
func (e ChangeEvent) Has(t ChangeType) bool {
	for _, et := range e.Types {
		if et == t {
			return true
		}
	}
	return false
}

// FileWatcher watches the pipeline input files for changes
type FileWatcher struct {
	watcher *fsnotify.Watcher
	inputs  Inputs
	events  chan ChangeEvent
	once    sync.Once
}

// NewFileWatcher creates a new file system watcher for the given inputs
func NewFileWatcher(inputs Inputs) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		inputs:  inputs,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching the directories of the input files
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := fw.inputs.Dirs()
	watched := 0
	for _, dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch directory", "path", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		fw.watcher.Close()
		return fmt.Errorf("no input directory could be watched")
	}

	logging.Info("watching input files", "directories", watched)

	go fw.processEvents(ctx)
	return nil
}

// processEvents forwards events on input files, one ChangeEvent per event
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer fw.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			t, ok := fw.inputs.Classify(event.Name)
			if !ok {
				continue
			}

			logging.Trace("input file event", "path", event.Name, "op", event.Op.String(), "input", t.String())
			select {
			case fw.events <- ChangeEvent{Types: []ChangeType{t}, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) shutdown() {
	fw.once.Do(func() {
		fw.watcher.Close()
		close(fw.events)
	})
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
