package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhamidi/uniast/grammar"
)

// Event reports a change picked up by a Watcher. Document is nil when the
// file was removed.
type Event struct {
	Path     string
	Document *Document
}

func (e Event) Removed() bool {
	return e.Document == nil
}

// Watcher polls the workspace root and re-parses files whose modification
// time moved forward.
type Watcher struct {
	workspace *Workspace
	interval  time.Duration
	onChange  func(Event)
	modTimes  map[string]time.Time
}

func NewWatcher(w *Workspace, interval time.Duration, onChange func(Event)) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	if onChange == nil {
		onChange = func(Event) {}
	}
	return &Watcher{
		workspace: w,
		interval:  interval,
		onChange:  onChange,
		modTimes:  make(map[string]time.Time),
	}
}

// Run polls until ctx is done. The first poll happens immediately.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll walks the root once, updates changed files, drops deleted ones, and
// returns what changed. Events are also delivered to the callback.
func (w *Watcher) Poll(ctx context.Context) []Event {
	var events []Event
	current := make(map[string]bool)
	root := w.workspace.Root()

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := grammar.Detect(path); !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		current[path] = true
		lastMod, known := w.modTimes[path]
		if known && !info.ModTime().After(lastMod) {
			return nil
		}
		w.modTimes[path] = info.ModTime()

		doc, err := w.workspace.ScanFile(ctx, path)
		if err != nil {
			log.Warningf("%s", err)
			return nil
		}
		events = append(events, Event{Path: path, Document: doc})
		return nil
	})

	for path := range w.modTimes {
		if !current[path] {
			delete(w.modTimes, path)
			w.workspace.RemoveFile(path)
			events = append(events, Event{Path: path})
		}
	}

	for _, e := range events {
		w.onChange(e)
	}
	return events
}
