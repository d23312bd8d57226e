// Package watch reports changes to fragment and variant files so a build can
// be rerun when its inputs change.
package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op describes the type of file change detected.
type Op int

const (
	OpModified Op = iota // File contents changed
	OpRemoved            // File deleted or renamed away
	OpAdded              // New file appeared
)

// String returns a lowercase name for the operation.
func (o Op) String() string {
	switch o {
	case OpRemoved:
		return "removed"
	case OpAdded:
		return "added"
	default:
		return "modified"
	}
}

// Change represents a detected change to a watched file.
type Change struct {
	Path string
	Op   Op
}

// debounce is how long a file must be quiet before its change is emitted.
const debounce = 100 * time.Millisecond

// ErrNoDirs indicates none of the directories to watch exist.
var ErrNoDirs = errors.New("no watchable directories")

// Watcher monitors directory trees for changes to files whose base name
// matches one of Patterns, using fsnotify.
type Watcher struct {
	Dirs     []string
	Patterns []string
	Ignore   []string      // Directory names not descended into
	Changes  <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
	ignored map[string]bool
}

// New creates a watcher over dirs and every directory below them.
func New(dirs, patterns, ignore []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Dirs:     dirs,
		Patterns: patterns,
		Ignore:   ignore,
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		ignored:  make(map[string]bool, len(ignore)),
	}
	for _, name := range ignore {
		w.ignored[name] = true
	}
	return w, nil
}

// Start begins watching. Directories that do not exist are skipped; if none
// exist, Start returns ErrNoDirs. After a failed Start the watcher is closed
// and Stop must not be called.
func (w *Watcher) Start() error {
	added := 0
	for _, dir := range w.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.addTree(dir); err != nil {
			w.watcher.Close()
			return err
		}
		added++
	}
	if added == 0 {
		w.watcher.Close()
		return ErrNoDirs
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels. Changes not yet read are dropped.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

// addTree watches root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored[d.Name()] {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

type pendingChange struct {
	at time.Time
	op Op
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]pendingChange)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.ignored[info.Name()] {
						_ = w.addTree(event.Name)
					}
					continue
				}
			}
			if !w.matches(event.Name) {
				continue
			}

			op, ok := opFor(event)
			if !ok {
				continue
			}
			// A create followed by writes is still an addition.
			if prev, seen := pending[event.Name]; seen && prev.op == OpAdded && op == OpModified {
				op = OpAdded
			}
			pending[event.Name] = pendingChange{at: time.Now(), op: op}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, p := range pending {
				if now.Sub(p.at) >= debounce {
					if !w.send(Change{Path: file, Op: p.op}) {
						return
					}
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}

// send delivers c unless the watcher is stopping first.
func (w *Watcher) send(c Change) bool {
	select {
	case w.changes <- c:
		return true
	case <-w.stop:
		return false
	}
}

func opFor(event fsnotify.Event) (Op, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpAdded, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return OpRemoved, true
	case event.Has(fsnotify.Write):
		return OpModified, true
	}
	return 0, false
}

func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	for _, p := range w.Patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
