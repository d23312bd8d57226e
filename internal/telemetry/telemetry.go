// Package telemetry provides a JSONL event stream for recording build runs.
// Every discovery, parse, merge and variant write is recorded as a structured
// JSON event, so a sequence of builds can be audited or analyzed afterwards.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Event kinds identify the type of telemetry event.
const (
	KindBuildStart      = "build_start"
	KindFilesDiscovered = "files_discovered"
	KindFileParsed      = "file_parsed"
	KindFileSkipped     = "file_skipped"
	KindMergeDone       = "merge_done"
	KindVariantBuilt    = "variant_built"
	KindVariantFailed   = "variant_failed"
	KindBuildDone       = "build_done"
)

// Event represents a single telemetry record. Each event carries a timestamp,
// a kind tag, the ID of the build run it belongs to, and optional context
// identifiers (variant, file) along with arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Build     string    `json:"build,omitempty"`
	Variant   string    `json:"variant,omitempty"`
	File      string    `json:"file,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file afero.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path on fs. The file is created if it does not exist, or appended to if it does.
func NewEmitter(fs afero.Fs, path string) (*Emitter, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event to the JSONL file. A zero Timestamp is filled
// in with the current time. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
