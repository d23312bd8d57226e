package build

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/papapumpkin/ompbuild/internal/document"
)

// writeDocument serializes doc into dir/filename, creating dir if needed.
func writeDocument(fs afero.Fs, dir, filename string, doc *document.Document) (Output, error) {
	path := filepath.Join(dir, filename)
	data, err := document.Encode(doc)
	if err != nil {
		return Output{}, fmt.Errorf("serializing: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Output{}, &WriteError{Path: path, Err: err}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return Output{}, &WriteError{Path: path, Err: err}
	}
	return Output{
		Path:  path,
		Bytes: len(data),
		Stats: document.StatsOf(doc),
	}, nil
}
