package build

import "github.com/papapumpkin/ompbuild/internal/document"

// Output describes one written file.
type Output struct {
	Variant string         `json:"variant"`
	Path    string         `json:"path"`
	Bytes   int            `json:"bytes"`
	Stats   document.Stats `json:"stats"`
}

// Result is the outcome of a build run.
type Result struct {
	BuildID       string   `json:"build_id"`
	Success       bool     `json:"success"`
	Fallback      bool     `json:"fallback,omitempty"`
	FilesFound    int      `json:"files_found"`
	FilesParsed   int      `json:"files_parsed"`
	VariantsBuilt int      `json:"variants_built"`
	TotalSegments int      `json:"total_segments"`
	TotalTooltips int      `json:"total_tooltips"`
	Outputs       []Output `json:"outputs,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`

	// Err is the error that aborted the build, or nil.
	Err error `json:"-"`
}

// Partial reports whether the build succeeded with recorded errors.
func (r *Result) Partial() bool {
	return r.Success && len(r.Errors) > 0
}

func (r *Result) fail(err error) *Result {
	r.Success = false
	r.Err = err
	r.Errors = append(r.Errors, err.Error())
	return r
}

func (r *Result) recordError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
