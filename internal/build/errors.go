package build

import "errors"

// Sentinel errors for whole-build failures.
var (
	// ErrNoInputs indicates discovery found no fragment files.
	ErrNoInputs = errors.New("no YAML files found")
	// ErrNothingBuilt indicates every requested variant failed.
	ErrNothingBuilt = errors.New("no variant was built")
)

// ParseError records a fragment that could not be read or is not a mapping.
type ParseError struct {
	Path string
	Err  error
}

// Error returns a message naming the fragment.
func (e *ParseError) Error() string {
	return "parsing " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// VariantError records a variant that could not be derived or written.
type VariantError struct {
	Variant string
	Err     error
}

// Error returns a message naming the variant.
func (e *VariantError) Error() string {
	return "variant " + e.Variant + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *VariantError) Unwrap() error {
	return e.Err
}

// WriteError records a failure to create the output directory or write a file.
type WriteError struct {
	Path string
	Err  error
}

// Error returns a message naming the output path.
func (e *WriteError) Error() string {
	return "writing " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *WriteError) Unwrap() error {
	return e.Err
}
