package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel errors for catalog loading and lookup.
var (
	// ErrNoVariants indicates the variants directory held no usable definition.
	ErrNoVariants = errors.New("no build variants found")
	// ErrUnknownVariant indicates a lookup for a name the catalog does not hold.
	ErrUnknownVariant = errors.New("unknown variant")
)

// LoadError reports that a catalog could not be loaded from Dir.
type LoadError struct {
	Dir string
	Err error
}

// Error returns a message naming the variants directory.
func (e *LoadError) Error() string {
	return "loading variants from " + e.Dir + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a lookup of a variant name absent from the catalog.
type NotFoundError struct {
	Name      string
	Available []string
}

// Error returns a message naming the variant and the available choices.
func (e *NotFoundError) Error() string {
	msg := ErrUnknownVariant.Error() + " " + strconv.Quote(e.Name)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// Unwrap returns ErrUnknownVariant.
func (e *NotFoundError) Unwrap() error {
	return ErrUnknownVariant
}
