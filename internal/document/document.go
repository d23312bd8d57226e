// Package document provides the ordered configuration document shared by the
// merge, variant and build packages. A Document is a string-keyed mapping that
// remembers key insertion order, so serialized output is deterministic and
// matches the order in which keys were first seen across fragments.
package document

import "reflect"

// Document is an ordered mapping from string keys to structured values.
// Values are nil, bool, int, float64, string, []any, or *Document.
// The zero value is an empty document ready for use.
type Document struct {
	keys   []string
	values map[string]any
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Len returns the number of keys in the document. A nil document has length zero.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns a copy of the document's keys in order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Get returns the value stored at key and whether it was present.
func (d *Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Set stores v at key. A new key is appended after all existing keys;
// an existing key keeps its position.
func (d *Document) Set(key string, v any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Delete removes key from the document. Deleting a missing key is a no-op.
func (d *Document) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each key/value pair in order until fn returns false.
func (d *Document) Range(fn func(key string, v any) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of the document. Nested documents and sequences
// are copied; scalars are shared.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		keys:   make([]string, len(d.keys)),
		values: make(map[string]any, len(d.values)),
	}
	copy(out.keys, d.keys)
	for k, v := range d.values {
		out.values[k] = CloneValue(v)
	}
	return out
}

// Equal reports whether d and o hold the same keys in the same order with
// structurally equal values.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i, k := range d.keys {
		if o.keys[i] != k {
			return false
		}
		if !ValueEqual(d.values[k], o.values[k]) {
			return false
		}
	}
	return true
}

// CloneValue deep-copies a document value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Clone()
	case []any:
		if t == nil {
			return []any(nil)
		}
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// ValueEqual reports whether two document values are structurally equal.
// Sequence order matters; mapping key order matters.
func ValueEqual(a, b any) bool {
	switch x := a.(type) {
	case *Document:
		y, ok := b.(*Document)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// AsDocument returns v as a *Document when it is a mapping.
func AsDocument(v any) (*Document, bool) {
	d, ok := v.(*Document)
	return d, ok && d != nil
}

// AsSequence returns v as a sequence.
func AsSequence(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// String returns the string stored at key, or "" when absent or not a string.
func (d *Document) String(key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}

// Sequence returns the sequence stored at key.
func (d *Document) Sequence(key string) ([]any, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return AsSequence(v)
}
