// Package merge combines configuration fragments into one canonical document.
//
// Values are deep-merged key by key in fragment order. Sequences are
// concatenated, mappings merge recursively, and any other combination lets
// the later value win. The top-level "blocks" key is not merged generically:
// prompt blocks from every fragment are consolidated into at most one block
// per role (first-line left, right, second-line left).
package merge

import "github.com/papapumpkin/ompbuild/internal/document"

// Block field names and values recognized during consolidation.
const (
	fieldType      = "type"
	fieldAlignment = "alignment"
	fieldNewline   = "newline"
	fieldOverflow  = "overflow"

	TypePrompt  = "prompt"
	TypeRPrompt = "rprompt"

	AlignLeft  = "left"
	AlignRight = "right"

	overflowHide = "hide"
)

// Merge folds docs left to right into a single document. Zero documents yield
// an empty document; a single document is returned as-is. Inputs are never
// modified and the result shares no mutable state with them.
func Merge(docs []*document.Document) *document.Document {
	switch len(docs) {
	case 0:
		return document.New()
	case 1:
		return docs[0]
	}

	out := document.New()
	for _, d := range docs {
		mergeTopLevel(out, d)
	}

	blocks := consolidate(docs)
	if len(blocks) == 0 {
		out.Delete(document.KeyBlocks)
	} else {
		out.Set(document.KeyBlocks, blocks)
	}
	return out
}

// mergeTopLevel merges src into dst. The blocks key only reserves its
// position here; its value is filled in by consolidate.
func mergeTopLevel(dst, src *document.Document) {
	src.Range(func(key string, v any) bool {
		if key == document.KeyBlocks {
			if !dst.Has(key) {
				dst.Set(key, nil)
			}
			return true
		}
		if key == document.KeyTooltips {
			dst.Set(key, concatTooltips(dst, v))
			return true
		}
		dst.Set(key, mergeValue(dst, key, v))
		return true
	})
}

// concatTooltips appends v to any tooltips already collected. A non-sequence
// value replaces what came before, as for any other key.
func concatTooltips(dst *document.Document, v any) any {
	prev, _ := dst.Sequence(document.KeyTooltips)
	next, ok := document.AsSequence(v)
	if !ok || prev == nil {
		return document.CloneValue(v)
	}
	return appendClones(prev, next)
}

func mergeValue(dst *document.Document, key string, v any) any {
	prev, ok := dst.Get(key)
	if !ok {
		return document.CloneValue(v)
	}
	return Value(prev, v)
}

// Value merges src over target and returns the result. target is assumed to
// be owned by the caller and may be reused; src is cloned.
func Value(target, src any) any {
	if ts, ok := document.AsSequence(target); ok {
		if ss, ok := document.AsSequence(src); ok {
			return appendClones(ts, ss)
		}
		return document.CloneValue(src)
	}
	if td, ok := document.AsDocument(target); ok {
		if sd, ok := document.AsDocument(src); ok {
			sd.Range(func(k string, sv any) bool {
				td.Set(k, mergeValue(td, k, sv))
				return true
			})
			return td
		}
	}
	return document.CloneValue(src)
}

// appendClones appends deep copies of src to dst.
func appendClones(dst, src []any) []any {
	if dst == nil {
		dst = make([]any, 0, len(src))
	}
	for _, v := range src {
		dst = append(dst, document.CloneValue(v))
	}
	return dst
}

// role is the consolidated position a block contributes its segments to.
type role int

const (
	roleOther role = iota
	roleFirstLine
	roleRight
	roleSecondLine
)

// classify assigns a block to a consolidation role. Blocks without a
// segments sequence are never consolidated.
func classify(block *document.Document) role {
	if _, ok := block.Sequence(document.KeySegments); !ok {
		return roleOther
	}
	typ, align := block.String(fieldType), block.String(fieldAlignment)
	switch {
	case typ == TypePrompt && align == AlignLeft && IsNewline(block):
		return roleSecondLine
	case typ == TypePrompt && align == AlignLeft:
		return roleFirstLine
	case (typ == TypeRPrompt || typ == TypePrompt) && align == AlignRight:
		return roleRight
	default:
		return roleOther
	}
}

// IsNewline reports whether a block is marked as starting a new line. Only
// the boolean true counts.
func IsNewline(block *document.Document) bool {
	v, _ := block.Get(fieldNewline)
	b, ok := v.(bool)
	return ok && b
}

// consolidate gathers the blocks of every document into the consolidated
// first-line left, right and second-line left blocks, in that order, followed
// by any blocks that fit none of those roles in encounter order.
func consolidate(docs []*document.Document) []any {
	var first, right, second, other []any
	for _, d := range docs {
		blocks, ok := d.Sequence(document.KeyBlocks)
		if !ok {
			continue
		}
		for _, b := range blocks {
			block, ok := document.AsDocument(b)
			if !ok {
				other = append(other, document.CloneValue(b))
				continue
			}
			segs, _ := block.Sequence(document.KeySegments)
			switch classify(block) {
			case roleFirstLine:
				first = appendClones(first, segs)
			case roleRight:
				right = appendClones(right, segs)
			case roleSecondLine:
				second = appendClones(second, segs)
			default:
				other = append(other, block.Clone())
			}
		}
	}

	var out []any
	if len(first) > 0 {
		b := document.New()
		b.Set(fieldType, TypePrompt)
		b.Set(fieldAlignment, AlignLeft)
		b.Set(document.KeySegments, first)
		out = append(out, b)
	}
	if len(right) > 0 {
		b := document.New()
		b.Set(fieldType, TypePrompt)
		b.Set(fieldAlignment, AlignRight)
		b.Set(fieldOverflow, overflowHide)
		b.Set(document.KeySegments, right)
		out = append(out, b)
	}
	if len(second) > 0 {
		b := document.New()
		b.Set(fieldType, TypePrompt)
		b.Set(fieldAlignment, AlignLeft)
		b.Set(fieldNewline, true)
		b.Set(document.KeySegments, second)
		out = append(out, b)
	}
	return append(out, other...)
}
