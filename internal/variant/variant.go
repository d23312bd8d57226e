// Package variant derives filtered output documents from the canonical
// configuration according to a variant specification.
package variant

import (
	"github.com/papapumpkin/ompbuild/internal/document"
	"github.com/papapumpkin/ompbuild/internal/merge"
)

// Spec describes one output variant.
type Spec struct {
	Description string  `yaml:"description" toml:"description" json:"description"`
	Filename    string  `yaml:"filename" toml:"filename" json:"filename"`
	Include     Include `yaml:"include" toml:"include" json:"include"`
	Exclude     Exclude `yaml:"exclude" toml:"exclude" json:"exclude"`
}

// Include holds the inclusion flags of a variant. A nil flag is unset.
// Unset flags include their section, except LeftPrompt, RightPrompt and
// Tooltips which must be explicitly true.
type Include struct {
	MainConfig  *bool `yaml:"main_config" toml:"main_config" json:"main_config,omitempty"`
	Palette     *bool `yaml:"palette" toml:"palette" json:"palette,omitempty"`
	Transient   *bool `yaml:"transient" toml:"transient" json:"transient,omitempty"`
	LeftPrompt  *bool `yaml:"left_prompt" toml:"left_prompt" json:"left_prompt,omitempty"`
	RightPrompt *bool `yaml:"right_prompt" toml:"right_prompt" json:"right_prompt,omitempty"`
	Tooltips    *bool `yaml:"tooltips" toml:"tooltips" json:"tooltips,omitempty"`
}

// Exclude lists what a variant removes from the blocks it keeps.
type Exclude struct {
	Segments      []string `yaml:"segments" toml:"segments" json:"segments,omitempty"`
	NewlineBlocks bool     `yaml:"newline_blocks" toml:"newline_blocks" json:"newline_blocks,omitempty"`
}

func isTrue(b *bool) bool  { return b != nil && *b }
func isFalse(b *bool) bool { return b != nil && !*b }

// Flag pairs an include flag name with its value, for listings.
type Flag struct {
	Name  string
	Value *bool
}

// Flags returns the include flags in declaration order.
func (in Include) Flags() []Flag {
	return []Flag{
		{Name: "main_config", Value: in.MainConfig},
		{Name: "palette", Value: in.Palette},
		{Name: "transient", Value: in.Transient},
		{Name: "left_prompt", Value: in.LeftPrompt},
		{Name: "right_prompt", Value: in.RightPrompt},
		{Name: "tooltips", Value: in.Tooltips},
	}
}

// Included returns the names of flags that are set and not false.
func (in Include) Included() []string {
	var out []string
	for _, f := range in.Flags() {
		if f.Value != nil && *f.Value {
			out = append(out, f.Name)
		}
	}
	return out
}

// Apply returns a new document holding the parts of canonical selected by
// spec. canonical is not modified.
func Apply(canonical *document.Document, spec Spec) *document.Document {
	out := document.New()
	canonical.Range(func(key string, v any) bool {
		switch key {
		case document.KeyBlocks:
			if !isTrue(spec.Include.LeftPrompt) && !isTrue(spec.Include.RightPrompt) {
				return true
			}
			if blocks, ok := document.AsSequence(v); ok {
				out.Set(key, filterBlocks(blocks, spec))
				return true
			}
		case document.KeyTooltips:
			if !isTrue(spec.Include.Tooltips) {
				return true
			}
		case document.KeyPalette:
			if isFalse(spec.Include.Palette) {
				return true
			}
		case document.KeyTransientPrompt:
			if isFalse(spec.Include.Transient) {
				return true
			}
		default:
			if isFalse(spec.Include.MainConfig) {
				return true
			}
		}
		out.Set(key, document.CloneValue(v))
		return true
	})
	return out
}

// filterBlocks drops blocks the variant does not include and removes
// excluded segment types from the rest. Non-mapping entries pass through.
func filterBlocks(blocks []any, spec Spec) []any {
	excluded := make(map[string]bool, len(spec.Exclude.Segments))
	for _, s := range spec.Exclude.Segments {
		excluded[s] = true
	}

	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		block, ok := document.AsDocument(b)
		if !ok {
			out = append(out, document.CloneValue(b))
			continue
		}
		switch block.String("type") {
		case merge.TypeRPrompt:
			if !isTrue(spec.Include.RightPrompt) {
				continue
			}
		case merge.TypePrompt:
			// Right-aligned prompt blocks are gated by left_prompt too.
			if !isTrue(spec.Include.LeftPrompt) {
				continue
			}
		}
		if spec.Exclude.NewlineBlocks && merge.IsNewline(block) {
			continue
		}

		kept := block.Clone()
		if len(excluded) > 0 {
			if segs, ok := kept.Sequence(document.KeySegments); ok {
				kept.Set(document.KeySegments, filterSegments(segs, excluded))
			}
		}
		out = append(out, kept)
	}
	return out
}

func filterSegments(segs []any, excluded map[string]bool) []any {
	out := make([]any, 0, len(segs))
	for _, s := range segs {
		seg, ok := document.AsDocument(s)
		if typ := seg.String("type"); ok && typ != "" && excluded[typ] {
			continue
		}
		out = append(out, s)
	}
	return out
}
