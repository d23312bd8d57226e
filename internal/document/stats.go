package document

// Well-known top-level keys with special merge or filter semantics.
const (
	KeyBlocks          = "blocks"
	KeyTooltips        = "tooltips"
	KeyPalette         = "palette"
	KeyTransientPrompt = "transient_prompt"
	KeySegments        = "segments"
)

// Stats summarizes a configuration document.
type Stats struct {
	TotalKeys     int `json:"total_keys"`
	Tooltips      int `json:"tooltips"`
	Blocks        int `json:"blocks"`
	PaletteColors int `json:"palette_colors"`
	Segments      int `json:"segments"`
}

// StatsOf computes summary statistics for d. Values of unexpected shape
// contribute zero.
func StatsOf(d *Document) Stats {
	s := Stats{TotalKeys: d.Len()}
	if tips, ok := d.Sequence(KeyTooltips); ok {
		s.Tooltips = len(tips)
	}
	if blocks, ok := d.Sequence(KeyBlocks); ok {
		s.Blocks = len(blocks)
		s.Segments = CountSegments(blocks)
	}
	if v, ok := d.Get(KeyPalette); ok {
		if p, ok := AsDocument(v); ok {
			s.PaletteColors = p.Len()
		}
	}
	return s
}

// CountSegments returns the total number of segments across blocks.
func CountSegments(blocks []any) int {
	total := 0
	for _, b := range blocks {
		block, ok := AsDocument(b)
		if !ok {
			continue
		}
		if segs, ok := block.Sequence(KeySegments); ok {
			total += len(segs)
		}
	}
	return total
}
