package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestDocument_SetKeepsFirstPosition(t *testing.T) {
	t.Parallel()

	d := New()
	d.Set("b", 1)
	d.Set("a", 2)
	d.Set("b", 3)

	if diff := cmp.Diff([]string{"b", "a"}, d.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := d.Get("b"); v != 3 {
		t.Errorf("Get(b) = %v, want 3", v)
	}
}

func TestDocument_Delete(t *testing.T) {
	t.Parallel()

	d := New()
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("c", 3)
	d.Delete("b")
	d.Delete("missing")

	if diff := cmp.Diff([]string{"a", "c"}, d.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if d.Has("b") {
		t.Error("b should be deleted")
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := mustParse(t, "palette:\n  red: '#f00'\nlist:\n  - 1\n  - 2\n")
	clone := orig.Clone()

	p, _ := clone.Get("palette")
	p.(*Document).Set("red", "#ff0000")
	l, _ := clone.Get("list")
	l.([]any)[0] = 99

	want := mustParse(t, "palette:\n  red: '#f00'\nlist:\n  - 1\n  - 2\n")
	if !orig.Equal(want) {
		t.Error("mutating the clone changed the original")
	}
}

func TestParse_PreservesKeyOrder(t *testing.T) {
	t.Parallel()

	d := mustParse(t, "zeta: 1\nalpha: 2\nmiddle:\n  y: true\n  x: false\n")

	if diff := cmp.Diff([]string{"zeta", "alpha", "middle"}, d.Keys()); diff != "" {
		t.Errorf("top-level keys (-want +got):\n%s", diff)
	}
	m, _ := d.Get("middle")
	if diff := cmp.Diff([]string{"y", "x"}, m.(*Document).Keys()); diff != "" {
		t.Errorf("nested keys (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "empty", src: "", want: ErrEmpty},
		{name: "comment only", src: "# nothing here\n", want: ErrEmpty},
		{name: "explicit null", src: "~\n", want: ErrEmpty},
		{name: "sequence root", src: "- a\n- b\n", want: ErrNotMapping},
		{name: "scalar root", src: "just a string\n", want: ErrNotMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("key: [unclosed\n"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if errors.Is(err, ErrNotMapping) || errors.Is(err, ErrEmpty) {
		t.Errorf("syntax error should not be classified as %v", err)
	}
}

func TestParse_ResolvesAliasesAndMergeKeys(t *testing.T) {
	t.Parallel()

	d := mustParse(t, `base: &base
  foreground: white
  background: black
segment:
  <<: *base
  background: blue
  type: path
`)
	seg, _ := d.Get("segment")
	got := seg.(*Document)

	if got.String("foreground") != "white" {
		t.Errorf("foreground = %q, want white", got.String("foreground"))
	}
	if got.String("background") != "blue" {
		t.Errorf("explicit key should win over merge: background = %q", got.String("background"))
	}
	if got.String("type") != "path" {
		t.Errorf("type = %q, want path", got.String("type"))
	}
}

func TestEncode_Format(t *testing.T) {
	t.Parallel()

	long := strings.TrimSpace(strings.Repeat("segment ", 30))
	d := New()
	d.Set("version", 3)
	d.Set("final_space", true)
	d.Set("template", long)
	d.Set("quoted_bool", "true")
	seg := New()
	seg.Set("type", "path")
	d.Set("segments", []any{seg})

	data, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "version: 3\nfinal_space: true\n") {
		t.Errorf("keys should be emitted in insertion order, got:\n%s", out)
	}
	if !strings.Contains(out, "template: "+long+"\n") {
		t.Errorf("long strings should be plain and unwrapped, got:\n%s", out)
	}
	if !strings.Contains(out, "quoted_bool: \"true\"") {
		t.Errorf("string that looks like a bool must be quoted, got:\n%s", out)
	}
	if !strings.Contains(out, "segments:\n  - type: path\n") {
		t.Errorf("expected two-space indentation, got:\n%s", out)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	src := `version: 3
palette:
  blue: '#0000ff'
  red: '#ff0000'
blocks:
  - type: prompt
    alignment: left
    segments:
      - type: path
        template: ' {{ .Path }} '
        properties:
          style: full
      - type: git
tooltips:
  - type: aws
    tips: [aws, terraform]
transient_prompt:
  template: '> '
empty_list: []
nothing: null
ratio: 1.5
`
	first := mustParse(t, src)
	data, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()): %v\n%s", err, data)
	}
	if !first.Equal(second) {
		t.Errorf("round trip changed the document:\n%s", data)
	}
}

func TestEncode_WholeFloatsStayFloats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{src: "ratio: 1.0\n", want: "ratio: 1.0\n"},
		{src: "big: 1e3\n", want: "big: 1000.0\n"},
		{src: "huge: 1e21\n", want: "huge: 1e+21\n"},
		{src: "neg: -2.0\n", want: "neg: -2.0\n"},
		{src: "inf: .inf\n", want: "inf: .inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			first := mustParse(t, tt.src)
			data, err := Encode(first)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode = %q, want %q", data, tt.want)
			}
			second := mustParse(t, string(data))
			if !first.Equal(second) {
				t.Errorf("round trip changed the document: %q", data)
			}
		})
	}
}

func TestStatsOf(t *testing.T) {
	t.Parallel()

	d := mustParse(t, `palette:
  a: '#000'
  b: '#fff'
blocks:
  - type: prompt
    segments: [{type: path}, {type: git}]
  - type: rprompt
    segments: [{type: time}]
  - not-a-block
tooltips:
  - type: aws
`)
	got := StatsOf(d)
	want := Stats{TotalKeys: 3, Tooltips: 1, Blocks: 3, PaletteColors: 2, Segments: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StatsOf (-want +got):\n%s", diff)
	}
}

// genValue draws a YAML-representable document value of bounded depth.
func genValue(t *rapid.T, depth int, label string) any {
	kinds := []string{"string", "int", "float", "bool", "null"}
	if depth > 0 {
		kinds = append(kinds, "seq", "map")
	}
	switch rapid.SampledFrom(kinds).Draw(t, label+"-kind") {
	case "string":
		return rapid.StringMatching(`[a-zA-Z0-9 #:{}.'-]{0,12}`).Draw(t, label+"-str")
	case "int":
		return rapid.IntRange(-1000, 1000).Draw(t, label+"-int")
	case "float":
		if rapid.Bool().Draw(t, label+"-whole") {
			return float64(rapid.IntRange(-1000, 1000).Draw(t, label+"-wholefloat"))
		}
		return rapid.Float64Range(-1e9, 1e9).Draw(t, label+"-float")
	case "bool":
		return rapid.Bool().Draw(t, label+"-bool")
	case "seq":
		n := rapid.IntRange(0, 3).Draw(t, label+"-len")
		out := make([]any, n)
		for i := range out {
			out[i] = genValue(t, depth-1, label+"-item")
		}
		return out
	case "map":
		return genDocument(t, depth-1, label+"-map")
	default:
		return nil
	}
}

func genDocument(t *rapid.T, depth int, label string) *Document {
	d := New()
	keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,8}`), 0, 4, rapid.ID[string]).Draw(t, label+"-keys")
	for _, k := range keys {
		d.Set(k, genValue(t, depth, label+"-"+k))
	}
	return d
}

func TestEncode_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := genDocument(t, 3, "root")
		if d.Len() == 0 {
			d.Set("version", 3)
		}
		data, err := Encode(d)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		back, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse: %v\n%s", err, data)
		}
		if !d.Equal(back) {
			t.Fatalf("round trip mismatch:\n%s", data)
		}
	})
}
