package document

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Sentinel errors returned by Parse.
var (
	// ErrEmpty indicates the input contained no YAML document.
	ErrEmpty = errors.New("document is empty")
	// ErrNotMapping indicates the YAML root is not a mapping.
	ErrNotMapping = errors.New("document root is not a mapping")
)

// indent is the number of spaces used per nesting level in encoded output.
const indent = 2

// mergeTag is the resolved tag of a YAML "<<" merge key.
const mergeTag = "!!merge"

// Parse decodes YAML text into a Document, preserving mapping key order.
// Aliases and merge keys are resolved. The root must be a mapping.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, ErrEmpty
	}
	node := resolve(root.Content[0])
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, ErrEmpty
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w (found %s)", ErrNotMapping, kindName(node.Kind))
	}
	v, err := fromNode(node)
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Encode serializes a Document as YAML with two-space indentation.
// Long lines are not wrapped and strings are written unquoted unless quoting
// is needed for the value to read back as the same string.
func Encode(d *Document) ([]byte, error) {
	if d == nil {
		d = New()
	}
	node, err := d.MarshalYAML()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler, emitting keys in document order.
func (d *Document) MarshalYAML() (any, error) {
	return toNode(d)
}

// UnmarshalYAML implements yaml.Unmarshaler. The node must be a mapping.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	node := resolve(value)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w (found %s)", ErrNotMapping, kindName(node.Kind))
	}
	v, err := fromNode(node)
	if err != nil {
		return err
	}
	*d = *v.(*Document)
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return resolve(n.Content[0])
	}
	return n
}

func fromNode(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		return mappingFromNode(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: decoding scalar: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node %s", n.Line, kindName(n.Kind))
	}
}

func mappingFromNode(n *yaml.Node) (*Document, error) {
	doc := New()
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Tag == mergeTag {
			if err := mergeInto(doc, valueNode); err != nil {
				return nil, err
			}
			continue
		}
		var key string
		if err := resolve(keyNode).Decode(&key); err != nil {
			return nil, fmt.Errorf("line %d: mapping key is not a string: %w", keyNode.Line, err)
		}
		v, err := fromNode(valueNode)
		if err != nil {
			return nil, err
		}
		doc.Set(key, v)
	}
	return doc, nil
}

// mergeInto applies a "<<" merge value. Keys already set explicitly win.
func mergeInto(doc *Document, value *yaml.Node) error {
	value = resolve(value)
	sources := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		sources = value.Content
	}
	for _, src := range sources {
		v, err := fromNode(src)
		if err != nil {
			return err
		}
		m, ok := v.(*Document)
		if !ok {
			return fmt.Errorf("line %d: merge value is not a mapping", src.Line)
		}
		m.Range(func(k string, mv any) bool {
			if !doc.Has(k) {
				doc.Set(k, mv)
			}
			return true
		})
	}
	return nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *Document:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if t == nil {
			return n, nil
		}
		for _, k := range t.keys {
			kn, err := scalarNode(k)
			if err != nil {
				return nil, err
			}
			vn, err := toNode(t.values[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			n.Content = append(n.Content, kn, vn)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range t {
			in, err := toNode(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			n.Content = append(n.Content, in)
		}
		return n, nil
	case float64:
		return floatNode(t), nil
	default:
		return scalarNode(v)
	}
}

// floatNode keeps whole-number floats readable as floats, so 1.0 is not
// written as the integer 1.
func floatNode(f float64) *yaml.Node {
	var s string
	switch {
	case math.IsNaN(f):
		s = ".nan"
	case math.IsInf(f, 1):
		s = ".inf"
	case math.IsInf(f, -1):
		s = "-.inf"
	default:
		s = strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}

// scalarNode lets the YAML encoder pick the scalar style, which keeps plain
// style unless the value would otherwise resolve to a different type.
func scalarNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding scalar %v: %w", v, err)
	}
	return &n, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty"
	}
}
