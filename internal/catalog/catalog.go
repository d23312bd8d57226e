// Package catalog loads the set of build variants from a directory of
// variant definition files. Each file's base name is the variant name and
// its content is the variant's specification, in YAML or TOML.
package catalog

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/papapumpkin/ompbuild/internal/document"
	"github.com/papapumpkin/ompbuild/internal/variant"
)

// Default designated variant names.
const (
	DefaultVariant  = "full"
	FallbackVariant = "minimal"
)

// Options configures Load.
type Options struct {
	DefaultVariant  string       // Empty means DefaultVariant
	FallbackVariant string       // Empty means FallbackVariant
	Logger          hclog.Logger // Nil means no logging
}

// Skip records a definition file that was ignored during loading.
type Skip struct {
	File string
	Err  error
}

// Catalog is a read-only set of named variant specifications.
type Catalog struct {
	Dir     string
	Skipped []Skip

	names    []string
	specs    map[string]variant.Spec
	def      string
	fallback string
}

// Load reads every .yml, .yaml and .toml file directly inside dir. Files that
// cannot be decoded are skipped and recorded in Catalog.Skipped. A directory
// that is missing or yields no usable file returns a *LoadError.
func Load(fs afero.Fs, dir string, opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}

	c := &Catalog{
		Dir:      dir,
		specs:    make(map[string]variant.Spec),
		def:      orDefault(opts.DefaultVariant, DefaultVariant),
		fallback: orDefault(opts.FallbackVariant, FallbackVariant),
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !isDefinitionExt(ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		spec, err := readSpec(fs, path, ext)
		if err != nil {
			logger.Warn("skipping variant definition", "file", path, "error", err)
			c.Skipped = append(c.Skipped, Skip{File: path, Err: err})
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if _, dup := c.specs[name]; !dup {
			c.names = append(c.names, name)
		} else {
			logger.Debug("variant redefined", "name", name, "file", path)
		}
		c.specs[name] = spec
	}

	if len(c.names) == 0 {
		return nil, &LoadError{Dir: dir, Err: ErrNoVariants}
	}
	logger.Debug("loaded variant catalog", "dir", dir, "variants", len(c.names), "skipped", len(c.Skipped))
	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Patterns matches the base names of variant definition files.
var Patterns = []string{"*.yml", "*.yaml", "*.toml"}

func isDefinitionExt(ext string) bool {
	switch ext {
	case ".yml", ".yaml", ".toml":
		return true
	}
	return false
}

func readSpec(fs afero.Fs, path, ext string) (variant.Spec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return variant.Spec{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return variant.Spec{}, document.ErrEmpty
	}
	if ext == ".toml" {
		return decodeTOML(data)
	}
	return decodeYAML(data)
}

func decodeYAML(data []byte) (variant.Spec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return variant.Spec{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return variant.Spec{}, document.ErrEmpty
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return variant.Spec{}, document.ErrNotMapping
	}
	var spec variant.Spec
	if err := root.Content[0].Decode(&spec); err != nil {
		return variant.Spec{}, fmt.Errorf("decoding variant: %w", err)
	}
	return spec, nil
}

func decodeTOML(data []byte) (variant.Spec, error) {
	var spec variant.Spec
	if err := toml.Unmarshal(data, &spec); err != nil {
		return variant.Spec{}, fmt.Errorf("parsing TOML: %w", err)
	}
	return spec, nil
}

// Names returns the variant names in load order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Lookup returns the specification for name, or a *NotFoundError.
func (c *Catalog) Lookup(name string) (variant.Spec, error) {
	spec, ok := c.specs[name]
	if !ok {
		return variant.Spec{}, &NotFoundError{Name: name, Available: c.Names()}
	}
	return spec, nil
}

// Has reports whether the catalog defines name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.specs[name]
	return ok
}

// Default returns the designated default variant name. It need not exist.
func (c *Catalog) Default() string {
	return c.def
}

// Fallback returns the designated fallback variant name. It need not exist.
func (c *Catalog) Fallback() string {
	return c.fallback
}

// IsDefault reports whether name is the designated default variant.
func (c *Catalog) IsDefault(name string) bool {
	return name == c.def
}

// IsFallback reports whether name is the designated fallback variant.
func (c *Catalog) IsFallback(name string) bool {
	return name == c.fallback
}

// Suggestions returns up to n variant names, in load order.
func (c *Catalog) Suggestions(n int) []string {
	if n > len(c.names) {
		n = len(c.names)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	copy(out, c.names[:n])
	return out
}

// OutputFilename returns the output file name for a variant. A spec without
// a filename writes to "<name>.yml".
func OutputFilename(name string, spec variant.Spec) string {
	if spec.Filename != "" {
		return spec.Filename
	}
	return name + ".yml"
}
