package build

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/discover"
	"github.com/papapumpkin/ompbuild/internal/telemetry"
)

// Options controls what a Builder reads and writes. Zero values fall back to
// the defaults noted on each field.
type Options struct {
	ConfigDir        string   // Fragment root; default "config"
	VariantsDir      string   // Variant definitions; default "build"
	OutputDir        string   // Output directory; default "dist"
	FallbackFilename string   // Output name when no catalog loads; default "config.yml"
	Variant          string   // Build only this variant; empty builds all
	Patterns         []string // Fragment base-name globs; default *.yml, *.yaml
	Ignore           []string // Directory names skipped during discovery
	Concurrency      int      // Parallel parses; 0 means GOMAXPROCS
	DefaultVariant   string   // Designated default; default "full"
	FallbackVariant  string   // Designated fallback; default "minimal"
	DisableFallback  bool     // Treat a missing catalog as fatal
}

// Default option values.
const (
	DefaultConfigDir        = "config"
	DefaultVariantsDir      = "build"
	DefaultOutputDir        = "dist"
	DefaultFallbackFilename = "config.yml"
)

func (o Options) withDefaults() Options {
	if o.ConfigDir == "" {
		o.ConfigDir = DefaultConfigDir
	}
	if o.VariantsDir == "" {
		o.VariantsDir = DefaultVariantsDir
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.FallbackFilename == "" {
		o.FallbackFilename = DefaultFallbackFilename
	}
	if len(o.Patterns) == 0 {
		o.Patterns = discover.DefaultPatterns
	}
	if o.Concurrency < 0 {
		o.Concurrency = 0
	}
	if o.DefaultVariant == "" {
		o.DefaultVariant = catalog.DefaultVariant
	}
	if o.FallbackVariant == "" {
		o.FallbackVariant = catalog.FallbackVariant
	}
	return o
}

// Option configures a Builder.
type Option func(*Builder)

// WithFS sets the filesystem. Defaults to the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(b *Builder) { b.fs = fs }
}

// WithLogger sets the diagnostic logger. Defaults to a null logger.
func WithLogger(l hclog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithReporter sets the progress sink. Nil disables progress reports.
func WithReporter(r Reporter) Option {
	return func(b *Builder) { b.reporter = r }
}

// WithTelemetry sets the event emitter. A nil emitter records nothing.
func WithTelemetry(e *telemetry.Emitter) Option {
	return func(b *Builder) { b.emitter = e }
}
