// Package build orchestrates a full configuration build: discover fragments,
// parse them concurrently, merge them into the canonical document, then
// derive and write each requested variant. Per-file and per-variant failures
// are recorded in the Result; only a build with no inputs, an unknown
// requested variant, or no usable catalog without fallback aborts.
package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"

	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/discover"
	"github.com/papapumpkin/ompbuild/internal/document"
	"github.com/papapumpkin/ompbuild/internal/merge"
	"github.com/papapumpkin/ompbuild/internal/telemetry"
	"github.com/papapumpkin/ompbuild/internal/variant"
)

// Builder runs builds with a fixed set of options and collaborators. A
// Builder runs one build at a time; Run and Render must not be called
// concurrently on the same Builder.
type Builder struct {
	opts     Options
	fs       afero.Fs
	logger   hclog.Logger
	reporter Reporter
	emitter  *telemetry.Emitter
	runID    string // Stamped on telemetry events of the current run
}

// New creates a Builder. Unset collaborators default to the OS filesystem, a
// null logger, no progress reporting and no telemetry.
func New(opts Options, options ...Option) *Builder {
	b := &Builder{opts: opts.withDefaults()}
	for _, o := range options {
		o(b)
	}
	if b.fs == nil {
		b.fs = afero.NewOsFs()
	}
	if b.logger == nil {
		b.logger = hclog.NewNullLogger()
	}
	if b.reporter == nil {
		b.reporter = nopReporter{}
	}
	return b
}

// Options returns the effective options, defaults applied.
func (b *Builder) Options() Options {
	return b.opts
}

// parsed is the outcome of parsing one fragment.
type parsed struct {
	path string
	doc  *document.Document
	err  error
}

// Run executes one build and returns its result. The returned Result is
// never nil; Result.Err is set when the build aborted.
func (b *Builder) Run(ctx context.Context) *Result {
	b.runID = uuid.NewString()
	res := &Result{BuildID: b.runID}
	b.emit(telemetry.Event{Kind: telemetry.KindBuildStart, Variant: b.opts.Variant})
	defer func() {
		b.emit(telemetry.Event{Kind: telemetry.KindBuildDone, Data: res})
	}()

	cat, err := b.loadCatalog(res)
	if err != nil {
		return res.fail(err)
	}

	canonical, err := b.canonical(ctx, res)
	if err != nil {
		return res.fail(err)
	}

	if cat == nil {
		return b.writeFallback(canonical, res)
	}
	return b.writeVariants(cat, canonical, res)
}

// Render returns the serialized document for one variant without writing
// anything. An empty name renders the canonical document.
func (b *Builder) Render(ctx context.Context, name string) ([]byte, error) {
	b.runID = uuid.NewString()
	res := &Result{BuildID: b.runID}
	var spec variant.Spec
	if name != "" {
		cat, err := catalog.Load(b.fs, b.opts.VariantsDir, b.catalogOptions())
		if err != nil {
			return nil, err
		}
		if spec, err = cat.Lookup(name); err != nil {
			return nil, err
		}
	}

	canonical, err := b.canonical(ctx, res)
	if err != nil {
		return nil, err
	}
	if name != "" {
		canonical = variant.Apply(canonical, spec)
	}
	return document.Encode(canonical)
}

func (b *Builder) catalogOptions() catalog.Options {
	return catalog.Options{
		DefaultVariant:  b.opts.DefaultVariant,
		FallbackVariant: b.opts.FallbackVariant,
		Logger:          b.logger.Named("catalog"),
	}
}

// loadCatalog returns the catalog, or nil when the build should fall back to
// a single unfiltered output.
func (b *Builder) loadCatalog(res *Result) (*catalog.Catalog, error) {
	cat, err := catalog.Load(b.fs, b.opts.VariantsDir, b.catalogOptions())
	if err != nil {
		if b.opts.Variant != "" || b.opts.DisableFallback {
			return nil, err
		}
		b.logger.Warn("no build catalog, writing fallback output", "error", err)
		res.warn(fmt.Sprintf("no build configuration found (%v), creating basic merge", err))
		b.report(StageCatalog, "No build configuration found, creating basic merge")
		return nil, nil
	}
	for _, s := range cat.Skipped {
		res.warn(fmt.Sprintf("skipped variant definition %s: %v", s.File, s.Err))
	}
	if b.opts.Variant != "" {
		if _, err := cat.Lookup(b.opts.Variant); err != nil {
			return nil, err
		}
	}
	b.report(StageCatalog, fmt.Sprintf("Loaded %d build variant(s)", cat.Len()))
	return cat, nil
}

// canonical discovers, parses and merges fragments.
func (b *Builder) canonical(ctx context.Context, res *Result) (*document.Document, error) {
	b.report(StageDiscover, "Scanning for YAML files...")
	files, err := discover.Finder{
		FS:       b.fs,
		Root:     b.opts.ConfigDir,
		Patterns: b.opts.Patterns,
		Ignore:   b.opts.Ignore,
	}.Find(ctx)
	if err != nil {
		return nil, err
	}
	res.FilesFound = len(files)
	b.emit(telemetry.Event{Kind: telemetry.KindFilesDiscovered, Data: map[string]int{"count": len(files)}})
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, b.opts.ConfigDir)
	}
	b.report(StageDiscover, fmt.Sprintf("Found %d YAML files", len(files)))

	results := iter.Mapper[string, parsed]{MaxGoroutines: b.opts.Concurrency}.Map(files, func(path *string) parsed {
		if err := ctx.Err(); err != nil {
			return parsed{path: *path, err: err}
		}
		return b.parse(*path)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(results))
	for _, p := range results {
		switch {
		case p.err == nil:
			docs = append(docs, p.doc)
		case errors.Is(p.err, document.ErrEmpty):
			b.logger.Debug("skipping empty fragment", "file", p.path)
		default:
			res.recordError(p.err)
		}
	}
	res.FilesParsed = len(docs)

	canonical := merge.Merge(docs)
	stats := document.StatsOf(canonical)
	res.TotalSegments = stats.Segments
	res.TotalTooltips = stats.Tooltips
	b.emit(telemetry.Event{Kind: telemetry.KindMergeDone, Data: stats})
	b.report(StageMerge, fmt.Sprintf("Merged %d files (%d segments, %d tooltips)", len(docs), stats.Segments, stats.Tooltips))
	b.logger.Debug("merged fragments", "files", len(docs), "keys", stats.TotalKeys)
	return canonical, nil
}

// parse reads and decodes one fragment. A fragment with no keys is reported
// as document.ErrEmpty so it is dropped without a diagnostic.
func (b *Builder) parse(path string) parsed {
	data, err := afero.ReadFile(b.fs, path)
	if err == nil {
		var doc *document.Document
		doc, err = document.Parse(data)
		if err == nil && doc.Len() == 0 {
			err = document.ErrEmpty
		}
		if err == nil {
			b.report(StageParse, path)
			b.emit(telemetry.Event{Kind: telemetry.KindFileParsed, File: path, Data: map[string]int{"keys": doc.Len()}})
			return parsed{path: path, doc: doc}
		}
	}

	b.report(StageParse, fmt.Sprintf("Skipping %s: %v", path, err))
	b.emit(telemetry.Event{Kind: telemetry.KindFileSkipped, File: path, Data: map[string]string{"error": err.Error()}})
	if errors.Is(err, document.ErrEmpty) {
		return parsed{path: path, err: err}
	}
	b.logger.Warn("skipping fragment", "file", path, "error", err)
	return parsed{path: path, err: &ParseError{Path: path, Err: err}}
}

func (b *Builder) writeFallback(canonical *document.Document, res *Result) *Result {
	out, err := writeDocument(b.fs, b.opts.OutputDir, b.opts.FallbackFilename, canonical)
	if err != nil {
		return res.fail(err)
	}
	out.Variant = "basic"
	res.Fallback = true
	res.Outputs = append(res.Outputs, out)
	res.VariantsBuilt = 1
	res.Success = true
	b.report(StageVariant, fmt.Sprintf("Wrote basic configuration to %s", out.Path))
	b.report(StageDone, "Build complete")
	return res
}

func (b *Builder) writeVariants(cat *catalog.Catalog, canonical *document.Document, res *Result) *Result {
	names := cat.Names()
	if b.opts.Variant != "" {
		names = []string{b.opts.Variant}
	}
	b.report(StageVariant, fmt.Sprintf("Building %d variant(s)", len(names)))

	var firstErr error
	for _, name := range names {
		out, err := b.buildVariant(cat, canonical, name)
		if err != nil {
			verr := &VariantError{Variant: name, Err: err}
			b.logger.Error("variant failed", "variant", name, "error", err)
			b.emit(telemetry.Event{Kind: telemetry.KindVariantFailed, Variant: name, Data: map[string]string{"error": err.Error()}})
			b.report(StageVariant, verr.Error())
			res.recordError(verr)
			if firstErr == nil {
				firstErr = verr
			}
			continue
		}
		res.Outputs = append(res.Outputs, out)
		res.VariantsBuilt++
		b.emit(telemetry.Event{Kind: telemetry.KindVariantBuilt, Variant: name, File: out.Path, Data: out.Stats})
		b.report(StageVariant, fmt.Sprintf("%s variant (%d segments)", name, out.Stats.Segments))
	}

	if res.VariantsBuilt == 0 && len(names) > 0 {
		res.Success = false
		res.Err = fmt.Errorf("%w: %w", ErrNothingBuilt, firstErr)
		return res
	}
	res.Success = true
	b.report(StageDone, "Build complete")
	return res
}

func (b *Builder) buildVariant(cat *catalog.Catalog, canonical *document.Document, name string) (Output, error) {
	spec, err := cat.Lookup(name)
	if err != nil {
		return Output{}, err
	}
	derived := variant.Apply(canonical, spec)
	out, err := writeDocument(b.fs, b.opts.OutputDir, catalog.OutputFilename(name, spec), derived)
	if err != nil {
		return Output{}, err
	}
	out.Variant = name
	b.logger.Debug("wrote variant", "variant", name, "path", out.Path, "bytes", out.Bytes)
	return out, nil
}

func (b *Builder) report(stage Stage, msg string) {
	b.reporter.Report(stage, msg)
}

func (b *Builder) emit(evt telemetry.Event) {
	evt.Build = b.runID
	if err := b.emitter.Emit(evt); err != nil {
		b.logger.Debug("telemetry emit failed", "error", err)
	}
}
