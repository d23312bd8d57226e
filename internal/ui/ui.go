// Package ui renders human-facing build output to the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/ompbuild/internal/ansi"
	"github.com/papapumpkin/ompbuild/internal/build"
	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/watch"
)

var (
	colorDefault  = lipgloss.Color("#00BFFF")
	colorFallback = lipgloss.Color("#FFA500")
	colorMuted    = lipgloss.Color("#888888")

	styleVariantName = lipgloss.NewStyle().Bold(true)
	styleDefault     = lipgloss.NewStyle().Foreground(colorDefault).Bold(true)
	styleFallback    = lipgloss.NewStyle().Foreground(colorFallback).Bold(true)
	styleLabel       = lipgloss.NewStyle().Foreground(colorMuted)
)

// Printer writes colored progress and summaries. It is safe for concurrent
// use, so it can serve as a build.Reporter.
type Printer struct {
	// Verbose also prints per-file parse progress.
	Verbose bool
	// NoColor strips escape sequences from all output.
	NoColor bool

	mu  sync.Mutex
	out io.Writer
}

// New returns a Printer writing to stderr. Color is disabled when the
// NO_COLOR environment variable is set.
func New() *Printer {
	p := NewWriter(os.Stderr)
	p.NoColor = os.Getenv("NO_COLOR") != ""
	return p
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if p.NoColor {
		s = ansi.Strip(s)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.out, s)
}

// Report implements build.Reporter.
func (p *Printer) Report(stage build.Stage, msg string) {
	switch stage {
	case build.StageParse:
		if !p.Verbose {
			return
		}
		p.printf(ansi.Dim+"  %s"+ansi.Reset+"\n", msg)
	case build.StageVariant:
		p.printf(ansi.Blue+"▶ "+ansi.Reset+"%s\n", msg)
	case build.StageDone:
		// The summary covers it.
	default:
		p.printf(ansi.Cyan+"◆ %s"+ansi.Reset+" %s\n", stage, msg)
	}
}

// BuildStart announces a build of one variant, or of all when name is empty.
func (p *Printer) BuildStart(name string) {
	if name == "" {
		p.printf(ansi.Bold + "Building all variants..." + ansi.Reset + "\n")
		return
	}
	p.printf(ansi.Bold+"Building variant %s"+ansi.Reset+"\n", name)
}

// BuildSummary prints the outcome of a build.
func (p *Printer) BuildSummary(res *build.Result) {
	for _, w := range res.Warnings {
		p.Warn(w)
	}
	if !res.Success {
		msg := "unknown error"
		if len(res.Errors) > 0 {
			msg = strings.Join(res.Errors, "; ")
		}
		p.printf(ansi.Red+ansi.Bold+"✗ build failed"+ansi.Reset+": %s\n", msg)
		return
	}

	for _, e := range res.Errors {
		p.printf("  "+ansi.Red+"• "+ansi.Reset+"%s\n", e)
	}
	for _, o := range res.Outputs {
		p.printf(ansi.Green+"✓ %s"+ansi.Reset+" → %s "+ansi.Dim+"(%s, %d segments, %d tooltips)"+ansi.Reset+"\n",
			o.Variant, o.Path, humanize.Bytes(uint64(o.Bytes)), o.Stats.Segments, o.Stats.Tooltips)
	}

	header := ansi.Green + ansi.Bold + "✓ build completed" + ansi.Reset
	if res.Partial() {
		header = ansi.Yellow + ansi.Bold + "⚠ build completed with errors" + ansi.Reset
	}
	p.printf("\n%s\n", header)
	p.printf("  variants built:  %d\n", res.VariantsBuilt)
	p.printf("  files parsed:    %d/%d\n", res.FilesParsed, res.FilesFound)
	p.printf("  total segments:  %d\n", res.TotalSegments)
	p.printf("  total tooltips:  %d\n", res.TotalTooltips)
}

// UnknownVariant explains that name is not in the catalog.
func (p *Printer) UnknownVariant(name string, suggestions []string) {
	p.printf(ansi.Red+ansi.Bold+"error: "+ansi.Reset+"unknown variant %q\n", name)
	if len(suggestions) > 0 {
		p.printf(ansi.Dim+"  try one of: %s"+ansi.Reset+"\n", strings.Join(suggestions, ", "))
	}
	p.printf(ansi.Dim + "  run 'ompbuild variants' to see all available variants" + ansi.Reset + "\n")
}

// Variants lists the catalog. With detailed set, each entry also shows its
// description, output file, includes and excludes.
func (p *Printer) Variants(cat *catalog.Catalog, detailed bool) {
	names := cat.Names()
	if len(names) == 0 {
		p.Warn("no variants found in " + cat.Dir)
		return
	}

	p.printf(ansi.Bold + "Available variants:" + ansi.Reset + "\n\n")
	for _, name := range names {
		line := styleVariantName.Render(name) + badges(cat, name)
		if !detailed {
			p.printf("  • %s\n", line)
			continue
		}

		spec, _ := cat.Lookup(name)
		p.printf("%s\n", line)
		if spec.Description != "" {
			p.printf("   %s %s\n", styleLabel.Render("Description:"), spec.Description)
		}
		p.printf("   %s %s\n", styleLabel.Render("Output file:"), catalog.OutputFilename(name, spec))
		if inc := spec.Include.Included(); len(inc) > 0 {
			p.printf("   %s %s\n", styleLabel.Render("Includes:"), strings.Join(inc, ", "))
		}
		var exc []string
		exc = append(exc, spec.Exclude.Segments...)
		if spec.Exclude.NewlineBlocks {
			exc = append(exc, "newline blocks")
		}
		if len(exc) > 0 {
			p.printf("   %s %s\n", styleLabel.Render("Excludes:"), strings.Join(exc, ", "))
		}
		p.printf("\n")
	}

	if !detailed {
		p.printf("\n" + ansi.Dim + "Use --detailed for more information about each variant" + ansi.Reset + "\n")
		p.printf(ansi.Dim + "Use 'ompbuild build <variant>' to build a specific variant" + ansi.Reset + "\n")
	}
	for _, s := range cat.Skipped {
		p.Warn(fmt.Sprintf("skipped %s: %v", s.File, s.Err))
	}
}

func badges(cat *catalog.Catalog, name string) string {
	var b []string
	if cat.IsDefault(name) {
		b = append(b, styleDefault.Render("DEFAULT"))
	}
	if cat.IsFallback(name) {
		b = append(b, styleFallback.Render("FALLBACK"))
	}
	if len(b) == 0 {
		return ""
	}
	return " [" + strings.Join(b, ", ") + "]"
}

// WatchStart announces the watched directories.
func (p *Printer) WatchStart(dirs []string) {
	p.printf("\n"+ansi.Magenta+ansi.Bold+"watching"+ansi.Reset+" %s "+ansi.Dim+"(ctrl-c to stop)"+ansi.Reset+"\n",
		strings.Join(dirs, ", "))
}

// WatchChange reports a file change that triggers a rebuild.
func (p *Printer) WatchChange(c watch.Change) {
	p.printf("\n"+ansi.Magenta+"── %s %s ──"+ansi.Reset+"\n", c.Op, c.Path)
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	p.printf(ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Warn prints a warning line.
func (p *Printer) Warn(msg string) {
	p.printf(ansi.Yellow+"warning: "+ansi.Reset+"%s\n", msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	p.printf(ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}
