package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/ompbuild/internal/build"
	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/config"
	"github.com/papapumpkin/ompbuild/internal/telemetry"
	"github.com/papapumpkin/ompbuild/internal/ui"
	"github.com/papapumpkin/ompbuild/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:     "build [variant]",
	Aliases: []string{"b"},
	Short:   "Build Oh My Posh configuration variants",
	Long: `Scans the config directory for YAML fragments, merges them into one canonical
configuration, and writes the requested variant (or every variant in the build
directory) to the output directory.

Use 'ompbuild variants' to see available variants.`,
	Example: `  ompbuild build
  ompbuild build minimal
  ompbuild build --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("json", false, "print the build result as JSON on stdout")
	buildCmd.Flags().BoolP("watch", "w", false, "rebuild when fragments or variant definitions change")
	buildCmd.Flags().String("output-dir", build.DefaultOutputDir, "directory to write variants to")
	buildCmd.Flags().String("telemetry", "", "append JSONL build events to this file")

	_ = viper.BindPFlag("output_dir", buildCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("telemetry", buildCmd.Flags().Lookup("telemetry"))

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	jsonOut, _ := cmd.Flags().GetBool("json")
	watchMode, _ := cmd.Flags().GetBool("watch")

	opts := buildOptions(cfg)
	if len(args) == 1 {
		opts.Variant = args[0]
	}

	printer := ui.New()
	printer.Verbose = cfg.Verbose

	emitter, err := openTelemetry(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer emitter.Close()

	builderOpts := []build.Option{
		build.WithLogger(newLogger(cfg.Verbose)),
		build.WithTelemetry(emitter),
	}
	if !jsonOut {
		builderOpts = append(builderOpts, build.WithReporter(printer))
	}
	b := build.New(opts, builderOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	once := func() error {
		return buildOnce(ctx, b, printer, cmd.OutOrStdout(), jsonOut)
	}
	err = once()
	if !watchMode {
		return err
	}
	return watchAndRebuild(ctx, b.Options(), printer, once)
}

// buildOnce runs one build and prints its outcome, as JSON on out or as a
// summary through printer. A failed build returns errReported.
func buildOnce(ctx context.Context, b *build.Builder, printer *ui.Printer, out io.Writer, jsonOut bool) error {
	if !jsonOut {
		printer.BuildStart(b.Options().Variant)
	}
	res := b.Run(ctx)

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		var nf *catalog.NotFoundError
		if errors.As(res.Err, &nf) {
			printer.UnknownVariant(nf.Name, firstN(nf.Available, 3))
		} else {
			printer.BuildSummary(res)
		}
	}

	if !res.Success {
		return errReported
	}
	return nil
}

// watchAndRebuild calls rebuild after each burst of changes under the
// fragment and variant directories until ctx is cancelled.
func watchAndRebuild(ctx context.Context, opts build.Options, printer *ui.Printer, rebuild func() error) error {
	dirs := []string{opts.ConfigDir, opts.VariantsDir}
	w, err := watch.New(dirs, watchPatterns(opts.Patterns), opts.Ignore)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	printer.WatchStart(dirs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			batch, more := drainChanges(w.Changes, change)
			for _, c := range batch {
				printer.WatchChange(c)
			}
			// Failures were printed; keep watching.
			_ = rebuild()
			if !more {
				return nil
			}
		}
	}
}

// drainChanges returns first plus every change already queued on ch, so a
// burst of saves triggers a single rebuild. It reports false once ch is closed.
func drainChanges(ch <-chan watch.Change, first watch.Change) ([]watch.Change, bool) {
	batch := []watch.Change{first}
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return batch, false
			}
			batch = append(batch, c)
		default:
			return batch, true
		}
	}
}

// watchPatterns returns the fragment patterns plus the variant definition
// patterns, without duplicates.
func watchPatterns(fragment []string) []string {
	out := slices.Clone(fragment)
	for _, p := range catalog.Patterns {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func openTelemetry(path string) (*telemetry.Emitter, error) {
	if path == "" {
		return nil, nil
	}
	e, err := telemetry.NewEmitter(afero.NewOsFs(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry: %w", err)
	}
	return e, nil
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
