package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ompbuild/internal/build"
	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/config"
	"github.com/papapumpkin/ompbuild/internal/ui"
)

var renderCmd = &cobra.Command{
	Use:   "render [variant]",
	Short: "Print a derived configuration without writing files",
	Long: `Merges the configuration fragments and prints the named variant as YAML on
stdout. Without a variant, prints the canonical merged configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	var name string
	if len(args) == 1 {
		name = args[0]
	}

	b := build.New(buildOptions(cfg), build.WithLogger(newLogger(cfg.Verbose)))
	out, err := b.Render(cmd.Context(), name)
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			ui.New().UnknownVariant(nf.Name, firstN(nf.Available, 3))
			return errReported
		}
		return fmt.Errorf("render failed: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}
