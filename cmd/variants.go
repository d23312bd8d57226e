package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ompbuild/internal/catalog"
	"github.com/papapumpkin/ompbuild/internal/config"
	"github.com/papapumpkin/ompbuild/internal/ui"
	"github.com/papapumpkin/ompbuild/internal/variant"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List available configuration variants",
	Long: `Lists every variant defined in the build directory. Each variant selects a
different combination of sections and segments from the merged configuration.`,
	Args: cobra.NoArgs,
	RunE: runVariants,
}

func init() {
	variantsCmd.Flags().BoolP("detailed", "d", false, "show details for each variant")
	variantsCmd.Flags().Bool("json", false, "print the listing as JSON on stdout")
	rootCmd.AddCommand(variantsCmd)
}

// variantEntry is one variant in the JSON listing.
type variantEntry struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Filename    string           `json:"filename,omitempty"`
	Include     *variant.Include `json:"include,omitempty"`
	Exclude     *variant.Exclude `json:"exclude,omitempty"`
	IsDefault   bool             `json:"is_default"`
	IsFallback  bool             `json:"is_fallback"`
}

type variantListing struct {
	Variants        []variantEntry `json:"variants"`
	DefaultVariant  string         `json:"default_variant,omitempty"`
	FallbackVariant string         `json:"fallback_variant,omitempty"`
	Count           int            `json:"count"`
}

func runVariants(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	detailed, _ := cmd.Flags().GetBool("detailed")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cat, err := catalog.Load(afero.NewOsFs(), cfg.VariantsDir, catalog.Options{
		DefaultVariant:  cfg.DefaultVariant,
		FallbackVariant: cfg.FallbackVariant,
		Logger:          newLogger(cfg.Verbose),
	})
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}

	if jsonOut {
		return writeListing(cmd.OutOrStdout(), listVariants(cat, detailed))
	}
	ui.New().Variants(cat, detailed)
	return nil
}

// listVariants builds the JSON listing. A nil catalog lists nothing.
func listVariants(cat *catalog.Catalog, detailed bool) variantListing {
	listing := variantListing{Variants: []variantEntry{}}
	if cat == nil {
		return listing
	}
	for _, name := range cat.Names() {
		entry := variantEntry{
			Name:       name,
			IsDefault:  cat.IsDefault(name),
			IsFallback: cat.IsFallback(name),
		}
		if detailed {
			spec, _ := cat.Lookup(name)
			entry.Description = spec.Description
			entry.Filename = catalog.OutputFilename(name, spec)
			entry.Include = &spec.Include
			entry.Exclude = &spec.Exclude
		}
		listing.Variants = append(listing.Variants, entry)
	}
	if cat.Has(cat.Default()) {
		listing.DefaultVariant = cat.Default()
	}
	if cat.Has(cat.Fallback()) {
		listing.FallbackVariant = cat.Fallback()
	}
	listing.Count = len(listing.Variants)
	return listing
}

func writeListing(w io.Writer, listing variantListing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}
