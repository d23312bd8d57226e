package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/ompbuild/internal/build"
	"github.com/papapumpkin/ompbuild/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ompbuild",
	Short: "Build Oh My Posh configurations from modular YAML",
	Long: `ompbuild merges the YAML fragments under a config directory into one canonical
Oh My Posh configuration, then derives and writes each variant defined in the
build directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported marks failures whose details were already printed.
var errReported = errors.New("reported")

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .ompbuild.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("config-dir", build.DefaultConfigDir, "directory holding configuration fragments")
	flags.String("variants-dir", build.DefaultVariantsDir, "directory holding variant definitions")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("config_dir", flags.Lookup("config-dir"))
	_ = viper.BindPFlag("variants_dir", flags.Lookup("variants-dir"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.FileName)
		viper.SetConfigType(config.FileType)
		for _, dir := range config.SearchPaths() {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// newLogger returns the diagnostic logger. Diagnostics are discarded unless
// verbose is set, since the printer already reports warnings and failures.
func newLogger(verbose bool) hclog.Logger {
	level := hclog.Error
	output := io.Discard

	if verbose {
		level = hclog.Debug
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   config.AppName,
		Level:  level,
		Output: output,
	})
}

// buildOptions maps runtime configuration onto builder options.
func buildOptions(cfg config.Config) build.Options {
	return build.Options{
		ConfigDir:        cfg.ConfigDir,
		VariantsDir:      cfg.VariantsDir,
		OutputDir:        cfg.OutputDir,
		FallbackFilename: cfg.FallbackFilename,
		Patterns:         cfg.Patterns,
		Ignore:           cfg.Ignore,
		Concurrency:      cfg.Concurrency,
		DefaultVariant:   cfg.DefaultVariant,
		FallbackVariant:  cfg.FallbackVariant,
	}
}
