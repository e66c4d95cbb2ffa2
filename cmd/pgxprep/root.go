package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgxprep",
		Short: "Prepare variant files for pharmacogenomic annotation",
		Long: `pgxprep normalizes an input VCF into the canonical variant
representation a pharmacogenomic annotation engine expects: chromosome
renaming, template-driven representation merging, reference-anchored
normalization, per-sample extraction, and a missing-position report.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newSamplesCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig wires the ~/.pgxprep.yaml config file and PGXPREP_* env
// variables into viper. A missing config file is fine.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName(".pgxprep")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("PGXPREP")
	viper.AutomaticEnv()

	viper.SetDefault("template_sample", "PharmCAT")
	viper.SetDefault("output_prefix", "pharmcat_ready_vcf")
	if home != "" {
		viper.SetDefault("cache_dir", filepath.Join(home, ".pgxprep"))
	} else {
		viper.SetDefault("cache_dir", ".pgxprep")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds the CLI logger: human-readable in verbose mode,
// structured production output otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
