package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings the run command reads, with the parser each
// value goes through on set.
var configKeys = map[string]func(string) (any, error){
	"template_sample": func(v string) (any, error) { return v, nil },
	"output_prefix":   func(v string) (any, error) { return v, nil },
	"cache_dir":       func(v string) (any, error) { return v, nil },
	"concurrency": func(v string) (any, error) {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("concurrency must be a non-negative integer, got %q", v)
		}
		return n, nil
	},
	"strict": func(v string) (any, error) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("strict must be true or false, got %q", v)
		}
		return b, nil
	},
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pgxprep configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.pgxprep.yaml.",
		Example: `  pgxprep config                              # show all config
  pgxprep config set template_sample PharmCAT # set the synthetic sample name
  pgxprep config get cache_dir                # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// runConfigShow prints the effective settings for the keys the run command
// consumes, defaults included.
func runConfigShow(cmd *cobra.Command) error {
	names := make([]string, 0, len(configKeys))
	for k := range configKeys {
		names = append(names, k)
	}
	sort.Strings(names)

	settings := make(map[string]any, len(names))
	for _, k := range names {
		settings[k] = viper.Get(k)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	parse, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	parsed, err := parse(value)
	if err != nil {
		return err
	}
	viper.Set(key, parsed)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".pgxprep.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, parsed, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
