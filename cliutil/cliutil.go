// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cliutil builds the measure command-line interface: a cobra
// command tree whose flags are bound into a viper configuration, with
// a config file flag that is read on every run. Structured, nested
// configuration (an ingest column layout, the columns to fit) is
// decoded directly from TOML rather than flattened into
// flags; see specfile.go.
package cliutil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds the command tree and its bound configuration.
type Cfg struct {
	*viper.Viper

	Root, convertCmd, fitCmd, ingestCmd, solveCmd, fluidCmd *cobra.Command
}

var options = []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}{}

// InitializeConfig builds the measure command tree and binds its flags
// into a fresh viper configuration.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}
	cfg.SetEnvPrefix("MEASURE")
	cfg.AutomaticEnv()

	cfg.Root = &cobra.Command{
		Use:   "measure",
		Short: "A measurement value, unit algebra, and uncertainty propagation tool.",
		Long: `measure converts, fits, and ingests data that carries a physical
unit and a propagated standard uncertainty, and evaluates fluid
properties. Use the subcommands below to access its functionality.

Configuration can be set with command-line flags, a TOML configuration
file (--config), or environment variables of the form MEASURE_var.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.convertCmd = &cobra.Command{
		Use:   "convert [value] [unit] [toUnit]",
		Short: "Convert a measurement value from one unit to another.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, cfg.GetFloat64("uncertainty"))
		},
		DisableAutoGenTag: true,
	}

	cfg.fitCmd = &cobra.Command{
		Use:   "fit [workbookPath]",
		Short: "Fit a model to two ingested columns of a spreadsheet.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, args[0], cfg.GetString("specfile"), cfg.GetString("model"))
		},
		DisableAutoGenTag: true,
	}

	cfg.ingestCmd = &cobra.Command{
		Use:   "ingest [workbookPath]",
		Short: "Ingest spreadsheet tables declared in a TOML spec file and print them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], cfg.GetString("specfile"))
		},
		DisableAutoGenTag: true,
	}

	cfg.fluidCmd = &cobra.Command{
		Use:   "fluid [fluid] [property]",
		Short: "Evaluate a fluid property backend from --arg flags.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFluid(cmd, args[0], args[1], cfg.GetStringSlice("arg"))
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.convertCmd, cfg.fitCmd, cfg.ingestCmd, cfg.fluidCmd)

	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "config specifies the TOML configuration file location.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "uncertainty",
			usage:      "uncertainty is the standard uncertainty of the value being converted.",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{cfg.convertCmd.Flags()},
		},
		{
			name:       "specfile",
			usage:      "specfile is the TOML file declaring the sheet layout to ingest.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fitCmd.Flags(), cfg.ingestCmd.Flags()},
		},
		{
			name:       "model",
			usage:      "model is the fit model name: constant, linear, quadratic, power, exponential, logistic.",
			defaultVal: "linear",
			flagsets:   []*pflag.FlagSet{cfg.fitCmd.Flags()},
		},
		{
			name:       "arg",
			usage:      "arg binds one fluid property argument as name=value,unit, and may be repeated.",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{cfg.fluidCmd.Flags()},
		},
	}

	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			case []string:
				set.StringSlice(option.name, v, option.usage)
			default:
				panic(fmt.Errorf("cliutil: invalid default value type: %T", option.defaultVal))
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	return cfg
}

// setConfig reads in the TOML configuration file, if one was specified.
func setConfig(cfg *Cfg) error {
	if cfgPath := cfg.GetString("config"); cfgPath != "" {
		cfg.SetConfigFile(cfgPath)
		cfg.SetConfigType("toml")
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cliutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Execute runs the root command, printing and exiting non-zero on error.
func Execute(cfg *Cfg) {
	if err := cfg.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
