// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the investment-analyst CLI.
// The CLI generates structured research-link collections for investment
// due diligence: one schema-constrained completion request per
// sub-objective, aggregated into a batch with a success/failure
// manifest, persisted as a timestamped file and a SQLite archive.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the investment-analyst CLI.
var rootCmd = &cobra.Command{
	Use:   "investment-analyst",
	Short: "Structured research-link generation for investment due diligence",
	Long: `investment-analyst generates research source recommendations for
investment analysis. Given a company, a general objective, and four
sub-objectives, it issues one schema-constrained completion request per
sub-objective, validates the returned structure, and aggregates the
results into a batch with a success/failure manifest.

Batches are written as timestamped JSON files and archived in a local
SQLite database for later review.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./investment-analyst.yaml or ~/.config/investment-analyst/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("investment-analyst")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "investment-analyst"))
		}
	}

	viper.SetEnvPrefix("INVESTMENT_ANALYST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
