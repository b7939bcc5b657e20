// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the narrative-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the narrative-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "narrative-engine",
	Short: "Text analytics over institutional AI reports",
	Long: `narrative-engine builds and analyzes a corpus of strategic AI reports
published by consulting firms, universities, industry labs, and policy bodies.

Each pipeline stage is a subcommand: fetch downloads report PDFs, ingest
extracts and cleans their text, preprocess tokenizes it, corpus indexes it
for search, and analyze computes n-gram, TF-IDF, topic, and cross-group
comparisons.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./narrative-engine.yaml or ~/.config/narrative-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("narrative-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "narrative-engine"))
		}
	}

	viper.SetEnvPrefix("NARRATIVE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configString resolves a string setting: an explicitly set flag wins, then
// the config file / environment, then the flag's default.
func configString(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
