package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "roteiro",
	Short: "Roteiro is a script-graph engine for guided call-center attendance",
	Long: `Roteiro drives operators through product scripts step by step.
Scripts are imported from JSON bundles, edited over the HTTP API, and
followed interactively on the terminal or through MCP tools.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default: ./roteiro.yaml)")
	rootCmd.PersistentFlags().String("data", "", "Storage path, overriding the configured one")
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		cfg.Storage.Path = data
	}
	return cfg, nil
}
