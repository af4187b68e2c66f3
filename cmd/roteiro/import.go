package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/pkg/bundle"
)

var importCmd = &cobra.Command{
	Use:   "import <bundle.json>",
	Short: "Import a script bundle",
	Long: `Loads a JSON bundle into the configured storage. Each product's steps
are fully replaced; items that fail validation are skipped and listed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading bundle: %v\n", err)
			os.Exit(1)
		}

		app, err := cli.NewApp(cmd.Context(), cfg, logging.NewNop())
		if err != nil {
			fmt.Printf("Error initializing roteiro: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		report, err := bundle.Import(app.Repo, data)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Imported %d product(s), %d step(s)\n", report.ProductCount, report.StepCount)
		if len(report.Errors) > 0 {
			fmt.Printf("%d item(s) skipped:\n", len(report.Errors))
			for _, e := range report.Errors {
				fmt.Println("- " + e.String())
			}
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
