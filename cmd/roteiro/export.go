package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/pkg/bundle"
)

var exportCmd = &cobra.Command{
	Use:   "export <product-id>",
	Short: "Export a product script",
	Long: `Serializes one product back into the bundle JSON format, or into a
CSV report for audits with --csv.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		app, err := cli.NewApp(cmd.Context(), cfg, logging.NewNop())
		if err != nil {
			fmt.Printf("Error initializing roteiro: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		productID := args[0]
		out := os.Stdout
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				fmt.Printf("Error creating output file: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if csvMode, _ := cmd.Flags().GetBool("csv"); csvMode {
			product, err := app.Repo.GetProduct(productID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			steps := app.Repo.GetSteps(productID)
			if err := bundle.WriteCSVReport(out, product, steps, time.Now()); err != nil {
				fmt.Printf("Error writing report: %v\n", err)
				os.Exit(1)
			}
			return
		}

		data, err := bundle.Export(app.Repo, productID)
		if err != nil {
			fmt.Printf("Export failed: %v\n", err)
			os.Exit(1)
		}
		if _, err := out.Write(data); err != nil {
			fmt.Printf("Error writing output: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().Bool("csv", false, "Emit the CSV audit report instead of the JSON bundle")
}
