package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <product-id>",
	Short: "Export the script graph visualization",
	Long:  `Inspects a product's script and outputs a Mermaid diagram (graph TD) of its steps and buttons.`,
	Args:  cobra.ExactArgs(1),
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

		product, err := app.Repo.GetProduct(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		steps := app.Repo.GetSteps(product.ID)

		fmt.Print(graph.GenerateMermaid(product, steps, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
