package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [product-id]",
	Short: "Run an interactive attendance on the terminal",
	Long: `Starts an operator session: each step is rendered on the terminal and
buttons are picked by number. 'b' goes back, 'q' quits preserving the
session.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.DataPath, _ = cmd.Flags().GetString("data")
		opts.ProductID, _ = cmd.Flags().GetString("product")
		if opts.ProductID == "" && len(args) > 0 {
			opts.ProductID = args[0]
		}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Operator, _ = cmd.Flags().GetString("operator")
		opts.Customer, _ = cmd.Flags().GetString("customer")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("product", "P", "", "Product script to run")
	runCmd.Flags().StringP("session", "s", "", "Session ID to resume or create")
	runCmd.Flags().String("operator", "", "Operator name for placeholders")
	runCmd.Flags().String("customer", "", "Customer first name for placeholders")
	runCmd.Flags().Bool("debug", false, "Verbose logging to stderr")
	runCmd.Flags().Bool("plain", false, "No colors and no banner")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the script when the storage changes")
	runCmd.Flags().Bool("fresh", false, "Discard any persisted session state first")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}
