package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [product-id]",
	Short: "Check scripts for consistency",
	Long: `Crawls each product's graph from its first step and reports dangling
buttons and unreachable steps. Without arguments every product is
checked.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := cli.NewApp(cmd.Context(), cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer app.Close()

	var productIDs []string
	if len(args) > 0 {
		productIDs = args
	} else {
		for _, p := range app.Repo.GetProducts() {
			productIDs = append(productIDs, p.ID)
		}
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("no products to validate")
	}

	clean := true
	for _, id := range productIDs {
		result, err := validator.ValidateProduct(app.Repo, id)
		if err != nil {
			return err
		}
		if result.OK() {
			fmt.Printf("%s: %d step(s), no issues ✅\n", id, result.Steps)
			continue
		}
		clean = false
		fmt.Printf("%s: %d issue(s)\n", id, len(result.Issues))
		for _, issue := range result.Issues {
			if issue.ButtonID != "" {
				fmt.Printf("- step %s, button %s: %s\n", issue.StepID, issue.ButtonID, issue.Message)
			} else {
				fmt.Printf("- step %s: %s\n", issue.StepID, issue.Message)
			}
		}
	}

	if !clean {
		return fmt.Errorf("issues found")
	}
	return nil
}
