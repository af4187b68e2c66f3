package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of roteiro",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("roteiro version %s\n", strings.TrimSpace(roteiro.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
