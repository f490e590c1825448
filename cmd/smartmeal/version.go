package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/smartmeal"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of smartmeal",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "smartmeal version %s\n", strings.TrimSpace(smartmeal.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
