package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/prism"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of prism",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prism version %s\n", strings.TrimSpace(prism.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
