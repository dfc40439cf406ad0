package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stategraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stategraph version %s\n", strings.TrimSpace(stategraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
