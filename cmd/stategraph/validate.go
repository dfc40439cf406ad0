package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and graph for consistency",
	Long: `Loads the configuration and compiles the graph, reporting unknown nodes,
duplicate routes, unreachable nodes and a missing path to END.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer app.Close()

		g := app.Engine.Graph()
		if err := validator.ValidateGraph(g); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Graph %q is valid: %d nodes, %d tools.\n", app.Engine.Name(), len(g.Nodes()), len(app.Tools.Tools()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
