package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the graph as a Mermaid diagram",
	Long: `Prints a Mermaid diagram (graph TD) of the compiled graph.
With --thread the nodes visited by that thread are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.GraphOverlay
		if threadID, _ := cmd.Flags().GetString("thread"); threadID != "" {
			history, err := app.Sessions.History(cmd.Context(), threadID)
			if err != nil {
				return fmt.Errorf("thread %q: %w", threadID, err)
			}
			overlay = graph.OverlayFromHistory(history)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Engine.Inspect(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("thread", "t", "", "Highlight the path taken by a thread")
}
