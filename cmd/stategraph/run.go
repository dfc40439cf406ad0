package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Invoke the graph once and print the final state",
	Long: `Runs the graph from START to END on a thread and prints the final state as JSON.

The input is a JSON state object, plain text (a human message), @file or - for stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, opts, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts.Ephemeral, _ = cmd.Flags().GetBool("ephemeral")
		threadID, _ := cmd.Flags().GetString("thread")
		raw, _ := cmd.Flags().GetString("input")
		if len(args) > 0 {
			raw = args[0]
		}

		app, err := cli.Build(cfg, logger, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		input, err := cli.ParseInput(raw, cmd.InOrStdin(), "")
		if err != nil {
			return err
		}
		if threadID == "" && !opts.Ephemeral {
			threadID = uuid.NewString()
			fmt.Fprintf(cmd.ErrOrStderr(), "thread: %s\n", threadID)
		}
		if opts.Ephemeral {
			threadID = ""
		}

		out, err := app.Invoke(cmd.Context(), threadID, input)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("thread", "t", "", "Thread id (default: a new one)")
	runCmd.Flags().StringP("input", "i", "", "Input state (JSON, text, @file or -)")
	runCmd.Flags().Bool("ephemeral", false, "Run without checkpoints")
}
