package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/cli"
	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/pkg/runner"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the graph interactively",
	Long: `Starts a read-eval loop: every line is a turn on the same thread.

Plain lines are human messages, lines starting with { are JSON state updates.
Ctrl+C interrupts the running turn; exit or quit ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, opts, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		threadID, _ := cmd.Flags().GetString("thread")
		jsonMode, _ := cmd.Flags().GetBool("json")
		yes, _ := cmd.Flags().GetBool("yes")
		if threadID == "" {
			threadID = uuid.NewString()
		}

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(cmd.InOrStdin(), cmd.OutOrStdout())
		} else {
			var textOpts []runner.TextHandlerOption
			if tui.IsTerminal(os.Stdout) {
				textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
			}
			handler = runner.NewTextHandler(cmd.InOrStdin(), cmd.OutOrStdout(), textOpts...)
		}
		if cfg.Tools.Confirm && !yes {
			opts.Interceptor = runner.ConfirmationMiddleware(handler)
		}

		app, err := cli.Build(cfg, logger, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		if !jsonMode && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout(), app.Engine.Name(), stategraph.Version)
		}
		logger.Debug("chat session", "thread_id", threadID)

		r := runner.New(app.Sessions,
			runner.WithInputHandler(handler),
			runner.WithLogger(logger),
			runner.WithThreadID(threadID),
			runner.WithTurnTimeout(cfg.Session.TurnTimeout),
			runner.WithSignals(true),
			runner.WithHistory(cmd.Flags().Changed("thread")),
		)
		return r.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("thread", "t", "", "Resume a thread (default: a new one)")
	chatCmd.Flags().Bool("json", false, "NDJSON input and output")
	chatCmd.Flags().BoolP("yes", "y", false, "Run tools without confirmation")
}
