package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/aretw0/stategraph/pkg/domain"
)

var threadsCmd = &cobra.Command{
	Use:     "threads",
	Aliases: []string{"thread"},
	Short:   "Manage persisted threads",
	Long:    `List, inspect, and remove the threads kept by the configured checkpoint store.`,
}

var threadsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		infos, err := cli.ListThreads(cmd.Context(), app.Sessions)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No threads found.")
			return nil
		}
		return printThreads(cmd.OutOrStdout(), infos)
	},
}

var threadsInspectCmd = &cobra.Command{
	Use:   "inspect <thread-id>",
	Short: "Print the latest checkpoint of a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		cp, err := app.Sessions.GetState(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("thread %q: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), cp)
	},
}

var threadsHistoryCmd = &cobra.Command{
	Use:   "history <thread-id>",
	Short: "Print every checkpoint of a thread, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		history, err := app.Sessions.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("thread %q: %w", args[0], err)
		}
		if diff, _ := cmd.Flags().GetBool("diff"); diff {
			return printDiffs(cmd.OutOrStdout(), history)
		}
		return printJSON(cmd.OutOrStdout(), history)
	},
}

var threadsRmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("rm needs thread ids or --all")
		}

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if all {
			args, err = app.Sessions.List(cmd.Context())
			if err != nil {
				return err
			}
		}

		failed := 0
		for _, id := range args {
			if err := app.Sessions.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed thread '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d thread(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsLsCmd, threadsInspectCmd, threadsHistoryCmd, threadsRmCmd)
	threadsHistoryCmd.Flags().Bool("diff", false, "Show the fields each step changed instead of full states")
	threadsRmCmd.Flags().Bool("all", false, "Remove every thread")
}

func printThreads(w io.Writer, infos []domain.ThreadInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "THREAD\tSTEP\tNODE\tUPDATED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.ThreadID, info.Step, info.Node, info.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func printDiffs(w io.Writer, history []domain.Checkpoint) error {
	prev := domain.State{}
	for _, cp := range history {
		diff := domain.Diff(prev, cp.State)
		fmt.Fprintf(w, "step %d  %s  %v\n", cp.Step, cp.Node, diff.Fields())
		prev = cp.State
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
