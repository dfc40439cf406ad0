package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stategraph",
	Short: "stategraph runs stateful agent graphs",
	Long: `stategraph executes graphs of nodes over a shared state, with reducers,
conditional routing and per-thread checkpoints. Without --graph it runs the
built-in tool-calling agent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringP("graph", "g", "", "Graph definition file (default: built-in agent)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log node and checkpoint events")
}

// loadConfig reads the persistent flags and the config file.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, cli.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	graphPath, _ := cmd.Flags().GetString("graph")
	debug, _ := cmd.Flags().GetBool("debug")
	opts := cli.Options{ConfigPath: path, GraphPath: graphPath, Debug: debug}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, opts, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, opts, err
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return cfg, nil, opts, err
	}
	return cfg, logging.NewWithWriter(os.Stderr, level, format), opts, nil
}

// loadApp builds the engine for commands that need no extra options.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, logger, opts, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Build(cfg, logger, opts)
}
