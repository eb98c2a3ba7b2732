package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	// Global flags
	configPath string
	verbose    bool

	config *Config
	logger *slog.Logger
)

// rootCmd analyzes a corpus and generates lines from it interactively.
var rootCmd = &cobra.Command{
	Use:   "qsa [input.txt]",
	Short: "qsa - Quick String Analyze",
	Long: `qsa profiles a list of short strings (keys, passwords, identifiers) and
generates new strings that follow the same length and per-position character
distributions.

Run with a .txt file (default keys.txt) to analyze it, print the profile, and
generate lines interactively. Every prompt can be answered up front with a flag.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		level := parseLogLevel(config.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
	RunE: runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "qsa %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./qsa.json", "Path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	addInteractiveFlags(rootCmd, &interactiveFlags)

	rootCmd.AddCommand(analyzeCmd, trainCmd, generateCmd, listCmd, removeCmd, exportCmd, importCmd, serveCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if logger != nil {
			logger.Error("qsa failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
