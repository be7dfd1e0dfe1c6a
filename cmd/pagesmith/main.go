// Package main is the entry point for the pagesmith server and its
// maintenance commands. Configuration comes from the environment; see
// internal/config.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	memoryMode bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pagesmith",
	Short: "pagesmith - themes, SEO metadata and page-builder content for marketing sites",
	Long: "pagesmith serves the JSON API that manages site themes, page metadata and " +
		"page-builder sections, and offers commands to migrate, seed and export data.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&memoryMode, "memory", false, "Use the in-memory gateway instead of PostgreSQL and Valkey")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, cssCmd, variablesCmd)
}

// setupLogger installs a text handler on stderr so command output on
// stdout stays clean.
func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
