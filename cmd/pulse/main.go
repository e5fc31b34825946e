// Package main provides the pulse CLI entry point.
package main

import (
	"log"
	"os"

	"github.com/pulsebot/pulse/internal/config"
	"github.com/pulsebot/pulse/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		os.Exit(outputError(ExitError, "%s", err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Slack workspace engagement CLI",
	Long: `pulse watches reaction activity in a Slack workspace and detects
posts that are heating up.

Core features:
  - Hotpost detection: per-post reaction aggregates with Early/Hot tiers
  - Durable SQLite state with scheduled garbage collection
  - Tier announcements posted to configured Slack channels
  - Workspace helpers for listing channels and members

State lives in a .pulse directory created by 'pulse init'. Commands output
JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindWorkspace finds and validates the workspace, exits on error.
// Returns the workspace root path.
func mustFindWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	root, err := config.FindWorkspace(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// newEngineLogger builds the logger shared by daemon components.
func newEngineLogger() *log.Logger {
	return log.New(os.Stderr, "pulse: ", log.LstdFlags)
}
