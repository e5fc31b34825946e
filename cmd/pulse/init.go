package main

import (
	"fmt"
	"os"

	"github.com/pulsebot/pulse/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pulse workspace in the current directory",
	Long: `Create a .pulse directory with a default configuration.

The workspace holds config.yml, the hotposts database, and the daemon lock
file. Edit .pulse/config.yml to set the notification channels and the
threshold profile before running 'pulse serve'.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.IsWorkspace(cwd) {
		exitWithError(ExitError, "workspace already exists at %s", config.PulsePath(cwd))
	}

	if err := os.MkdirAll(config.PulsePath(cwd), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", config.PulseDir, err)
	}
	if err := config.Default().Save(cwd); err != nil {
		return err
	}

	if humanOutput {
		fmt.Printf("Initialized pulse workspace at %s\n", config.PulsePath(cwd))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.PulsePath(cwd)})
	}
	return nil
}
