package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the workspace configuration",
	Long: `Show the effective workspace configuration.

Values come from .pulse/config.yml with defaults filled in. Edit the file
directly to change them; the daemon reads configuration once at start.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the JSON output for pulse config.
type ConfigResponse struct {
	Profile             string `json:"profile"`
	EarlyChannel        string `json:"early_channel,omitempty"`
	HotChannel          string `json:"hot_channel,omitempty"`
	DryRun              bool   `json:"dry_run"`
	GCIntervalHours     int    `json:"gc_interval_hours"`
	CacheRefreshMinutes int    `json:"cache_refresh_minutes"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	if humanOutput {
		fmt.Printf("profile:               %s\n", cfg.Profile)
		fmt.Printf("early-channel:         %s\n", cfg.Notify.EarlyChannel)
		fmt.Printf("hot-channel:           %s\n", cfg.Notify.HotChannel)
		fmt.Printf("dry-run:               %t\n", cfg.Notify.DryRun)
		fmt.Printf("gc-interval-hours:     %d\n", cfg.GCIntervalHours)
		fmt.Printf("cache-refresh-minutes: %d\n", cfg.CacheRefreshMinutes)
		return nil
	}

	return outputJSON(ConfigResponse{
		Profile:             cfg.Profile,
		EarlyChannel:        cfg.Notify.EarlyChannel,
		HotChannel:          cfg.Notify.HotChannel,
		DryRun:              cfg.Notify.DryRun,
		GCIntervalHours:     cfg.GCIntervalHours,
		CacheRefreshMinutes: cfg.CacheRefreshMinutes,
	})
}
