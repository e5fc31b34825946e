package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pulsebot/pulse/internal/hotpost"
	"github.com/spf13/cobra"
)

var (
	listOffset int
	listLimit  int

	replayProfile string
)

func init() {
	hotpostListCmd.Flags().IntVar(&listOffset, "offset", 0, "Row offset into the scan")
	hotpostListCmd.Flags().IntVar(&listLimit, "limit", 100, "Maximum rows to return")
	hotpostReplayCmd.Flags().StringVar(&replayProfile, "profile", "relaxed", "Threshold profile (standard, relaxed)")

	hotpostCmd.AddCommand(hotpostListCmd)
	hotpostCmd.AddCommand(hotpostGetCmd)
	hotpostCmd.AddCommand(hotpostGCCmd)
	hotpostCmd.AddCommand(hotpostReplayCmd)
	rootCmd.AddCommand(hotpostCmd)
}

var hotpostCmd = &cobra.Command{
	Use:   "hotpost",
	Short: "Inspect and maintain the hotpost store",
}

var hotpostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List aggregates, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runHotpostList,
}

// HotpostListResponse is the JSON output for pulse hotpost list.
type HotpostListResponse struct {
	Offset   int               `json:"offset"`
	Count    int               `json:"count"`
	Hotposts []hotpost.Hotpost `json:"hotposts"`
}

func runHotpostList(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	posts, err := db.List(context.Background(), listOffset, listLimit)
	if err != nil {
		return err
	}

	if humanOutput {
		for _, h := range posts {
			printHotpostHuman(h)
		}
		return nil
	}
	return outputJSON(HotpostListResponse{Offset: listOffset, Count: len(posts), Hotposts: posts})
}

var hotpostGetCmd = &cobra.Command{
	Use:   "get <channel> <ts>",
	Short: "Show one aggregate by post key",
	Args:  cobra.ExactArgs(2),
	RunE:  runHotpostGet,
}

func runHotpostGet(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	h, err := db.Get(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	if h == nil {
		exitWithError(ExitDataError, "no aggregate for %s/%s", args[0], args[1])
	}

	if humanOutput {
		printHotpostHuman(*h)
		return nil
	}
	return outputJSON(h)
}

var hotpostGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Run one stale-aggregate sweep now",
	Long: `Run one garbage collection sweep immediately.

Deletes aggregates that are neither Early nor Hot and have not been updated
for more than 24 hours. Notable aggregates are never deleted.`,
	Args: cobra.NoArgs,
	RunE: runHotpostGC,
}

func runHotpostGC(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	collector := hotpost.NewCollector(db, hotpost.WithCollectorLogger(newEngineLogger()))
	if err := collector.Sweep(context.Background()); err != nil {
		return err
	}

	if humanOutput {
		fmt.Println("sweep complete")
		return nil
	}
	return outputJSON(StatusResponse{Status: "swept"})
}

var hotpostReplayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Feed an event file through the detection engine",
	Long: `Feed a newline-delimited JSON event file through the detection
engine against the workspace database.

Transitions are logged instead of posted to Slack, so replay needs no
token. Defaults to the relaxed profile for local experiments.`,
	Args: cobra.ExactArgs(1),
	RunE: runHotpostReplay,
}

// logNotifier logs transitions instead of delivering them.
type logNotifier struct {
	logger *log.Logger
}

func (n *logNotifier) Notify(_ context.Context, tier hotpost.Tier, post hotpost.Hotpost) error {
	n.logger.Printf("transition %s: %s/%s reactions=%d users=%d", tier, post.Channel, post.Ts, post.ReactionCount, post.UsersCount)
	return nil
}

func runHotpostReplay(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	profile, err := hotpost.ProfileByName(replayProfile)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		exitWithError(ExitDataError, "opening event file: %v", err)
	}
	defer f.Close()

	db := mustOpenDatabase(root)
	defer db.Close()

	logger := newEngineLogger()
	ingestor := hotpost.NewIngestor(db, hotpost.NewClassifier(profile),
		hotpost.WithNotifier(&logNotifier{logger: logger}),
		hotpost.WithLogger(logger),
	)

	if err := ingestEvents(context.Background(), f, ingestor, logger); err != nil {
		return err
	}

	if humanOutput {
		fmt.Println("replay complete")
		return nil
	}
	return outputJSON(StatusResponse{Status: "replayed", Path: args[0]})
}
