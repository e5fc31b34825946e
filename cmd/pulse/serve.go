package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pulsebot/pulse/internal/config"
	"github.com/pulsebot/pulse/internal/hotpost"
	"github.com/pulsebot/pulse/internal/slack"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hotpost detection daemon",
	Long: `Run the hotpost detection daemon.

Reads newline-delimited reaction events as JSON from stdin (the event
gateway pipes them in), maintains per-post aggregates in the workspace
database, announces tier transitions to the configured channels, and
garbage-collects stale aggregates on schedule.

Event shape:
  {"kind":"added","channel":"C123","post_ts":"1712345678.000100",
   "reaction":"tada","user":"U123","event_ts":"1712345699.000200"}

Requires SLACK_BOT_TOKEN with chat:write, channels:read, and users:read
scopes. A lock file prevents two daemons from sharing one workspace.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	profile, err := hotpost.ProfileByName(cfg.Profile)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	// One daemon per workspace; the DB write path is not shareable.
	fileLock := flock.New(config.LockPath(root))
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		exitWithError(ExitError, "pulse serve already running (lock held by another process)")
	}
	defer func() { _ = fileLock.Unlock() }()

	db := mustOpenDatabase(root)
	defer db.Close()

	logger := newEngineLogger()

	client, err := slack.NewClient()
	if err != nil {
		exitWithError(ExitSlackMissingToken, "%v", err)
	}

	notifier := slack.NewMessageNotifier(client, slack.NotifierConfig{
		EarlyChannel: cfg.Notify.EarlyChannel,
		HotChannel:   cfg.Notify.HotChannel,
		DryRun:       cfg.Notify.DryRun,
	}, logger)
	names := slack.NewNameCache(client, logger)

	ingestor := hotpost.NewIngestor(db, hotpost.NewClassifier(profile),
		hotpost.WithNotifier(notifier),
		hotpost.WithNameResolver(names),
		hotpost.WithLogger(logger),
	)
	collector := hotpost.NewCollector(db, hotpost.WithCollectorLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	logger.Printf("serve session %s: profile=%s db=%s", session, profile.Name, config.DBPath(root))

	go names.Run(ctx, time.Duration(cfg.CacheRefreshMinutes)*time.Minute)
	go collector.Run(ctx, time.Duration(cfg.GCIntervalHours)*time.Hour)

	if err := ingestEvents(ctx, os.Stdin, ingestor, logger); err != nil {
		return err
	}
	logger.Printf("serve session %s: event stream closed, shutting down", session)
	return nil
}

// ingestEvents feeds newline-delimited JSON events to the ingestor until
// EOF or context cancellation. Malformed lines and per-event failures are
// logged; neither stops the stream. Lines are read without a length cap so
// one oversized line cannot take the daemon down.
func ingestEvents(ctx context.Context, r io.Reader, ingestor *hotpost.Ingestor, logger *log.Logger) error {
	reader := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, readErr := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var ev hotpost.ReactionEvent
			if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
				logger.Printf("Warning: skipping malformed event line: %v", err)
			} else if err := ingestor.HandleEvent(ctx, ev); err != nil {
				// At-most-once on failure: the event stays unprocessed.
				logger.Printf("Warning: event not processed: %v", err)
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading event stream: %w", readErr)
		}
	}
}
