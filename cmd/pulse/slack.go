package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/pulsebot/pulse/internal/slack"
	"github.com/spf13/cobra"
)

func init() {
	// Load .env file if present (for SLACK_BOT_TOKEN)
	_ = godotenv.Load()

	slackCmd.AddCommand(slackChannelsCmd)
	slackCmd.AddCommand(slackUsersCmd)
	rootCmd.AddCommand(slackCmd)
}

var slackCmd = &cobra.Command{
	Use:   "slack",
	Short: "Slack workspace helper commands",
	Long: `Commands for listing workspace channels and members.

Requires SLACK_BOT_TOKEN environment variable with channels:read and
users:read scopes.`,
}

// mustNewSlackClient builds a Slack client, exits on a missing token.
func mustNewSlackClient() *slack.Client {
	client, err := slack.NewClient()
	if err != nil {
		exitWithError(ExitSlackMissingToken, "%v", err)
	}
	return client
}

var slackChannelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List workspace channels",
	Args:  cobra.NoArgs,
	RunE:  runSlackChannels,
}

// ChannelsResponse is the JSON output for pulse slack channels.
type ChannelsResponse struct {
	Channels []slack.Channel `json:"channels"`
}

func runSlackChannels(cmd *cobra.Command, args []string) error {
	client := mustNewSlackClient()

	channels, err := client.ListChannels(context.Background())
	if err != nil {
		exitWithError(ExitSlackAPIError, "listing channels: %v", err)
	}

	if humanOutput {
		for _, ch := range channels {
			archived := ""
			if ch.IsArchived {
				archived = " (archived)"
			}
			fmt.Printf("%s  #%s%s\n", ch.ID, ch.Name, archived)
		}
		return nil
	}
	return outputJSON(ChannelsResponse{Channels: channels})
}

var slackUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List workspace members",
	Args:  cobra.NoArgs,
	RunE:  runSlackUsers,
}

// UsersResponse is the JSON output for pulse slack users.
type UsersResponse struct {
	Users []slack.User `json:"users"`
}

func runSlackUsers(cmd *cobra.Command, args []string) error {
	client := mustNewSlackClient()

	users, err := client.ListUsers(context.Background())
	if err != nil {
		exitWithError(ExitSlackAPIError, "listing users: %v", err)
	}

	if humanOutput {
		for _, u := range users {
			fmt.Printf("%s  %s\n", u.ID, u.DisplayName())
		}
		return nil
	}
	return outputJSON(UsersResponse{Users: users})
}
