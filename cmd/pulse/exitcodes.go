package main

// Exit codes shared by all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing workspace, invalid config)
	ExitDataError   = 3 // Data error (malformed event file, validation failure)

	// Slack command exit codes
	ExitSlackMissingToken = 1 // SLACK_BOT_TOKEN not set
	ExitSlackAPIError     = 2 // Slack API returned an error
)
