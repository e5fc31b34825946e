package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pulsebot/pulse/internal/hotpost"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// printHotpostHuman prints one aggregate in human-readable form.
func printHotpostHuman(h hotpost.Hotpost) {
	tier := "normal"
	if h.IsHot {
		tier = "hot"
	} else if h.IsEarly {
		tier = "early"
	}
	updated := time.UnixMilli(h.UpdatedAt).Format("2006-01-02 15:04:05")
	fmt.Printf("%s/%s  reactions=%d users=%d tier=%s updated=%s\n",
		h.Channel, h.Ts, h.ReactionCount, h.UsersCount, tier, updated)
}
