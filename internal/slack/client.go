// Package slack wraps the parts of the Slack Web API the bot consumes:
// channel and user listing, message posting, and permalink resolution.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Slack Web API base URL.
	DefaultBaseURL = "https://slack.com/api"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps the client under Slack's Tier 3 / chat.postMessage
	// budget of roughly one request per second.
	RateLimit = 1.0

	// pageSize is the page size for cursor-paginated list calls.
	pageSize = 200
)

// Client is a rate-limited HTTP client for the Slack Web API.
type Client struct {
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bot token explicitly instead of reading the
// environment.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Slack API client. The bot token comes from
// SLACK_BOT_TOKEN unless WithToken is given.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		token:      os.Getenv("SLACK_BOT_TOKEN"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 5),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN environment variable not set; required for Slack API access")
	}
	return c, nil
}

// apiResponse is the generic Slack API response wrapper.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// responseMetadata contains pagination info.
type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// Channel is a conversation from conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsArchived bool   `json:"is_archived"`
}

// User is a workspace member from users.list.
type User struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Profile UserProfile `json:"profile"`
}

// UserProfile contains user profile info.
type UserProfile struct {
	DisplayName string `json:"display_name"`
	RealName    string `json:"real_name"`
}

// DisplayName returns the best human-readable name for a user: display
// name, then real name, then username.
func (u User) DisplayName() string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	if u.Profile.RealName != "" {
		return u.Profile.RealName
	}
	return u.Name
}

// get performs a rate-limited GET against a Slack API method and decodes
// the response into out.
func (c *Client) get(ctx context.Context, method string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", method, err)
	}
	return nil
}

// post performs a rate-limited JSON POST against a Slack API method.
func (c *Client) post(ctx context.Context, method string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", method, err)
	}
	return nil
}

// channelsResponse is the response from conversations.list.
type channelsResponse struct {
	apiResponse
	Channels         []Channel        `json:"channels"`
	ResponseMetadata responseMetadata `json:"response_metadata"`
}

// ListChannels fetches all public channels in the workspace, following
// cursor pagination.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	cursor := ""
	for {
		params := url.Values{
			"limit":            {fmt.Sprint(pageSize)},
			"exclude_archived": {"false"},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var result channelsResponse
		if err := c.get(ctx, "conversations.list", params, &result); err != nil {
			return nil, err
		}
		if !result.OK {
			return nil, fmt.Errorf("Slack API error: %s", result.Error)
		}

		channels = append(channels, result.Channels...)
		if result.ResponseMetadata.NextCursor == "" {
			return channels, nil
		}
		cursor = result.ResponseMetadata.NextCursor
	}
}

// usersResponse is the response from users.list.
type usersResponse struct {
	apiResponse
	Members          []User           `json:"members"`
	ResponseMetadata responseMetadata `json:"response_metadata"`
}

// ListUsers fetches all workspace members, following cursor pagination.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	cursor := ""
	for {
		params := url.Values{"limit": {fmt.Sprint(pageSize)}}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var result usersResponse
		if err := c.get(ctx, "users.list", params, &result); err != nil {
			return nil, err
		}
		if !result.OK {
			return nil, fmt.Errorf("Slack API error: %s", result.Error)
		}

		users = append(users, result.Members...)
		if result.ResponseMetadata.NextCursor == "" {
			return users, nil
		}
		cursor = result.ResponseMetadata.NextCursor
	}
}

// userInfoResponse is the response from users.info.
type userInfoResponse struct {
	apiResponse
	User User `json:"user"`
}

// GetUser fetches a single user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var result userInfoResponse
	if err := c.get(ctx, "users.info", url.Values{"user": {userID}}, &result); err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("Slack API error: %s", result.Error)
	}
	return &result.User, nil
}

// Block is a Block Kit layout block. Only the section and divider shapes
// the bot emits are modeled.
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// TextObject is a Block Kit text object.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SectionBlock builds a mrkdwn section block.
func SectionBlock(text string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: text}}
}

// DividerBlock builds a divider block.
func DividerBlock() Block {
	return Block{Type: "divider"}
}

// postMessageRequest is the chat.postMessage payload.
type postMessageRequest struct {
	Channel     string  `json:"channel"`
	Text        string  `json:"text"`
	Mrkdwn      bool    `json:"mrkdwn"`
	UnfurlLinks bool    `json:"unfurl_links"`
	Blocks      []Block `json:"blocks,omitempty"`
}

// PostMessage posts a message to a channel. Blocks may be nil for a plain
// text message.
func (c *Client) PostMessage(ctx context.Context, channel, text string, blocks []Block) error {
	payload := postMessageRequest{
		Channel:     channel,
		Text:        text,
		Mrkdwn:      true,
		UnfurlLinks: true,
		Blocks:      blocks,
	}

	var result apiResponse
	if err := c.post(ctx, "chat.postMessage", payload, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("Slack API error: %s", result.Error)
	}
	return nil
}

// permalinkResponse is the response from chat.getPermalink.
type permalinkResponse struct {
	apiResponse
	Permalink string `json:"permalink"`
}

// GetPermalink resolves the permalink for a message. When the API declines
// (deleted message, missing scope) it falls back to the predictable archive
// URL rather than failing.
func (c *Client) GetPermalink(ctx context.Context, channel, ts string) (string, error) {
	params := url.Values{"channel": {channel}, "message_ts": {ts}}

	var result permalinkResponse
	if err := c.get(ctx, "chat.getPermalink", params, &result); err != nil {
		return "", err
	}
	if !result.OK {
		return ArchiveURL(channel, ts), nil
	}
	return result.Permalink, nil
}

// ArchiveURL builds the archive-page URL for a message without calling the
// API.
func ArchiveURL(channel, ts string) string {
	return fmt.Sprintf("https://slack.com/archives/%s/p%s", channel, strings.ReplaceAll(ts, ".", ""))
}
