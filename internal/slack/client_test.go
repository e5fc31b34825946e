package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(WithToken("xoxb-test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "")
	if _, err := NewClient(); err == nil {
		t.Error("NewClient succeeded without a token")
	}
}

func TestListUsers_Pagination(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users.list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", auth)
		}

		calls++
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"ok":true,"members":[{"id":"U1","name":"alice","profile":{"display_name":"Alice"}}],"response_metadata":{"next_cursor":"page2"}}`)
		case "page2":
			fmt.Fprint(w, `{"ok":true,"members":[{"id":"U2","name":"bob","profile":{"real_name":"Bob B"}}],"response_metadata":{"next_cursor":""}}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("API calls = %d, want 2", calls)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].DisplayName() != "Alice" {
		t.Errorf("users[0].DisplayName() = %q, want Alice", users[0].DisplayName())
	}
	if users[1].DisplayName() != "Bob B" {
		t.Errorf("users[1].DisplayName() = %q, want Bob B (real name fallback)", users[1].DisplayName())
	}
}

func TestListChannels_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"invalid_auth"}`)
	}))

	if _, err := client.ListChannels(context.Background()); err == nil {
		t.Error("ListChannels succeeded on API error")
	}
}

func TestPostMessage(t *testing.T) {
	var got postMessageRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))

	blocks := []Block{SectionBlock("hello"), DividerBlock()}
	if err := client.PostMessage(context.Background(), "C1", "hi there", blocks); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	if got.Channel != "C1" || got.Text != "hi there" {
		t.Errorf("payload = %+v", got)
	}
	if !got.Mrkdwn || !got.UnfurlLinks {
		t.Error("mrkdwn and unfurl_links should be set")
	}
	if len(got.Blocks) != 2 || got.Blocks[0].Type != "section" || got.Blocks[1].Type != "divider" {
		t.Errorf("blocks = %+v", got.Blocks)
	}
}

func TestPostMessage_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
	}))

	err := client.PostMessage(context.Background(), "C1", "hi", nil)
	if err == nil {
		t.Fatal("PostMessage succeeded on API error")
	}
}

func TestGetPermalink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel") != "C1" || r.URL.Query().Get("message_ts") != "1712345678.000100" {
			t.Errorf("unexpected query %v", r.URL.Query())
		}
		fmt.Fprint(w, `{"ok":true,"permalink":"https://example.slack.com/archives/C1/p1712345678000100"}`)
	}))

	url, err := client.GetPermalink(context.Background(), "C1", "1712345678.000100")
	if err != nil {
		t.Fatalf("GetPermalink failed: %v", err)
	}
	if url != "https://example.slack.com/archives/C1/p1712345678000100" {
		t.Errorf("url = %q", url)
	}
}

func TestGetPermalink_FallsBackToArchiveURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"message_not_found"}`)
	}))

	url, err := client.GetPermalink(context.Background(), "C1", "1712345678.000100")
	if err != nil {
		t.Fatalf("GetPermalink failed: %v", err)
	}
	want := "https://slack.com/archives/C1/p1712345678000100"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestArchiveURL(t *testing.T) {
	got := ArchiveURL("C042", "1712345678.000100")
	want := "https://slack.com/archives/C042/p1712345678000100"
	if got != want {
		t.Errorf("ArchiveURL = %q, want %q", got, want)
	}
}
