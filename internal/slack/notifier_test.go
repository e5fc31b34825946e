package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsebot/pulse/internal/hotpost"
)

func testPost() hotpost.Hotpost {
	return hotpost.Hotpost{
		Channel:       "C1",
		Ts:            "1712345678.000100",
		ReactionCount: 21,
		Reactions:     map[string]int{"tada": 12, "fire": 6, "eyes": 3},
		UsersCount:    6,
		Users:         []string{"U1", "U2", "U3", "U4", "U5", "U6"},
		IsHot:         true,
	}
}

func TestFormatReactions(t *testing.T) {
	tests := []struct {
		name      string
		reactions map[string]int
		want      string
	}{
		{
			"sorted by count descending",
			map[string]int{"eyes": 3, "tada": 12, "fire": 6},
			":tada: ×12 :fire: ×6 :eyes: ×3",
		},
		{
			"ties break on name",
			map[string]int{"b": 1, "a": 1},
			":a: ×1 :b: ×1",
		},
		{"empty", map[string]int{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReactions(tt.reactions); got != tt.want {
				t.Errorf("FormatReactions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotify_PostsHeadlineAndBreakdown(t *testing.T) {
	var payloads []postMessageRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.getPermalink", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"permalink":"https://example.slack.com/archives/C1/p1712345678000100"}`)
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		var p postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		payloads = append(payloads, p)
		fmt.Fprint(w, `{"ok":true}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	client, err := NewClient(WithToken("xoxb-test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	n := NewMessageNotifier(client, NotifierConfig{HotChannel: "CHOT", EarlyChannel: "CEARLY"}, nil)
	if err := n.Notify(context.Background(), hotpost.TierHot, testPost()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(payloads) != 2 {
		t.Fatalf("posted %d messages, want 2", len(payloads))
	}
	headline := payloads[0]
	if headline.Channel != "CHOT" {
		t.Errorf("headline channel = %q, want CHOT", headline.Channel)
	}
	if !strings.Contains(headline.Text, "is HOT") {
		t.Errorf("headline text = %q, want hot phrasing", headline.Text)
	}
	if !strings.Contains(headline.Text, "<#C1>") {
		t.Errorf("headline text = %q, want source channel mention", headline.Text)
	}

	breakdown := payloads[1]
	if len(breakdown.Blocks) != 2 {
		t.Fatalf("breakdown blocks = %d, want 2", len(breakdown.Blocks))
	}
	if !strings.Contains(breakdown.Blocks[0].Text.Text, ":tada: ×12") {
		t.Errorf("breakdown = %q", breakdown.Blocks[0].Text.Text)
	}
}

func TestNotify_EarlyUsesEarlyChannel(t *testing.T) {
	var channels []string
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.getPermalink", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"message_not_found"}`)
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		var p postMessageRequest
		json.NewDecoder(r.Body).Decode(&p)
		channels = append(channels, p.Channel)
		fmt.Fprint(w, `{"ok":true}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	client, err := NewClient(WithToken("xoxb-test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	post := testPost()
	post.IsHot = false
	post.IsEarly = true

	n := NewMessageNotifier(client, NotifierConfig{HotChannel: "CHOT", EarlyChannel: "CEARLY"}, nil)
	if err := n.Notify(context.Background(), hotpost.TierEarly, post); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	for _, ch := range channels {
		if ch != "CEARLY" {
			t.Errorf("posted to %q, want CEARLY", ch)
		}
	}
}

func TestNotify_DryRunSkipsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %s in dry-run", r.URL.Path)
	}))
	defer srv.Close()
	client, err := NewClient(WithToken("xoxb-test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	n := NewMessageNotifier(client, NotifierConfig{HotChannel: "CHOT", DryRun: true}, nil)
	if err := n.Notify(context.Background(), hotpost.TierHot, testPost()); err != nil {
		t.Errorf("Notify failed: %v", err)
	}
}

func TestNotify_UnsetChannelSkips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %s with no channel configured", r.URL.Path)
	}))
	defer srv.Close()
	client, err := NewClient(WithToken("xoxb-test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	n := NewMessageNotifier(client, NotifierConfig{}, nil)
	if err := n.Notify(context.Background(), hotpost.TierHot, testPost()); err != nil {
		t.Errorf("Notify failed: %v", err)
	}
}
