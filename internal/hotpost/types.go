// Package hotpost implements the engagement detection engine: it aggregates
// reaction events per post, classifies posts into escalating tiers, and
// garbage-collects aggregates that went stale without becoming notable.
package hotpost

import (
	"strconv"
	"strings"
	"time"
)

// EventKind distinguishes reaction_added from reaction_removed events.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
)

// ReactionEvent is a normalized reaction event as delivered by the gateway.
type ReactionEvent struct {
	Kind     EventKind `json:"kind"`
	Channel  string    `json:"channel"`
	PostTs   string    `json:"post_ts"`
	Reaction string    `json:"reaction"`
	User     string    `json:"user"`
	EventTs  string    `json:"event_ts"`
}

// Hotpost is the running per-post tally of reactions and reacting users,
// keyed by (Channel, Ts).
type Hotpost struct {
	ID            int64          `json:"id,omitempty"`
	Channel       string         `json:"channel"`
	Ts            string         `json:"ts"`
	ReactionCount int            `json:"reaction_count"`
	Reactions     map[string]int `json:"reactions"`
	UsersCount    int            `json:"users_count"`
	Users         []string       `json:"users"`

	// IsEarly and IsHot latch once set; neither is ever reset, even if
	// counts later fall below the thresholds. IsHot is terminal.
	IsEarly bool `json:"is_early"`
	IsHot   bool `json:"is_hot"`

	// UpdatedAt is the epoch-millisecond time of the last mutation and is
	// the ordering key for staleness scans.
	UpdatedAt int64 `json:"updated_at"`
}

// PostKey identifies a hotpost row.
type PostKey struct {
	Channel string `json:"channel"`
	Ts      string `json:"ts"`
}

// Key returns the post's store key.
func (h *Hotpost) Key() PostKey {
	return PostKey{Channel: h.Channel, Ts: h.Ts}
}

// Clone returns a deep copy, used for notifier snapshots so collaborators
// never observe later mutations.
func (h *Hotpost) Clone() Hotpost {
	c := *h
	c.Reactions = make(map[string]int, len(h.Reactions))
	for name, n := range h.Reactions {
		c.Reactions[name] = n
	}
	c.Users = append([]string(nil), h.Users...)
	return c
}

// ParseEventTs converts a Slack event timestamp like "1712345678.000100" to
// epoch milliseconds. Falls back to the current time when the timestamp is
// missing or malformed.
func ParseEventTs(ts string) int64 {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Now().UnixMilli()
	}
	ms := sec * 1000
	if len(fracPart) >= 3 {
		if frac, err := strconv.ParseInt(fracPart[:3], 10, 64); err == nil {
			ms += frac
		}
	}
	return ms
}
