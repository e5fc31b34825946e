package slack

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pulsebot/pulse/internal/hotpost"
)

// NotifierConfig selects the destination channels for tier notifications.
type NotifierConfig struct {
	// EarlyChannel and HotChannel receive the tier announcements. An unset
	// channel means that tier is announced nowhere (logged and skipped).
	EarlyChannel string
	HotChannel   string

	// DryRun logs what would be posted instead of calling the API.
	DryRun bool
}

// MessageNotifier posts tier-transition announcements to Slack. It
// implements hotpost.Notifier.
type MessageNotifier struct {
	client *Client
	cfg    NotifierConfig
	logger *log.Logger
}

// NewMessageNotifier creates a notifier over the given client. logger may
// be nil.
func NewMessageNotifier(client *Client, cfg NotifierConfig, logger *log.Logger) *MessageNotifier {
	return &MessageNotifier{client: client, cfg: cfg, logger: logger}
}

// Notify announces a tier transition: a headline message linking the post,
// then a block message with the reaction breakdown. Failures are returned
// for the caller to log; the committed state change is never affected.
func (n *MessageNotifier) Notify(ctx context.Context, tier hotpost.Tier, post hotpost.Hotpost) error {
	isHot := tier == hotpost.TierHot
	n.logf("detected %s post %s/%s (reactions=%d users=%d)", tier, post.Channel, post.Ts, post.ReactionCount, post.UsersCount)

	if n.cfg.DryRun {
		n.logf("[dry run] %s notification for %s/%s suppressed", tier, post.Channel, post.Ts)
		return nil
	}

	channel := n.cfg.EarlyChannel
	if isHot {
		channel = n.cfg.HotChannel
	}
	if channel == "" {
		n.logf("Warning: no %s channel configured, skipping notification", tier)
		return nil
	}

	postURL, err := n.client.GetPermalink(ctx, post.Channel, post.Ts)
	if err != nil {
		return fmt.Errorf("resolving permalink: %w", err)
	}

	verb := "might be HOT"
	if isHot {
		verb = "is HOT"
	}
	headline := fmt.Sprintf("<%s|This post> in <#%s> %s right now!", postURL, post.Channel, verb)
	if err := n.client.PostMessage(ctx, channel, headline, nil); err != nil {
		return fmt.Errorf("posting %s headline: %w", tier, err)
	}

	blocks := []Block{
		SectionBlock(fmt.Sprintf("<%s|%s>", postURL, FormatReactions(post.Reactions))),
		DividerBlock(),
	}
	if err := n.client.PostMessage(ctx, channel, " ", blocks); err != nil {
		return fmt.Errorf("posting %s breakdown: %w", tier, err)
	}
	return nil
}

func (n *MessageNotifier) logf(format string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}

// FormatReactions renders a reaction map as ":name: ×N" pairs, highest
// count first, name order breaking ties.
func FormatReactions(reactions map[string]int) string {
	names := make([]string, 0, len(reactions))
	for name := range reactions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if reactions[names[i]] != reactions[names[j]] {
			return reactions[names[i]] > reactions[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf(":%s: ×%d", name, reactions[name]))
	}
	return strings.Join(parts, " ")
}
