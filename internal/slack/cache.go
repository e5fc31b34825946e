package slack

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultCacheRefreshInterval is how often the daemon repopulates the
// display-name cache.
const DefaultCacheRefreshInterval = 1 * time.Hour

// NameCache is a cache of user and channel display names, used to make log
// lines legible. Lookups never touch the network: a miss returns "" and
// queues the ID for the next background refresh. It is an injected
// component, not a package-level singleton, and is safe for concurrent use.
type NameCache struct {
	client *Client
	logger *log.Logger

	mu       sync.RWMutex
	users    map[string]string
	channels map[string]string
	// pending holds user IDs that missed the cache. Refresh resolves them
	// individually via users.info; workspaces on Enterprise Grid surface
	// users the bot can see messages from but not enumerate.
	pending map[string]struct{}
}

// NewNameCache creates an empty cache over the given client. logger may be
// nil.
func NewNameCache(client *Client, logger *log.Logger) *NameCache {
	return &NameCache{
		client:   client,
		logger:   logger,
		users:    make(map[string]string),
		channels: make(map[string]string),
		pending:  make(map[string]struct{}),
	}
}

// Refresh repopulates both name tables from the API and resolves queued
// user-ID misses. A failure on one table does not prevent refreshing the
// other.
func (c *NameCache) Refresh(ctx context.Context) error {
	var errs []error

	if users, err := c.client.ListUsers(ctx); err != nil {
		errs = append(errs, err)
	} else {
		table := make(map[string]string, len(users))
		for _, u := range users {
			if u.ID != "" {
				table[u.ID] = u.DisplayName()
			}
		}
		c.mu.Lock()
		c.users = table
		c.mu.Unlock()
	}

	if channels, err := c.client.ListChannels(ctx); err != nil {
		errs = append(errs, err)
	} else {
		table := make(map[string]string, len(channels))
		for _, ch := range channels {
			if ch.ID != "" {
				table[ch.ID] = ch.Name
			}
		}
		c.mu.Lock()
		c.channels = table
		c.mu.Unlock()
	}

	c.resolvePending(ctx)
	return errors.Join(errs...)
}

// resolvePending drains the queued user-ID misses via users.info. An ID that
// cannot be resolved is cached as "" so repeated events from it do not keep
// queueing lookups.
func (c *NameCache) resolvePending(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.pending = make(map[string]struct{})
	c.mu.Unlock()

	for _, id := range ids {
		c.mu.RLock()
		_, known := c.users[id]
		c.mu.RUnlock()
		if known {
			continue
		}

		name := ""
		if user, err := c.client.GetUser(ctx, id); err != nil {
			c.logf("Warning: resolving user %s: %v", id, err)
		} else {
			name = user.DisplayName()
		}
		c.mu.Lock()
		c.users[id] = name
		c.mu.Unlock()
	}
}

// UserName resolves a user ID to a display name from the cache. A miss
// returns "" immediately and queues the ID so the next refresh can resolve
// it; the lookup itself never blocks on the API.
func (c *NameCache) UserName(id string) string {
	c.mu.RLock()
	name, ok := c.users[id]
	c.mu.RUnlock()
	if ok {
		return name
	}

	c.mu.Lock()
	c.pending[id] = struct{}{}
	c.mu.Unlock()
	return ""
}

// ChannelName resolves a channel ID to its name, or "" when unknown.
func (c *NameCache) ChannelName(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[id]
}

// Run refreshes the cache immediately and then on the given interval until
// the context is canceled.
func (c *NameCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCacheRefreshInterval
	}

	if err := c.Refresh(ctx); err != nil {
		c.logf("Warning: initial name cache refresh failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logf("Warning: name cache refresh failed: %v", err)
			}
		}
	}
}

func (c *NameCache) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
