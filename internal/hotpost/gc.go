package hotpost

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// StaleAfter is how long a non-notable aggregate may sit untouched
	// before the collector removes it.
	StaleAfter = 24 * time.Hour

	// sweepPageSize is how many rows one scan page covers.
	sweepPageSize = 100

	// DefaultSweepInterval is how often the scheduled sweep runs.
	DefaultSweepInterval = 24 * time.Hour
)

// SweepStore is the persistence surface the collector needs. List pages
// aggregates ordered by updated_at descending and returns an empty page at
// end-of-data. DeleteMany is best-effort: a failure on one key must not
// abort the others.
type SweepStore interface {
	List(ctx context.Context, offset, limit int) ([]Hotpost, error)
	DeleteMany(ctx context.Context, keys []PostKey) (int, error)
}

// Collector prunes aggregates that went stale without ever becoming
// notable. Notable rows (IsEarly or IsHot) are immortal.
type Collector struct {
	store  SweepStore
	now    func() time.Time
	logger *log.Logger

	sweeping atomic.Bool
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorLogger sets the collector's logger.
func WithCollectorLogger(l *log.Logger) CollectorOption {
	return func(c *Collector) { c.logger = l }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

// NewCollector creates a garbage collector over the given store.
func NewCollector(store SweepStore, opts ...CollectorOption) *Collector {
	c := &Collector{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stale reports whether a row is eligible for deletion at the given time.
func stale(h *Hotpost, now time.Time) bool {
	return !h.IsHot && !h.IsEarly && now.UnixMilli()-h.UpdatedAt > StaleAfter.Milliseconds()
}

// Sweep pages through the store and deletes stale, non-notable rows. A
// single-flight guard skips the sweep entirely if a previous one is still
// running. Per-row delete failures are logged and the sweep continues.
func (c *Collector) Sweep(ctx context.Context) error {
	if !c.sweeping.CompareAndSwap(false, true) {
		c.logf("sweep already in progress, skipping")
		return nil
	}
	defer c.sweeping.Store(false)

	sweepID := uuid.NewString()
	now := c.now()
	deleted, scanned := 0, 0

	c.logf("sweep %s starting", sweepID)
	for offset := 0; ; {
		page, err := c.store.List(ctx, offset, sweepPageSize)
		if err != nil {
			c.logf("sweep %s: listing at offset %d: %v", sweepID, offset, err)
			return err
		}
		if len(page) == 0 {
			break
		}
		offset += len(page)
		scanned += len(page)

		var keys []PostKey
		for i := range page {
			if stale(&page[i], now) {
				keys = append(keys, page[i].Key())
			}
		}
		if len(keys) == 0 {
			continue
		}
		n, err := c.store.DeleteMany(ctx, keys)
		deleted += n
		if err != nil {
			// Best-effort: keep going with the next page.
			c.logf("sweep %s: deleting %d rows: %v", sweepID, len(keys), err)
		}
	}

	c.logf("sweep %s done: scanned=%d deleted=%d", sweepID, scanned, deleted)
	return nil
}

// Run triggers Sweep on a fixed schedule until the context is canceled. The
// timer is independent of event traffic.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sweep(ctx); err != nil {
				c.logf("Warning: scheduled sweep failed: %v", err)
			}
		}
	}
}

func (c *Collector) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
