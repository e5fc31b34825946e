package hotpost

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Store is the persistence surface the ingestor needs. Get returns
// (nil, nil) when no row exists. Create and Update must be durable before
// they return; the ingestor considers the event processed only after the
// write completes.
type Store interface {
	Get(ctx context.Context, channel, ts string) (*Hotpost, error)
	Create(ctx context.Context, h *Hotpost) error
	Update(ctx context.Context, h *Hotpost) error
}

// Notifier delivers tier-transition notifications. Implementations are
// external collaborators; delivery is best-effort and never rolls back the
// persisted transition.
type Notifier interface {
	Notify(ctx context.Context, tier Tier, post Hotpost) error
}

// NameResolver maps Slack IDs to display names. It is used only to enrich
// log output; resolution failures are harmless.
type NameResolver interface {
	UserName(id string) string
	ChannelName(id string) string
}

// Ingestor orchestrates load → apply → classify → persist → notify for each
// incoming reaction event.
type Ingestor struct {
	store      Store
	classifier *Classifier
	notifier   Notifier
	names      NameResolver
	logger     *log.Logger

	mu    sync.Mutex
	locks map[PostKey]*keyLock
}

// keyLock is a per-post mutex with a waiter count so the entry can be
// dropped from the map once the last holder releases it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithNotifier sets the tier-transition notifier.
func WithNotifier(n Notifier) IngestorOption {
	return func(g *Ingestor) { g.notifier = n }
}

// WithNameResolver sets the display-name resolver used in log lines.
func WithNameResolver(r NameResolver) IngestorOption {
	return func(g *Ingestor) { g.names = r }
}

// WithLogger sets the ingestor's logger.
func WithLogger(l *log.Logger) IngestorOption {
	return func(g *Ingestor) { g.logger = l }
}

// NewIngestor creates an ingestor over the given store and classifier.
func NewIngestor(store Store, classifier *Classifier, opts ...IngestorOption) *Ingestor {
	g := &Ingestor{
		store:      store,
		classifier: classifier,
		locks:      make(map[PostKey]*keyLock),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HandleEvent processes one reaction event. Concurrent events for different
// posts proceed in parallel; events for the same (channel, ts) are
// serialized so the read-modify-write cycle never loses an update.
//
// Malformed events and removals for unknown posts are logged and dropped
// with a nil error. A store failure is returned to the caller and the event
// is considered unprocessed; it is not retried here.
func (g *Ingestor) HandleEvent(ctx context.Context, ev ReactionEvent) error {
	if ev.Channel == "" || ev.PostTs == "" {
		g.logf("Warning: dropping malformed event (missing channel or post ts): kind=%s reaction=%s user=%s",
			ev.Kind, ev.Reaction, ev.User)
		return nil
	}
	if ev.Kind != EventAdded && ev.Kind != EventRemoved {
		g.logf("Warning: dropping event with unknown kind %q for %s/%s", ev.Kind, ev.Channel, ev.PostTs)
		return nil
	}

	unlock := g.lockKey(PostKey{Channel: ev.Channel, Ts: ev.PostTs})
	defer unlock()

	g.logf("event %s channel=%s user=%s reaction=%s", ev.Kind, g.channelLabel(ev.Channel), g.userLabel(ev.User), ev.Reaction)

	updatedAt := ParseEventTs(ev.EventTs)

	h, err := g.store.Get(ctx, ev.Channel, ev.PostTs)
	if err != nil {
		return fmt.Errorf("loading hotpost %s/%s: %w", ev.Channel, ev.PostTs, err)
	}

	if h == nil {
		if ev.Kind == EventRemoved {
			// No aggregate to decrement and no backfill; an accepted gap.
			g.logf("Warning: reaction removed for unknown post %s/%s, dropping", ev.Channel, ev.PostTs)
			return nil
		}
		h = &Hotpost{
			Channel:       ev.Channel,
			Ts:            ev.PostTs,
			ReactionCount: 1,
			Reactions:     map[string]int{ev.Reaction: 1},
			UsersCount:    1,
			Users:         []string{ev.User},
			UpdatedAt:     updatedAt,
		}
		tier := g.classifier.Classify(h)
		if err := g.store.Create(ctx, h); err != nil {
			return fmt.Errorf("creating hotpost %s/%s: %w", ev.Channel, ev.PostTs, err)
		}
		g.notify(ctx, tier, h)
		return nil
	}

	Apply(h, ev)
	tier := g.classifier.Classify(h)
	h.UpdatedAt = updatedAt
	if err := g.store.Update(ctx, h); err != nil {
		return fmt.Errorf("updating hotpost %s/%s: %w", ev.Channel, ev.PostTs, err)
	}
	g.notify(ctx, tier, h)
	return nil
}

// notify delivers a transition signal. Failures are logged only: the state
// change is already committed.
func (g *Ingestor) notify(ctx context.Context, tier Tier, h *Hotpost) {
	if tier == TierNone || g.notifier == nil {
		return
	}
	if err := g.notifier.Notify(ctx, tier, h.Clone()); err != nil {
		g.logf("Warning: %s notification for %s/%s failed: %v", tier, h.Channel, h.Ts, err)
	}
}

// lockKey serializes processing per post key. The entry is removed once the
// last waiter releases it, so the map tracks in-flight keys, not every post
// ever seen.
func (g *Ingestor) lockKey(key PostKey) func() {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &keyLock{}
		g.locks[key] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, key)
		}
		g.mu.Unlock()
	}
}

func (g *Ingestor) logf(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}

func (g *Ingestor) userLabel(id string) string {
	if g.names != nil {
		if name := g.names.UserName(id); name != "" && name != id {
			return id + " (" + name + ")"
		}
	}
	return id
}

func (g *Ingestor) channelLabel(id string) string {
	if g.names != nil {
		if name := g.names.ChannelName(id); name != "" && name != id {
			return id + " (#" + name + ")"
		}
	}
	return id
}
