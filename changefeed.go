package messaging

import (
	"context"
	"sync"

	"github.com/clientdesk/messaging/model"
)

// EventType identifies the kind of store change an event describes.
type EventType string

const (
	// EventInsert signals a newly persisted message.
	EventInsert EventType = "insert"

	// EventUpdate signals a translation or read-state update on an existing
	// message. UI subscribers use it to re-render; the orchestrator ignores it.
	EventUpdate EventType = "update"
)

// ChangeEvent is a change notification emitted by the message store.
type ChangeEvent struct {
	Type    EventType     `json:"type"`
	Message model.Message `json:"message"`
}

// ChangeFeed is the store's change-notification channel: a push signal that a
// message row was inserted or updated, scoped by recipient.
//
// Delivery semantics are deliberately weak — at-least-once per subscriber and
// no ordering guarantee across subscribers. Consumers that need a durable
// guarantee (the orchestrator) combine the feed with a store-level sweep.
type ChangeFeed interface {
	// Publish delivers an event to every subscriber whose recipient filter
	// matches. Never blocks on slow subscribers.
	Publish(ctx context.Context, event ChangeEvent) error

	// Subscribe registers interest in events for messages addressed to
	// recipientID; recipientID 0 subscribes to all recipients. Returns the
	// event channel and a cancel function that closes it. The same event may
	// be delivered to any number of matching subscribers.
	Subscribe(recipientID int64) (<-chan ChangeEvent, func())
}

// subscriberBuffer is the per-subscriber channel capacity. When a subscriber
// falls this far behind, further events are dropped for it and must be
// recovered via the stale-pending sweep.
const subscriberBuffer = 64

// MemoryChangeFeed is an in-process ChangeFeed for single-binary deployments.
// Multi-process deployments replace it with a queue- or database-backed
// implementation; the orchestrator algorithm is unchanged either way.
//
// Thread safety: safe for concurrent use.
type MemoryChangeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*feedSubscriber
	logger Logger
}

type feedSubscriber struct {
	recipientID int64
	ch          chan ChangeEvent
}

// NewMemoryChangeFeed creates an empty in-process change feed.
// A nil logger is replaced with NoopLogger.
func NewMemoryChangeFeed(logger Logger) *MemoryChangeFeed {
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &MemoryChangeFeed{
		subs:   make(map[int]*feedSubscriber),
		logger: logger,
	}
}

// Publish implements ChangeFeed. Events for full subscriber buffers are
// dropped with a warning rather than blocking the writer.
func (f *MemoryChangeFeed) Publish(_ context.Context, event ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		if sub.recipientID != 0 && sub.recipientID != event.Message.RecipientID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			f.logger.Warnf("Change feed subscriber full, dropping %s event for message %d",
				event.Type, event.Message.ID)
		}
	}
	return nil
}

// Subscribe implements ChangeFeed.
func (f *MemoryChangeFeed) Subscribe(recipientID int64) (<-chan ChangeEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	sub := &feedSubscriber{
		recipientID: recipientID,
		ch:          make(chan ChangeEvent, subscriberBuffer),
	}
	f.subs[id] = sub

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub.ch)
		}
	}

	return sub.ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (f *MemoryChangeFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
