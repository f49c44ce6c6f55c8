package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/lostbyte/mainhero/internal/logger"
)

// Event types published on the bus
const (
	EventCollectionChanged = "collection:changed"
	EventCharacterSelected = "character:selected"
	EventThemeChanged      = "theme:changed"
)

const subscriberBuffer = 16

// Event is a notification fanned out to panel clients
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Upstream carries events between processes (e.g. NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub fans events out to in-process subscribers. Slow subscribers lose
// events rather than blocking the publisher.
type PubSub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	upstream    Upstream
	dropped     atomic.Int64
}

// New creates a local-only bus
func New() *PubSub {
	return &PubSub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// NewWithUpstream creates a bus whose publishes travel through upstream.
// Everything arriving from upstream, including our own publishes, is delivered locally.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := New()
	ps.upstream = upstream

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: upstream channel closed")
	}()

	return ps
}

// Subscribe registers a new subscriber
func (ps *PubSub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)

	ps.mu.Lock()
	ps.subscribers[ch] = struct{}{}
	n := len(ps.subscribers)
	ps.mu.Unlock()

	logger.Debug("PubSub: subscriber added", "total_subscribers", n)
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, ok := ps.subscribers[ch]; !ok {
		return
	}
	delete(ps.subscribers, ch)
	close(ch)
}

// Publish sends event upstream when one is configured, otherwise locally
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.publishLocal(event)
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (ps *PubSub) Dropped() int64 {
	return ps.dropped.Load()
}

func (ps *PubSub) publishLocal(event Event) {
	// Hold the read lock while sending so Unsubscribe cannot close a channel mid-send.
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for ch := range ps.subscribers {
		select {
		case ch <- event:
		default:
			ps.dropped.Add(1)
			logger.Warn("PubSub: skipping slow subscriber", "event_type", event.Type)
		}
	}
}
