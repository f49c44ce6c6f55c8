package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/lostbyte/mainhero/internal/logger"
)

func init() {
	// Initialize logger for tests
	logger.Init("error")
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	if ps.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", ps.SubscriberCount())
	}

	ps.Unsubscribe(ch1)
	if ps.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber after unsubscribe, got %d", ps.SubscriberCount())
	}

	// Verify channel is closed
	select {
	case _, ok := <-ch1:
		if ok {
			t.Error("channel should be closed after unsubscribe")
		}
	default:
		t.Error("channel should be closed and readable")
	}

	ps.Publish(Event{Type: EventCollectionChanged})
	select {
	case <-ch2:
		// ok
	case <-time.After(100 * time.Millisecond):
		t.Error("remaining subscriber should have received event")
	}
}

func TestUnsubscribeUnknownChannel(t *testing.T) {
	ps := New()
	ch := make(chan Event, 1)

	// Should not panic or close a channel it does not own
	ps.Unsubscribe(ch)

	select {
	case ch <- Event{Type: "still-open"}:
	default:
		t.Error("foreign channel should remain open")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	ps := New()

	// Should not panic
	ps.Publish(Event{Type: EventThemeChanged})
}

func TestPublishPayload(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	ps.Publish(Event{
		Type:    EventCharacterSelected,
		Payload: map[string]any{"characterId": "abc"},
	})

	select {
	case received := <-ch:
		if received.Type != EventCharacterSelected {
			t.Errorf("expected type %s, got %s", EventCharacterSelected, received.Type)
		}
		if received.Payload["characterId"] != "abc" {
			t.Error("payload mismatch")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		ps.Publish(Event{Type: "fill"})
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("expected %d buffered events, got %d", subscriberBuffer, len(ch))
	}
	if ps.Dropped() != 5 {
		t.Errorf("expected 5 dropped deliveries, got %d", ps.Dropped())
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	ps := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := ps.Subscribe()
			time.Sleep(time.Millisecond)
			ps.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			ps.Publish(Event{Type: "concurrent"})
		}()
	}
	wg.Wait()

	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", ps.SubscriberCount())
	}
}

// loopbackUpstream echoes every publish to its subscribers
type loopbackUpstream struct {
	mu          sync.Mutex
	published   []Event
	subscribers []chan Event
}

func (m *loopbackUpstream) Publish(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (m *loopbackUpstream) Subscribe() chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Event, 100)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *loopbackUpstream) Unsubscribe(ch chan Event) {}

func (m *loopbackUpstream) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func TestPublishWithUpstream(t *testing.T) {
	upstream := &loopbackUpstream{}
	ps := NewWithUpstream(upstream)
	ch := ps.Subscribe()

	ps.Publish(Event{Type: EventCollectionChanged})

	select {
	case received := <-ch:
		if received.Type != EventCollectionChanged {
			t.Errorf("unexpected type %s", received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event from upstream")
	}
	if upstream.count() != 1 {
		t.Errorf("expected 1 upstream publish, got %d", upstream.count())
	}
}
