package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/lostbyte/mainhero/internal/logger"
)

// NATSUpstream relays bus events over a core NATS subject so several panel
// processes attached to the same host observe each other's changes
type NATSUpstream struct {
	nc          *nats.Conn
	sub         *nats.Subscription
	subject     string
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewNATSUpstream subscribes to subject on nc
func NewNATSUpstream(nc *nats.Conn, subject string) (*NATSUpstream, error) {
	u := &NATSUpstream{
		nc:      nc,
		subject: subject,
	}

	sub, err := nc.Subscribe(subject, u.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	// Make sure the subscription is registered before the first publish.
	if err := nc.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush subscription: %w", err)
	}
	u.sub = sub

	return u, nil
}

func (u *NATSUpstream) handle(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal event from NATS", "error", err, "subject", msg.Subject)
		return
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, ch := range u.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("NATS: skipping slow subscriber", "event_type", event.Type)
		}
	}
}

// Publish sends an event to the subject
func (u *NATSUpstream) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}
	if err := u.nc.Publish(u.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", u.subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", u.subject)
}

// Subscribe creates a subscription channel for events
func (u *NATSUpstream) Subscribe() chan Event {
	ch := make(chan Event, 100)

	u.mu.Lock()
	u.subscribers = append(u.subscribers, ch)
	u.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription channel
func (u *NATSUpstream) Unsubscribe(ch chan Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i, sub := range u.subscribers {
		if sub == ch {
			u.subscribers = append(u.subscribers[:i], u.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close drops the NATS subscription and closes every local channel.
// The connection itself belongs to the caller.
func (u *NATSUpstream) Close() {
	if u.sub != nil {
		u.sub.Unsubscribe()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, ch := range u.subscribers {
		close(ch)
	}
	u.subscribers = nil
}
