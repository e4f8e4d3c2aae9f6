package eventbus

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// EventBus interface for event publication and subscription
type EventBusInterface interface {
	Publish(topic string, data interface{}) error
	Subscribe(topic string, handler func([]byte))
	Close() error
	GetSubscriberCount(topic string) int
	Health() map[string]interface{}
}

// EventBus is the in-memory fallback used when no Redis address is
// configured, or when the Redis connection attempt in
// NewEventBusWithRedis fails. Events published here are lost on restart;
// the coordinator's own relational writes (winners, match status,
// balance projections) are the durable record of what happened, so this
// is acceptable for the tick/settlement notifications it carries.
type EventBus struct {
	subscribers map[string][]chan []byte
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus() *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	log.Println("[EVENTBUS] initialized in-memory bus")
	return &EventBus{
		subscribers: make(map[string][]chan []byte),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// NewEventBusWithRedis builds the Redis-backed bus the coordinator and
// settlement-audit subscriber run on in production, so tick.completed and
// match.settled events reach every process subscribed to them rather than
// only the one that published them. Falls back to the in-memory bus if no
// address is configured or the Redis connection attempt fails.
func NewEventBusWithRedis(redisURL string) EventBusInterface {
	if redisURL == "" {
		return NewEventBus()
	}
	redisEB, err := NewRedisEventBus(redisURL)
	if err != nil {
		log.Printf("[EVENTBUS] redis connection failed, falling back to in-memory bus: %v", err)
		return NewEventBus()
	}
	return redisEB
}

// Publish marshals data (a TickCompletedEvent, MatchSettledEvent, or
// ParticipantJoinedEvent) and fans it out to every subscriber of topic,
// dropping delivery to any subscriber that doesn't drain within 100ms
// rather than block the coordinator's tick loop.
func (eb *EventBus) Publish(topic string, data interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[EVENTBUS] marshal failed for topic %s: %v", topic, err)
		return err
	}

	subscribers, exists := eb.subscribers[topic]
	if !exists || len(subscribers) == 0 {
		return nil
	}

	for _, ch := range subscribers {
		select {
		case ch <- jsonData:
		case <-time.After(100 * time.Millisecond):
			log.Printf("[EVENTBUS] subscriber for topic %s is slow, dropping delivery", topic)
		case <-eb.ctx.Done():
			return eb.ctx.Err()
		}
	}

	return nil
}

// Subscribe registers handler against topic; SubscribeLeaderboard and
// SettlementAuditSubscriber each call this once per event type at startup.
func (eb *EventBus) Subscribe(topic string, handler func([]byte)) {
	eb.mu.Lock()

	ch := make(chan []byte, 100)
	eb.subscribers[topic] = append(eb.subscribers[topic], ch)
	eb.mu.Unlock()

	go func() {
		for {
			select {
			case msg := <-ch:
				handler(msg)
			case <-eb.ctx.Done():
				return
			}
		}
	}()
}

// Close shuts down the bus and every subscriber channel.
func (eb *EventBus) Close() error {
	eb.cancel()

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, subscribers := range eb.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
	}
	eb.subscribers = make(map[string][]chan []byte)
	return nil
}

// GetSubscriberCount returns the number of subscribers for a topic, used
// by the /health endpoint to report leaderboard fan-out.
func (eb *EventBus) GetSubscriberCount(topic string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[topic])
}

// Health reports the bus's backing store and subscriber counts for the
// /health endpoint.
func (eb *EventBus) Health() map[string]interface{} {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	totalSubscribers := 0
	for _, subscribers := range eb.subscribers {
		totalSubscribers += len(subscribers)
	}

	return map[string]interface{}{
		"type":              "in-memory",
		"topics":            len(eb.subscribers),
		"total_subscribers": totalSubscribers,
	}
}
