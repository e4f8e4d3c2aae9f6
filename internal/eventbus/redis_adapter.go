package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEventBus is the production bus: tick.completed and match.settled
// publish through Redis pub/sub so every process subscribed via
// SubscribeLeaderboard or SettlementAuditSubscriber sees them, not just
// the coordinator's own process.
type RedisEventBus struct {
	client      *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
	subscribers map[string][]chan []byte
	mu          sync.RWMutex
	closed      bool
	pubsub      *redis.PubSub
}

// NewRedisEventBus dials redisURL, pings it once to fail fast, and starts
// the background receive loop.
func NewRedisEventBus(redisURL string) (*RedisEventBus, error) {
	opts, err := redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Printf("[EVENTBUS] connected to redis at %s", redisURL)

	appCtx, appCancel := context.WithCancel(context.Background())
	eb := &RedisEventBus{
		client:      client,
		ctx:         appCtx,
		cancel:      appCancel,
		subscribers: make(map[string][]chan []byte),
		pubsub:      client.Subscribe(appCtx),
	}

	go eb.receiveMessages()

	return eb, nil
}

// Publish marshals data and publishes it to the Redis topic.
func (eb *RedisEventBus) Publish(topic string, data interface{}) error {
	eb.mu.RLock()
	if eb.closed {
		eb.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	eb.mu.RUnlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if err := eb.client.Publish(eb.ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe registers handler against topic, subscribing to the
// underlying Redis channel the first time a topic gets a subscriber.
func (eb *RedisEventBus) Subscribe(topic string, handler func([]byte)) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		log.Printf("[EVENTBUS] cannot subscribe to %s: bus is closed", topic)
		return
	}

	ch := make(chan []byte, 100)
	eb.subscribers[topic] = append(eb.subscribers[topic], ch)

	if len(eb.subscribers[topic]) == 1 {
		if err := eb.pubsub.Subscribe(eb.ctx, topic); err != nil {
			log.Printf("[EVENTBUS] redis subscribe failed for topic %s: %v", topic, err)
			return
		}
	}

	go func() {
		for data := range ch {
			handler(data)
		}
	}()
}

// receiveMessages fans Redis pub/sub deliveries out to the local
// per-topic subscriber channels registered via Subscribe.
func (eb *RedisEventBus) receiveMessages() {
	ch := eb.pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				continue
			}

			eb.mu.RLock()
			handlers, ok := eb.subscribers[msg.Channel]
			eb.mu.RUnlock()

			if !ok {
				continue
			}

			payload := []byte(msg.Payload)
			for _, handler := range handlers {
				select {
				case handler <- payload:
				default:
					log.Printf("[EVENTBUS] handler channel full for topic: %s", msg.Channel)
				}
			}

		case <-eb.ctx.Done():
			return
		}
	}
}

// Close shuts down the bus, closing every subscriber channel and the
// underlying Redis pubsub and client.
func (eb *RedisEventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return nil
	}

	eb.closed = true
	eb.cancel()

	for _, handlers := range eb.subscribers {
		for _, ch := range handlers {
			close(ch)
		}
	}

	if err := eb.pubsub.Close(); err != nil {
		log.Printf("[EVENTBUS] error closing redis pubsub: %v", err)
	}
	if err := eb.client.Close(); err != nil {
		log.Printf("[EVENTBUS] error closing redis client: %v", err)
	}
	return nil
}

// GetSubscriberCount returns the number of local subscribers for a topic.
func (eb *RedisEventBus) GetSubscriberCount(topic string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[topic])
}

// Health reports the bus's backing store and subscriber counts for the
// /health endpoint.
func (eb *RedisEventBus) Health() map[string]interface{} {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	totalSubscribers := 0
	for _, handlers := range eb.subscribers {
		totalSubscribers += len(handlers)
	}

	return map[string]interface{}{
		"type":              "redis",
		"topics":            len(eb.subscribers),
		"total_subscribers": totalSubscribers,
	}
}
