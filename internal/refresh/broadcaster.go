package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Mutation actions carried by events.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionBulkDeleted = "bulk_deleted"
	ActionUploaded    = "uploaded"
)

// Event announces a mutation performed by one console.
type Event struct {
	Source   string    `json:"source"`
	Resource string    `json:"resource"`
	Action   string    `json:"action"`
	IDs      []string  `json:"ids,omitempty"`
	SentAt   time.Time `json:"sentAt"`
}

// Broadcaster publishes mutation events over redis pub/sub and NATS and
// delivers events from other consoles to local handlers. A zero value or
// nil broadcaster is a no-op.
type Broadcaster struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger

	mu       sync.RWMutex
	handlers map[int]func(Event)
	nextID   int
}

// NewBroadcaster wires the given transports. Either may be nil.
func NewBroadcaster(redisClient *redis.Client, channel string, natsConn *nats.Conn, subject string, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		redis:    redisClient,
		channel:  strings.TrimSpace(channel),
		nats:     natsConn,
		subject:  strings.TrimSpace(subject),
		nodeID:   uuid.NewString(),
		logger:   logger.With().Str("component", "mutation_broadcaster").Logger(),
		handlers: map[int]func(Event){},
	}
}

// ConnectNATS dials a NATS server for the broadcaster.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is empty")
	}
	return nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
}

// Source identifies this console in published events.
func (b *Broadcaster) Source() string {
	if b == nil {
		return ""
	}
	return b.nodeID
}

// OnEvent registers a handler for events from other consoles.
func (b *Broadcaster) OnEvent(fn func(Event)) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish announces a mutation on every configured transport.
func (b *Broadcaster) Publish(ctx context.Context, resource, action string, ids ...string) error {
	if b == nil || (b.redis == nil && b.nats == nil) {
		return nil
	}
	payload, err := json.Marshal(Event{
		Source:   b.nodeID,
		Resource: resource,
		Action:   action,
		IDs:      ids,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if b.redis != nil && b.channel != "" {
		if err := b.redis.Publish(ctx, b.channel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.nats != nil && b.subject != "" {
		if err := b.nats.Publish(b.subject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start subscribes to the transports until ctx is done. It returns once
// the subscriptions are established.
func (b *Broadcaster) Start(ctx context.Context) error {
	if b == nil {
		return nil
	}
	if b.redis != nil && b.channel != "" {
		pubsub := b.redis.Subscribe(ctx, b.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return err
		}
		go b.consumeRedis(ctx, pubsub)
	}
	if b.nats != nil && b.subject != "" {
		sub, err := b.nats.Subscribe(b.subject, func(msg *nats.Msg) {
			b.handleEvent(msg.Data)
		})
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			if err := sub.Drain(); err != nil {
				b.logger.Warn().Err(err).Msg("failed to drain mutation nats subscription")
			}
		}()
	}
	return nil
}

func (b *Broadcaster) consumeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer func() { _ = pubsub.Close() }()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			b.logger.Error().Err(err).Msg("mutation redis subscription closed")
			return
		}
		b.handleEvent([]byte(msg.Payload))
	}
}

func (b *Broadcaster) handleEvent(payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid mutation event payload")
		return
	}
	if event.Source == b.nodeID {
		return
	}

	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	b.logger.Debug().Str("resource", event.Resource).Str("action", event.Action).Msg("mutation event received")
	for _, fn := range handlers {
		fn(event)
	}
}
