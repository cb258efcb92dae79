// Package events announces engine output over Redis pub/sub so connected
// clients can refresh without polling. Delivery is fire-and-forget and
// at-least-once; consumers deduplicate on the payload IDs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/config"
	"github.com/taskdeck/core/internal/ports"
)

const (
	eventNotificationCreated = "notification.created"
	eventTaskSpawned         = "task.spawned"
)

// Event is the wire shape published on the channel.
type Event struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	TaskID     uuid.UUID `json:"task_id"`
	EntityID   uuid.UUID `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisPublisher implements ports.EventPublisher over a single pub/sub
// channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg config.RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

var _ ports.EventPublisher = (*RedisPublisher)(nil)

func (p *RedisPublisher) NotificationCreated(ctx context.Context, n *entities.Notification) error {
	return p.publish(ctx, Event{
		Type:       eventNotificationCreated,
		UserID:     n.UserID,
		TaskID:     n.TaskID,
		EntityID:   n.ID,
		OccurredAt: n.CreatedAt,
	})
}

func (p *RedisPublisher) TaskSpawned(ctx context.Context, task *entities.Task) error {
	return p.publish(ctx, Event{
		Type:       eventTaskSpawned,
		UserID:     task.OwnerID,
		TaskID:     task.ID,
		EntityID:   task.ID,
		OccurredAt: task.CreatedAt,
	})
}

func (p *RedisPublisher) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	return nil
}

// Ping checks the Redis connection for health reporting.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
