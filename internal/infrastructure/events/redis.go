package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"coachbot/internal/ports/output"
)

// streamMaxLen caps the stream with approximate trimming.
const streamMaxLen = 10000

var _ output.EventPublisher = (*RedisPublisher)(nil)

// Connect parses a redis:// or rediss:// URL and checks the connection.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Println("✅ Redis connected.")
	return rdb, nil
}

// RedisPublisher appends queue events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

// Args builds the XADD arguments for event.
func (p *RedisPublisher) Args(event output.QueueEvent) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: []interface{}{
			"type", string(event.Type),
			"workspace_id", event.WorkspaceID,
			"queue_id", event.QueueID,
			"member_id", event.MemberID,
			"room_id", event.RoomID,
			"at", event.At.UTC().Format(time.RFC3339Nano),
		},
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event output.QueueEvent) error {
	if err := p.client.XAdd(ctx, p.Args(event)).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// NoopPublisher drops every event. Used when REDIS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, output.QueueEvent) error { return nil }
