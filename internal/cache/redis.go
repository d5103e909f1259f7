// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list carrying game messages to the historian.
const DefaultQueueName = "beergame_rounds"

// GameMessage is one entry of the queue. Record is set for round_resolved messages.
type GameMessage struct {
	Type      game.GameEventType `json:"type"`
	GameID    uuid.UUID          `json:"game_id"`
	RoomCode  string             `json:"room_code"`
	Round     int                `json:"round"`
	Record    *game.RoundRecord  `json:"record,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// Archived reports whether events of type t belong on the queue. Joins, submissions and
// settings edits stay in memory.
func Archived(t game.GameEventType) bool {
	switch t {
	case game.EventGameStarted, game.EventRoundResolved, game.EventGameCompleted, game.EventGameReset:
		return true
	}
	return false
}

// MessageFromEvent converts a session event into a queue message.
func MessageFromEvent(ev game.GameEvent) GameMessage {
	return GameMessage{
		Type:      ev.Type,
		GameID:    ev.GameID,
		RoomCode:  ev.RoomCode,
		Round:     ev.Round,
		Record:    ev.Record,
		Timestamp: ev.Timestamp,
	}
}

// Connect opens a client to addr and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes game messages onto a Redis list. A nil Publisher drops everything, so
// the server runs unchanged without Redis.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// NewPublisher returns a publisher writing to queue.
func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Publish serializes msg and appends it to the queue.
func (p *Publisher) Publish(ctx context.Context, msg GameMessage) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal GameMessage: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Consumer pops game messages off the same list.
type Consumer struct {
	rdb   *redis.Client
	queue string
}

// NewConsumer returns a consumer reading queue.
func NewConsumer(rdb *redis.Client, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop waits up to timeout for the next message. ok is false when the wait timed out.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (msg GameMessage, ok bool, err error) {
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return msg, false, nil
	}
	if err != nil {
		return msg, false, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return msg, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return msg, false, fmt.Errorf("invalid game message: %w", err)
	}
	return msg, true, nil
}
