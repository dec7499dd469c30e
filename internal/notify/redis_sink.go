package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list that RedisSink appends to.
const DefaultRedisKey = "mocknotify:entries"

// RedisSink keeps recent entries in a capped Redis list with a TTL, so that
// test harnesses can read back what the user would have been shown.
type RedisSink struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	max    int64
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client, key: DefaultRedisKey, ttl: 5 * time.Minute, max: 100}
}

func (s *RedisSink) Write(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, -s.max, -1)
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store notification in Redis key '%s': %w", s.key, err)
	}
	return nil
}

// ReadRedisEntries returns the entries currently held under key, oldest first.
func ReadRedisEntries(ctx context.Context, client *redis.Client, key string) ([]Entry, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications from Redis key '%s': %w", key, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
