// Package sequence provides the Redis-backed order number counter.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterTTL keeps a month's counter around well past the month itself.
const counterTTL = 400 * 24 * time.Hour

// incrScript increments the counter and sets its expiry on first use.
// KEYS[1] = counter key
// ARGV[1] = ttl in seconds
var incrScript = redis.NewScript(`
local value = redis.call("INCR", KEYS[1])
if value == 1 then
    redis.call("EXPIRE", KEYS[1], tonumber(ARGV[1]))
end
return value
`)

// RedisSequencer implements orders.Sequencer with a Redis INCR per prefix.
type RedisSequencer struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisSequencer(client redis.UniversalClient) *RedisSequencer {
	return &RedisSequencer{client: client, keyPrefix: "habitta:order_seq:"}
}

// NewRedisClient builds the client used by the sequencer.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisSequencer) key(prefix string) string {
	return s.keyPrefix + prefix
}

func (s *RedisSequencer) Next(ctx context.Context, prefix string) (int64, error) {
	value, err := incrScript.Run(ctx, s.client, []string{s.key(prefix)}, int64(counterTTL/time.Second)).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis sequence %s: %w", prefix, err)
	}
	return value, nil
}

// Ping checks the connection at startup.
func (s *RedisSequencer) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
