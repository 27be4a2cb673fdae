package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/sphere-relay/backend/internal/model/message"
)

// RedisStore keeps the snapshot as a JSON array under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, errors.New("REDIS_URL is required for the redis snapshot backend")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisStore(client, key), nil
}

func newRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "sphere-relay:messages"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Load(ctx context.Context) ([]message.Message, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var msgs []message.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: redis key %s: %v", ErrCorrupt, s.key, err)
	}
	return msgs, nil
}

// Save overwrites the key. The key expires one lifetime after the last write,
// when every message it holds is dead anyway.
func (s *RedisStore) Save(ctx context.Context, msgs []message.Message) error {
	if msgs == nil {
		msgs = []message.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("redis snapshot marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, message.Lifetime).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
