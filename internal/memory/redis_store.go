package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // zero keeps records forever
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (r *RedisStore) memoryKey(userID string) string {
	return fmt.Sprintf("memory:%s", userID)
}

func (r *RedisStore) backupKey(userID string) string {
	return r.memoryKey(userID) + backupSuffix
}

func (r *RedisStore) Load(ctx context.Context, userID string) (*models.UserMemory, error) {
	data, err := r.client.Get(ctx, r.memoryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load memory from Redis: %w", err)
	}

	var mem models.UserMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("failed to parse memory data: %w", err)
	}
	return normalize(userID, &mem), nil
}

// Save copies the current value to the backup key and writes the new one
// in a single MULTI/EXEC.
func (r *RedisStore) Save(ctx context.Context, userID string, mem *models.UserMemory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}

	key := r.memoryKey(userID)
	prev, err := r.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read previous memory: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prev != nil {
			pipe.Set(ctx, r.backupKey(userID), prev, r.ttl)
		}
		pipe.Set(ctx, key, data, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save memory to Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Del(ctx, r.memoryKey(userID), r.backupKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) Size(ctx context.Context, userID string) (int64, error) {
	key := r.memoryKey(userID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check memory existence: %w", err)
	}
	if exists == 0 {
		return 0, ErrNotFound
	}
	n, err := r.client.StrLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read memory size: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping verifies the Redis connection is alive
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
