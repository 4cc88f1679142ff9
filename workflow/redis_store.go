package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoints in Redis, suitable for deployments where
// runs must survive process restarts and be shared across instances.
// Layout: a hash per run keyed by version, plus a latest-version counter.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0 means no expiry
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "careerflow:"
	}
	return &RedisStore{client: client, keyPrefix: prefix + "run:", ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wraps an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "careerflow:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix + "run:"}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) runKey(runID string) string {
	return s.keyPrefix + runID
}

func (s *RedisStore) latestKey(runID string) string {
	return s.keyPrefix + runID + ":latest"
}

func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.runKey(cp.RunID), strconv.Itoa(cp.Version), data)
	pipe.Set(ctx, s.latestKey(cp.RunID), cp.Version, 0)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.runKey(cp.RunID), s.ttl)
		pipe.Expire(ctx, s.latestKey(cp.RunID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadLatest(ctx context.Context, runID string) (*Checkpoint, error) {
	version, err := s.client.Get(ctx, s.latestKey(runID)).Int()
	if err == redis.Nil {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	return s.LoadVersion(ctx, runID, version)
}

func (s *RedisStore) LoadVersion(ctx context.Context, runID string, version int) (*Checkpoint, error) {
	data, err := s.client.HGet(ctx, s.runKey(runID), strconv.Itoa(version)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *RedisStore) ListVersions(ctx context.Context, runID string) ([]*Checkpoint, error) {
	entries, err := s.client.HGetAll(ctx, s.runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	out := make([]*Checkpoint, 0, len(entries))
	for _, data := range entries {
		var cp Checkpoint
		if err := json.Unmarshal([]byte(data), &cp); err != nil {
			return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, runID string) error {
	return s.client.Del(ctx, s.runKey(runID), s.latestKey(runID)).Err()
}
