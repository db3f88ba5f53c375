package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/config"
	"github.com/balitek/villabot/internal/metrics"
)

// RedisStore keeps proposals in Redis with a server-side TTL. Used when
// redis.addr is configured; lets several bot replicas share one staging
// area.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

func (s *RedisStore) key(sessionID, token string) string {
	return fmt.Sprintf("proposal:%s:%s", sessionID, token)
}

func (s *RedisStore) Put(ctx context.Context, p *Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(p.SessionID, p.Token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	metrics.ProposalsStaged.Inc()
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID, token string) (*Proposal, error) {
	data, err := s.client.Get(ctx, s.key(sessionID, token)).Bytes()
	if err == redis.Nil {
		return nil, ErrProposalNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	var p Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Remove(ctx context.Context, sessionID, token string) error {
	n, err := s.client.Del(ctx, s.key(sessionID, token)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	if n == 0 {
		return ErrProposalNotFound
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
