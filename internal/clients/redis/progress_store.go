package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// ProgressStore keeps generation progress in Redis so every API replica
// can answer progress lookups.
type ProgressStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ bookgen.ProgressTracker = (*ProgressStore)(nil)

func NewProgressStore(log *logger.Logger, cfg Config) (*ProgressStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newProgressStore(log, rdb, cfg), nil
}

func newProgressStore(log *logger.Logger, rdb *goredis.Client, cfg Config) *ProgressStore {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "storybook:generation:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = bookgen.DefaultProgressTTL
	}
	return &ProgressStore{
		log:    log.With("service", "RedisProgressStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *ProgressStore) key(userID uuid.UUID, requestID string) string {
	return s.prefix + bookgen.ProgressKey(userID, requestID)
}

func (s *ProgressStore) Record(ctx context.Context, p bookgen.Progress) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis progress store not initialized")
	}
	if strings.TrimSpace(p.RequestID) == "" {
		return domain.NewError(domain.CodeInvalidInput, "redis.ProgressStore.Record", "request id is required", nil)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(p.UserID, p.RequestID), raw, s.ttl).Err()
}

func (s *ProgressStore) Get(ctx context.Context, userID uuid.UUID, requestID string) (*bookgen.Progress, error) {
	const op = "redis.ProgressStore.Get"
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis progress store not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.key(userID, requestID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.NewError(domain.CodeNotFound, op, "Generation not found.", nil)
	}
	if err != nil {
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	var p bookgen.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	return &p, nil
}

func (s *ProgressStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
