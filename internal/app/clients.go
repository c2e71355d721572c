package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/storybook-backend/internal/bookgen"
	"github.com/yungbote/storybook-backend/internal/clients/redis"
	"github.com/yungbote/storybook-backend/internal/platform/gcp"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI    openai.Client
	Bucket    gcp.BucketService
	Progress  bookgen.ProgressTracker
	Redis     *redis.ProgressStore
	AssetHTTP *http.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	openaiClient, err := openai.NewClient(log, openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		ImageModel: cfg.OpenAIImageModel,
		ImageSize:  cfg.OpenAIImageSize,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	out := Clients{
		OpenAI:    openaiClient,
		Bucket:    bucket,
		AssetHTTP: &http.Client{Timeout: 60 * time.Second},
	}

	// Redis is optional; without it progress lives in this process only.
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		store, err := redis.NewProgressStore(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ProgressTTL,
		})
		if err != nil {
			_ = bucket.Close()
			return Clients{}, fmt.Errorf("init redis progress store: %w", err)
		}
		out.Redis = store
		out.Progress = store
	} else {
		out.Progress = bookgen.NewMemoryProgress(cfg.ProgressTTL)
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
}
