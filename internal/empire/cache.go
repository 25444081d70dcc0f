package empire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "empires-server/internal/shared/errors"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "empires:summary:"

// SummaryCache holds the summaries published by the last tick. With a nil
// redis client it keeps them in process memory.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	memory map[int]Summary
}

func NewSummaryCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "summary_cache", "redis", client != nil),
		memory: make(map[int]Summary),
	}
}

func summaryKey(id int) string {
	return fmt.Sprintf("%s%d", summaryKeyPrefix, id)
}

// Publish stores every summary in one round trip.
func (c *SummaryCache) Publish(ctx context.Context, summaries []Summary) error {
	if c.client == nil {
		c.mu.Lock()
		for _, s := range summaries {
			c.memory[s.ID] = s
		}
		c.mu.Unlock()
		return nil
	}

	pipe := c.client.Pipeline()
	for _, s := range summaries {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		pipe.Set(ctx, summaryKey(s.ID), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Failed to publish summaries", "operation", "publish", "count", len(summaries), "error", err)
		return apperrors.WrapExternal("failed to publish summaries", err)
	}
	return nil
}

func (c *SummaryCache) Get(ctx context.Context, id int) (Summary, error) {
	if c.client == nil {
		c.mu.RLock()
		s, ok := c.memory[id]
		c.mu.RUnlock()
		if !ok {
			return Summary{}, apperrors.NotFoundf("no summary cached for empire %d", id)
		}
		return s, nil
	}

	data, err := c.client.Get(ctx, summaryKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, apperrors.NotFoundf("no summary cached for empire %d", id)
	}
	if err != nil {
		c.logger.Error("Failed to read summary", "operation", "get", "empire_id", id, "error", err)
		return Summary{}, apperrors.WrapExternal("failed to read summary", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return s, nil
}
