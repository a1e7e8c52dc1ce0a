// Package cache keeps recently computed channel statistics in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"videotube/domain"
)

const keyPrefix = "videotube:stats:"

// Stats is a read-through cache of domain.ChannelStats. Redis failures are
// logged and treated as misses.
type Stats struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStats returns a Stats cache storing entries for ttl.
func NewStats(rdb *redis.Client, ttl time.Duration) *Stats {
	return &Stats{rdb: rdb, ttl: ttl}
}

// Get returns the cached stats of the channel, if any.
func (s *Stats) Get(ctx context.Context, channelID string) (*domain.ChannelStats, bool) {
	raw, err := s.rdb.Get(ctx, keyPrefix+channelID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "stats cache get failed", "channel", channelID, "error", err)
		}
		return nil, false
	}
	var stats domain.ChannelStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set stores the stats of the channel.
func (s *Stats) Set(ctx context.Context, channelID string, stats *domain.ChannelStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, keyPrefix+channelID, raw, s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "stats cache set failed", "channel", channelID, "error", err)
	}
}

// Invalidate drops the cached stats of the channel.
func (s *Stats) Invalidate(ctx context.Context, channelID string) {
	if err := s.rdb.Del(ctx, keyPrefix+channelID).Err(); err != nil {
		slog.WarnContext(ctx, "stats cache invalidate failed", "channel", channelID, "error", err)
	}
}
