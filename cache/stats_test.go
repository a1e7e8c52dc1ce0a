package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"videotube/domain"
	"videotube/events"
)

// An unreachable redis must degrade to cache misses.
func TestStatsUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	defer rdb.Close()
	s := NewStats(rdb, time.Minute)
	ctx := context.Background()

	s.Set(ctx, "c1", &domain.ChannelStats{TotalViews: 3})
	stats, ok := s.Get(ctx, "c1")
	assert.False(t, ok)
	assert.Nil(t, stats)
	s.Invalidate(ctx, "c1")
}

func TestChannelOf(t *testing.T) {
	tests := []struct {
		event events.Event
		want  string
	}{
		{events.New(events.VideoPublished, "owner", "video", nil), "owner"},
		{events.New(events.VideoDeleted, "owner", "video", nil), "owner"},
		{events.New(events.SubscriptionToggled, "subscriber", "channel", nil), "channel"},
		{events.New(events.LikeToggled, "user", "video", nil), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, channelOf(tt.event), tt.event.Type)
	}
}

func TestInvalidatingForwards(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	defer rdb.Close()
	rec := &events.Recorder{}
	pub := NewStats(rdb, time.Minute).Invalidating(rec)

	ctx := context.Background()
	assert.NoError(t, pub.Publish(ctx, events.New(events.VideoPublished, "owner", "video", nil)))
	assert.NoError(t, pub.Publish(ctx, events.New(events.LikeToggled, "user", "video", nil)))
	assert.Equal(t, []string{events.VideoPublished, events.LikeToggled}, rec.Types())
	assert.NoError(t, pub.Close())
}
