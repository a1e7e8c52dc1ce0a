package cache

import (
	"context"

	"videotube/events"
)

// Invalidating drops cached channel stats as events that change them are
// published, then hands every event on to next. Likes are left to expire
// with the ttl since their events name the liked record, not its channel.
func (s *Stats) Invalidating(next events.Publisher) events.Publisher {
	return &invalidator{stats: s, next: next}
}

type invalidator struct {
	stats *Stats
	next  events.Publisher
}

func (i *invalidator) Publish(ctx context.Context, e events.Event) error {
	if channel := channelOf(e); channel != "" {
		i.stats.Invalidate(ctx, channel)
	}
	return i.next.Publish(ctx, e)
}

func (i *invalidator) Close() error { return i.next.Close() }

// channelOf returns the channel whose stats e changes, or "".
func channelOf(e events.Event) string {
	switch e.Type {
	case events.VideoPublished, events.VideoDeleted:
		return e.ActorID
	case events.SubscriptionToggled:
		return e.SubjectID
	}
	return ""
}
