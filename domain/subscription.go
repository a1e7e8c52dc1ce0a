package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Subscription represents a self-referential many-to-many relationship between two users.
// The SubscriberID is the user that subscribes, the ChannelID is the user being subscribed to.
type Subscription struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	ChannelID    string `json:"channel" gorm:"notNull;size:36;uniqueIndex:idx_subscriptions_pair;index"`
	SubscriberID string `json:"subscriber" gorm:"notNull;size:36;uniqueIndex:idx_subscriptions_pair;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	s.ID = newID(s.ID)
	return nil
}

// SubscriberView is one subscriber of a channel.
type SubscriberView struct {
	Subscriber       Owner `json:"subscriber"`
	SubscribersCount int64 `json:"subscribersCount"`
	// SubscribedBack is true when the channel also subscribes to this subscriber.
	SubscribedBack bool `json:"subscribedToSubscriber"`
}

// ChannelView is one channel a user subscribes to.
type ChannelView struct {
	Channel          Owner      `json:"channel"`
	SubscribersCount int64      `json:"subscribersCount"`
	LatestVideo      *VideoView `json:"latestVideo"`
}

// SubscriptionService is a set of methods to manipulate and work with the Subscription model.
type SubscriptionService interface {
	Toggle(ctx context.Context, channelID, subscriberID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]SubscriberView, error)
	Channels(ctx context.Context, subscriberID string) ([]ChannelView, error)
}
