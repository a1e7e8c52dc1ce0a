package crud

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"videotube/domain"
	"videotube/errs"
	"videotube/events"
	"videotube/query"
)

// SubscriptionService manages Subscriptions.
// It implements the domain.SubscriptionService interface.
type SubscriptionService struct {
	subscriptionValidator
	events events.Publisher
}

type subscriptionValidator struct {
	subscriptionGorm
}

type subscriptionGorm struct {
	db *gorm.DB
}

// NewSubscriptionService returns an instance of SubscriptionService.
func NewSubscriptionService(db *gorm.DB, pub events.Publisher) *SubscriptionService {
	return &SubscriptionService{
		subscriptionValidator: subscriptionValidator{
			subscriptionGorm{
				db: db,
			},
		},
		events: pub,
	}
}

var _ domain.SubscriptionService = &SubscriptionService{}

// Toggle subscribes the subscriber to the channel, or unsubscribes them if
// they already are. It reports whether they are subscribed afterwards.
func (ss *SubscriptionService) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	subscribed, err := ss.subscriptionValidator.Toggle(ctx, channelID, subscriberID)
	if err != nil {
		return false, err
	}
	publish(ctx, ss.events, events.New(events.SubscriptionToggled, subscriberID, channelID, map[string]string{
		"subscribed": strconv.FormatBool(subscribed),
	}))
	return subscribed, nil
}

func (sv *subscriptionValidator) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	if !domain.ValidID(subscriberID) {
		return false, errs.UserIdValid
	}
	if channelID == subscriberID {
		return false, errs.Errorf(errs.EINVALID, "You cannot subscribe to your own channel.")
	}
	if err := exists(ctx, sv.db, "users", channelID, "channel"); err != nil {
		return false, err
	}
	return sv.subscriptionGorm.Toggle(ctx, channelID, subscriberID)
}

// Subscribers lists the users subscribed to the channel.
func (sv *subscriptionValidator) Subscribers(ctx context.Context, channelID string) ([]domain.SubscriberView, error) {
	if err := exists(ctx, sv.db, "users", channelID, "channel"); err != nil {
		return nil, err
	}
	return sv.subscriptionGorm.Subscribers(ctx, channelID)
}

// Channels lists the channels the user is subscribed to.
func (sv *subscriptionValidator) Channels(ctx context.Context, subscriberID string) ([]domain.ChannelView, error) {
	if err := exists(ctx, sv.db, "users", subscriberID, "user"); err != nil {
		return nil, err
	}
	return sv.subscriptionGorm.Channels(ctx, subscriberID)
}

// Toggle works like likeGorm.Toggle over the (channel_id, subscriber_id) unique index.
func (sg *subscriptionGorm) Toggle(ctx context.Context, channelID, subscriberID string) (bool, error) {
	subscribed := false
	err := sg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("channel_id = ? AND subscriber_id = ?", channelID, subscriberID).
			Delete(&domain.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		sub := domain.Subscription{ChannelID: channelID, SubscriberID: subscriberID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).Error; err != nil {
			return err
		}
		subscribed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

type subscriberRow struct {
	Subscriber       ownerRow `gorm:"embedded;embeddedPrefix:subscriber_"`
	SubscribersCount int64
	SubscribedBack   bool
}

func (sg *subscriptionGorm) Subscribers(ctx context.Context, channelID string) ([]domain.SubscriberView, error) {
	var rows []subscriberRow
	err := query.From("subscriptions").
		Match("subscriptions.channel_id = ?", channelID).
		Lookup("subscriber", query.Relation{Table: "users", ForeignKey: "id", LocalKey: "subscriber_id"}, ownerFields...).
		Count("subscribers_count", subscriptionsOf("subscriber_id")).
		Contains("subscribed_back", subscriptionsOf("subscriber_id"), "subscriber_id", channelID).
		Match("subscriber.id IS NOT NULL").
		Sort("subscriptions.created_at", true).
		All(ctx, sg.db, &rows)
	if err != nil {
		return nil, err
	}
	views := make([]domain.SubscriberView, len(rows))
	for i, r := range rows {
		views[i] = domain.SubscriberView{
			Subscriber:       *r.Subscriber.owner(),
			SubscribersCount: r.SubscribersCount,
			SubscribedBack:   r.SubscribedBack,
		}
	}
	return views, nil
}

type channelRow struct {
	Channel          ownerRow `gorm:"embedded;embeddedPrefix:channel_"`
	SubscribersCount int64
}

// latestPublished keeps a video only if it is the newest published video of its owner.
const latestPublished = `videos.id = (SELECT lv.id FROM videos AS lv
	WHERE lv.owner_id = videos.owner_id AND lv.is_published = ?
	ORDER BY lv.created_at DESC, lv.id DESC LIMIT 1)`

// Channels composes the subscribed channels, then looks up the latest
// published video of each of them in one more query, one row per channel.
func (sg *subscriptionGorm) Channels(ctx context.Context, subscriberID string) ([]domain.ChannelView, error) {
	var rows []channelRow
	err := query.From("subscriptions").
		Match("subscriptions.subscriber_id = ?", subscriberID).
		Lookup("channel", query.Relation{Table: "users", ForeignKey: "id", LocalKey: "channel_id"}, ownerFields...).
		Count("subscribers_count", subscriptionsOf("channel_id")).
		Match("channel.id IS NOT NULL").
		Sort("subscriptions.created_at", true).
		All(ctx, sg.db, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.ChannelView{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = *r.Channel.ID
	}
	var videos []ownedVideoRow
	err = videoPipeline().
		Match("videos.owner_id IN ?", ids).
		Match(latestPublished, true).
		All(ctx, sg.db, &videos)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]domain.VideoView, len(rows))
	for _, v := range videos {
		if v.Owner.ID == nil {
			continue
		}
		latest[*v.Owner.ID] = v.view()
	}

	views := make([]domain.ChannelView, len(rows))
	for i, r := range rows {
		views[i] = domain.ChannelView{
			Channel:          *r.Channel.owner(),
			SubscribersCount: r.SubscribersCount,
		}
		if v, ok := latest[*r.Channel.ID]; ok {
			v := v
			views[i].LatestVideo = &v
		}
	}
	return views, nil
}
