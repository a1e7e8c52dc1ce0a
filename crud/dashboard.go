package crud

import (
	"context"

	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
	"videotube/query"
)

// StatsCache caches channel statistics. It is implemented by cache.Stats.
type StatsCache interface {
	Get(ctx context.Context, channelID string) (*domain.ChannelStats, bool)
	Set(ctx context.Context, channelID string, stats *domain.ChannelStats)
}

// DashboardService computes the aggregates a channel owner sees on their dashboard.
// It implements the domain.DashboardService interface.
type DashboardService struct {
	db    *gorm.DB
	cache StatsCache
}

// NewDashboardService returns an instance of DashboardService. cache may be nil.
func NewDashboardService(db *gorm.DB, cache StatsCache) *DashboardService {
	return &DashboardService{db: db, cache: cache}
}

var _ domain.DashboardService = &DashboardService{}

// Stats runs two aggregations: the subscriptions of the channel, and the
// videos of the owner with their likes. A channel without either gets zeros.
func (ds *DashboardService) Stats(ctx context.Context, ownerID string) (*domain.ChannelStats, error) {
	if !domain.ValidID(ownerID) {
		return nil, errs.UserIdValid
	}
	if ds.cache != nil {
		if stats, ok := ds.cache.Get(ctx, ownerID); ok {
			return stats, nil
		}
	}

	var stats domain.ChannelStats
	err := ds.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("channel_id = ?", ownerID).
		Count(&stats.SubscriberCount).Error
	if err != nil {
		return nil, err
	}

	var totals struct {
		TotalLikes      int64
		TotalViews      int64
		TotalVideoCount int64
	}
	err = query.From("videos").
		Match("videos.owner_id = ?", ownerID).
		Project("views").
		Count("likes_count", likesOf(domain.KindVideo)).
		Aggregate(ctx, ds.db, &totals,
			"COALESCE(SUM(agg.likes_count), 0) AS total_likes",
			"COALESCE(SUM(agg.views), 0) AS total_views",
			"COUNT(*) AS total_video_count")
	if err != nil {
		return nil, err
	}
	stats.TotalLikes = totals.TotalLikes
	stats.TotalViews = totals.TotalViews
	stats.TotalVideoCount = totals.TotalVideoCount

	if ds.cache != nil {
		ds.cache.Set(ctx, ownerID, &stats)
	}
	return &stats, nil
}

// Videos lists every video of the owner, published or not, newest first.
func (ds *DashboardService) Videos(ctx context.Context, ownerID string) ([]domain.DashboardVideo, error) {
	if !domain.ValidID(ownerID) {
		return nil, errs.UserIdValid
	}
	videos := []domain.DashboardVideo{}
	err := query.From("videos").
		Match("videos.owner_id = ?", ownerID).
		Project("id", "title", "description", "thumbnail", "views", "is_published", "created_at").
		Count("likes_count", likesOf(domain.KindVideo)).
		Count("comments_count", query.Relation{Table: "comments", ForeignKey: "video_id", LocalKey: "id"}).
		Sort("videos.created_at", true).
		All(ctx, ds.db, &videos)
	if err != nil {
		return nil, err
	}
	return videos, nil
}
