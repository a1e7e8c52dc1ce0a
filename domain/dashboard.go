package domain

import (
	"context"
	"time"
)

// ChannelStats are the totals of a channel. Missing data counts as zero.
type ChannelStats struct {
	SubscriberCount int64 `json:"subscriberCount"`
	TotalLikes      int64 `json:"totalLikes"`
	TotalViews      int64 `json:"totalViews"`
	TotalVideoCount int64 `json:"totalVideoCount"`
}

// DashboardVideo is a video as its owner sees it on the dashboard.
type DashboardVideo struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Thumbnail     string    `json:"thumbnail"`
	Views         int64     `json:"views"`
	IsPublished   bool      `json:"isPublished"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DashboardService computes channel-owner scoped aggregates.
type DashboardService interface {
	Stats(ctx context.Context, ownerID string) (*ChannelStats, error)
	Videos(ctx context.Context, ownerID string) ([]DashboardVideo, error)
}
