package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Video is an uploaded video. VideoFile and Thumbnail are URIs of media
// that has already been hosted by a storage backend.
type Video struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string  `json:"owner" gorm:"notNull;index;size:36"`
	VideoFile   string  `json:"videoFile" gorm:"notNull"`
	Thumbnail   string  `json:"thumbnail" gorm:"notNull"`
	Title       string  `json:"title" gorm:"notNull"`
	Description string  `json:"description" gorm:"notNull"`
	Duration    float64 `json:"duration"`
	Views       int64   `json:"views" gorm:"notNull;default:0"`
	IsPublished bool    `json:"isPublished" gorm:"notNull;default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	v.ID = newID(v.ID)
	return nil
}

func (v *Video) OwnedBy() string { return v.OwnerID }

// VideoView is a video as listed to clients, with its owner joined on.
type VideoView struct {
	ID          string    `json:"id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	Owner       *Owner    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoDetail is a single video page: the video, its like state and its
// channel's subscription state, all relative to the viewer.
type VideoDetail struct {
	VideoView
	LikesCount       int64 `json:"likesCount"`
	IsLiked          bool  `json:"isLiked"`
	SubscribersCount int64 `json:"subscribersCount"`
	IsSubscribed     bool  `json:"isSubscribed"`
}

// VideoFilter narrows and orders a video listing.
type VideoFilter struct {
	Page
	Query    string
	SortBy   string
	SortType string // "asc" or "desc", descending when empty
	UserID   string
}

// VideoUpdate holds the fields an owner may change on a video.
type VideoUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
}

// VideoService is a set of methods to manipulate and work with the Video model.
type VideoService interface {
	Publish(ctx context.Context, video *Video) error
	ByID(ctx context.Context, id string) (*Video, error)
	View(ctx context.Context, id, viewerID string) (*VideoDetail, error)
	List(ctx context.Context, filter VideoFilter) (*Paginated[VideoView], error)
	Update(ctx context.Context, id, callerID string, upd VideoUpdate) (*Video, error)
	Delete(ctx context.Context, id, callerID string) error
	TogglePublish(ctx context.Context, id, callerID string) (*Video, error)
}
