package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TweetMaxLength is the maximum number of characters (runes) of a tweet's content.
const TweetMaxLength = 280

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	OwnerID string `json:"owner" gorm:"notNull;index;size:36"`
	Content string `json:"content" gorm:"notNull"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tweet) BeforeCreate(tx *gorm.DB) error {
	t.ID = newID(t.ID)
	return nil
}

func (t *Tweet) OwnedBy() string { return t.OwnerID }

// TweetView is a tweet with its owner, its like count and whether the viewer likes it.
type TweetView struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Owner      *Owner    `json:"owner"`
	LikesCount int64     `json:"likesCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TweetService is a set of methods to manipulate and work with the Tweet model.
type TweetService interface {
	Create(ctx context.Context, tweet *Tweet) error
	ByUser(ctx context.Context, userID, viewerID string) ([]TweetView, error)
	Update(ctx context.Context, id, callerID, content string) (*Tweet, error)
	Delete(ctx context.Context, id, callerID string) error
}
