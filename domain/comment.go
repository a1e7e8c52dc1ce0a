package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Comment is a text reply on a video.
type Comment struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	OwnerID string `json:"owner" gorm:"notNull;index;size:36"`
	VideoID string `json:"video" gorm:"notNull;index;size:36"`
	Content string `json:"content" gorm:"notNull"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	c.ID = newID(c.ID)
	return nil
}

func (c *Comment) OwnedBy() string { return c.OwnerID }

// CommentView is a comment with its owner, its like count and whether the viewer likes it.
type CommentView struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video"`
	Content    string    `json:"content"`
	Owner      *Owner    `json:"owner"`
	LikesCount int64     `json:"likesCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	Create(ctx context.Context, comment *Comment) error
	ByVideo(ctx context.Context, videoID, viewerID string, page Page) (*Paginated[CommentView], error)
	Update(ctx context.Context, id, callerID, content string) (*Comment, error)
	Delete(ctx context.Context, id, callerID string) error
}
