package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// LikeKind names the kind of record a Like points at.
type LikeKind string

const (
	KindVideo   LikeKind = "video"
	KindComment LikeKind = "comment"
	KindTweet   LikeKind = "tweet"
)

// LikeTarget is exactly one of a video, a comment or a tweet. It can only be
// built through VideoTarget, CommentTarget or TweetTarget.
type LikeTarget struct {
	kind LikeKind
	id   string
}

func VideoTarget(id string) LikeTarget   { return LikeTarget{kind: KindVideo, id: id} }
func CommentTarget(id string) LikeTarget { return LikeTarget{kind: KindComment, id: id} }
func TweetTarget(id string) LikeTarget   { return LikeTarget{kind: KindTweet, id: id} }

func (t LikeTarget) Kind() LikeKind { return t.kind }
func (t LikeTarget) ID() string     { return t.id }

// Table is the name of the table the target lives in.
func (t LikeTarget) Table() string {
	switch t.kind {
	case KindVideo:
		return "videos"
	case KindComment:
		return "comments"
	case KindTweet:
		return "tweets"
	}
	return ""
}

// Like is the marker record of a user liking a target. Its presence means
// "liked"; there is at most one per (user, target) pair.
type Like struct {
	ID         string   `json:"id" gorm:"primaryKey;size:36"`
	UserID     string   `json:"likedBy" gorm:"notNull;size:36;uniqueIndex:idx_likes_user_target"`
	TargetKind LikeKind `json:"targetKind" gorm:"notNull;size:16;uniqueIndex:idx_likes_user_target;index:idx_likes_target"`
	TargetID   string   `json:"targetId" gorm:"notNull;size:36;uniqueIndex:idx_likes_user_target;index:idx_likes_target"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	l.ID = newID(l.ID)
	return nil
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	Toggle(ctx context.Context, userID string, target LikeTarget) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]VideoView, error)
}
