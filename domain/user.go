package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account. Every user is also a channel that other
// users can subscribe to. Password only ever holds plaintext in memory, on its
// way to being hashed; neither it nor the stored hashes are serialized.
type User struct {
	ID               string  `json:"id" gorm:"primaryKey;size:36"`
	Username         string  `json:"username" gorm:"notNull;uniqueIndex;size:64"`
	Email            string  `json:"email" gorm:"notNull;uniqueIndex"`
	FullName         string  `json:"fullName" gorm:"notNull"`
	Avatar           string  `json:"avatar" gorm:"notNull"`
	CoverImage       string  `json:"coverImage"`
	WatchingVideoID  *string `json:"watchingVideoId" gorm:"size:36"`
	Password         string  `json:"-" gorm:"-"`
	PasswordHash     string  `json:"-" gorm:"notNull"`
	RefreshTokenHash string  `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a new uuid unless one is already set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.ID = newID(u.ID)
	return nil
}

// Owner is the projection of a User that gets joined onto videos, tweets,
// comments and playlists. It never carries the whole user record.
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// ChannelProfile is the public page of a user, as seen by the viewer.
type ChannelProfile struct {
	ID                        string    `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// UserUpdate holds the account fields a user may change about themselves.
type UserUpdate struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	Register(ctx context.Context, user *User) error
	Authenticate(ctx context.Context, login, password string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateAccount(ctx context.Context, id string, upd UserUpdate) (*User, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	ByRefreshToken(ctx context.Context, id, token string) (*User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error)
	WatchHistory(ctx context.Context, id string) (*VideoView, error)
}

// newID returns id, or a fresh uuid if id is empty.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a generated record identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
