package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Playlist is a named collection of videos curated by its owner.
type Playlist struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string `json:"owner" gorm:"notNull;index;size:36"`
	Name        string `json:"name" gorm:"notNull"`
	Description string `json:"description"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	p.ID = newID(p.ID)
	return nil
}

func (p *Playlist) OwnedBy() string { return p.OwnerID }

// PlaylistVideo is the membership of a video in a playlist. The composite
// primary key makes a playlist a set of videos.
type PlaylistVideo struct {
	PlaylistID string `gorm:"primaryKey;size:36"`
	VideoID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time
}

// PlaylistView is a playlist with aggregates over its videos.
type PlaylistView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       *Owner    `json:"owner"`
	VideoCount  int64     `json:"totalVideos"`
	TotalViews  int64     `json:"totalViews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistDetail is a playlist together with its videos, oldest addition first.
type PlaylistDetail struct {
	PlaylistView
	Videos []VideoView `json:"videos"`
}

// PlaylistUpdate holds the fields an owner may change on a playlist.
type PlaylistUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// PlaylistService is a set of methods to manipulate and work with the Playlist model.
type PlaylistService interface {
	Create(ctx context.Context, playlist *Playlist) error
	ByUser(ctx context.Context, userID string) ([]PlaylistView, error)
	ByID(ctx context.Context, id string) (*PlaylistDetail, error)
	Update(ctx context.Context, id, callerID string, upd PlaylistUpdate) (*Playlist, error)
	Delete(ctx context.Context, id, callerID string) error
	AddVideo(ctx context.Context, playlistID, videoID, callerID string) (*PlaylistDetail, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, callerID string) (*PlaylistDetail, error)
}
