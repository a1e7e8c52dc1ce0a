package crud

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"videotube/domain"
	"videotube/errs"
	"videotube/query"
)

// PlaylistService manages Playlists and the videos in them.
// It implements the domain.PlaylistService interface.
type PlaylistService struct {
	playlistValidator
}

type playlistValidator struct {
	playlistGorm
}

type playlistGorm struct {
	db *gorm.DB
}

// NewPlaylistService returns an instance of PlaylistService.
func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{
		playlistValidator{
			playlistGorm{
				db: db,
			},
		},
	}
}

var _ domain.PlaylistService = &PlaylistService{}

// Create runs validations needed for creating new Playlist database records.
func (pv *playlistValidator) Create(ctx context.Context, playlist *domain.Playlist) error {
	err := runPlaylistValFns(playlist,
		pv.userIdValid,
		pv.nameRequired,
		pv.descriptionNormalize)
	if err != nil {
		return err
	}
	return pv.db.WithContext(ctx).Create(playlist).Error
}

// ByUser lists the playlists of a user.
func (pv *playlistValidator) ByUser(ctx context.Context, userID string) ([]domain.PlaylistView, error) {
	if !domain.ValidID(userID) {
		return nil, errs.IdInvalid
	}
	return pv.playlistGorm.ByUser(ctx, userID)
}

// ByID returns a playlist with its videos.
func (pv *playlistValidator) ByID(ctx context.Context, id string) (*domain.PlaylistDetail, error) {
	if !domain.ValidID(id) {
		return nil, errs.IdInvalid
	}
	return pv.playlistGorm.ByID(ctx, id)
}

// Update changes the name or description of a playlist owned by the caller.
func (pv *playlistValidator) Update(ctx context.Context, id, callerID string, upd domain.PlaylistUpdate) (*domain.Playlist, error) {
	if upd.Name == nil && upd.Description == nil {
		return nil, errs.Errorf(errs.EINVALID, "Name or description is required.")
	}
	playlist, err := loadOwned[domain.Playlist](ctx, pv.db, id, callerID, "playlist")
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		playlist.Name = *upd.Name
	}
	if upd.Description != nil {
		playlist.Description = *upd.Description
	}
	if err := runPlaylistValFns(playlist, pv.nameRequired, pv.descriptionNormalize); err != nil {
		return nil, err
	}
	err = pv.db.WithContext(ctx).Model(playlist).
		Select("name", "description").
		Updates(playlist).Error
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// Delete deletes a playlist owned by the caller. The videos stay.
func (pv *playlistValidator) Delete(ctx context.Context, id, callerID string) error {
	playlist, err := loadOwned[domain.Playlist](ctx, pv.db, id, callerID, "playlist")
	if err != nil {
		return err
	}
	return pv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlist.ID).Delete(&domain.PlaylistVideo{}).Error; err != nil {
			return err
		}
		return tx.Delete(playlist).Error
	})
}

// AddVideo puts a video into a playlist owned by the caller. Adding a video
// that is already in the playlist changes nothing.
func (pv *playlistValidator) AddVideo(ctx context.Context, playlistID, videoID, callerID string) (*domain.PlaylistDetail, error) {
	if _, err := loadOwned[domain.Playlist](ctx, pv.db, playlistID, callerID, "playlist"); err != nil {
		return nil, err
	}
	if err := exists(ctx, pv.db, "videos", videoID, "video"); err != nil {
		return nil, err
	}
	entry := domain.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID}
	if err := pv.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return nil, err
	}
	return pv.playlistGorm.ByID(ctx, playlistID)
}

// RemoveVideo takes a video out of a playlist owned by the caller.
func (pv *playlistValidator) RemoveVideo(ctx context.Context, playlistID, videoID, callerID string) (*domain.PlaylistDetail, error) {
	if _, err := loadOwned[domain.Playlist](ctx, pv.db, playlistID, callerID, "playlist"); err != nil {
		return nil, err
	}
	if !domain.ValidID(videoID) {
		return nil, errs.IdInvalid
	}
	res := pv.db.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&domain.PlaylistVideo{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "The video is not in the playlist.")
	}
	return pv.playlistGorm.ByID(ctx, playlistID)
}

func runPlaylistValFns(playlist *domain.Playlist, fns ...playlistValFn) error {
	for _, fn := range fns {
		if err := fn(playlist); err != nil {
			return err
		}
	}
	return nil
}

type playlistValFn func(playlist *domain.Playlist) error

func (pv *playlistValidator) userIdValid(playlist *domain.Playlist) error {
	if !domain.ValidID(playlist.OwnerID) {
		return errs.UserIdValid
	}
	return nil
}

func (pv *playlistValidator) nameRequired(playlist *domain.Playlist) error {
	playlist.Name = strings.TrimSpace(playlist.Name)
	if playlist.Name == "" {
		return errs.Errorf(errs.EINVALID, "A playlist name is required.")
	}
	return nil
}

func (pv *playlistValidator) descriptionNormalize(playlist *domain.Playlist) error {
	playlist.Description = strings.TrimSpace(playlist.Description)
	return nil
}

// playlistEntries is every video of every playlist, with the video's views.
var playlistEntries = query.Relation{
	Table: "(SELECT playlist_videos.playlist_id, videos.views FROM playlist_videos " +
		"JOIN videos ON videos.id = playlist_videos.video_id)",
	ForeignKey: "playlist_id",
	LocalKey:   "id",
}

type playlistRow struct {
	ID          string
	Name        string
	Description string
	VideoCount  int64
	TotalViews  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Owner       ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
}

func (r playlistRow) view() domain.PlaylistView {
	return domain.PlaylistView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Owner:       r.Owner.owner(),
		VideoCount:  r.VideoCount,
		TotalViews:  r.TotalViews,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func playlistPipeline() *query.Pipeline {
	return query.From("playlists").
		Project("id", "name", "description", "created_at", "updated_at").
		Lookup("owner", ownerOf, ownerFields...).
		Count("video_count", playlistEntries).
		Sum("total_views", playlistEntries, "views")
}

// ByUser composes the playlists of a user with their video counts and total views.
func (pg *playlistGorm) ByUser(ctx context.Context, userID string) ([]domain.PlaylistView, error) {
	var rows []playlistRow
	err := playlistPipeline().
		Match("playlists.owner_id = ?", userID).
		Sort("playlists.created_at", true).
		All(ctx, pg.db, &rows)
	if err != nil {
		return nil, err
	}
	views := make([]domain.PlaylistView, len(rows))
	for i, r := range rows {
		views[i] = r.view()
	}
	return views, nil
}

// ByID composes a playlist and, in a second query, its videos in the order they were added.
func (pg *playlistGorm) ByID(ctx context.Context, id string) (*domain.PlaylistDetail, error) {
	var row playlistRow
	found, err := playlistPipeline().Match("playlists.id = ?", id).First(ctx, pg.db, &row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Errorf(errs.ENOTFOUND, "The playlist does not exist.")
	}

	var videos []ownedVideoRow
	entry := query.Relation{
		Table:      "playlist_videos",
		ForeignKey: "video_id",
		LocalKey:   "id",
		Where:      map[string]interface{}{"playlist_id": id},
	}
	err = videoPipeline().
		Lookup("entry", entry, "created_at").
		Match("entry.video_id IS NOT NULL").
		Sort("entry.created_at", false).
		Sort("videos.id", false).
		All(ctx, pg.db, &videos)
	if err != nil {
		return nil, err
	}
	return &domain.PlaylistDetail{PlaylistView: row.view(), Videos: videoViews(videos)}, nil
}
