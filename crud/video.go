package crud

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
	"videotube/events"
)

// VideoService manages Videos.
// It implements the domain.VideoService interface.
type VideoService struct {
	videoValidator
	events events.Publisher
}

// videoValidator runs validations on incoming Video data.
// On success, it passes the data on to videoGorm.
// Otherwise, it returns the error of the validation that has failed.
type videoValidator struct {
	videoGorm
}

// videoGorm runs CRUD operations on the database using incoming Video data.
// It assumes that data has been validated.
type videoGorm struct {
	db *gorm.DB
}

// NewVideoService returns an instance of VideoService.
func NewVideoService(db *gorm.DB, pub events.Publisher) *VideoService {
	return &VideoService{
		videoValidator: videoValidator{
			videoGorm{
				db: db,
			},
		},
		events: pub,
	}
}

// Ensure the VideoService struct properly implements the domain.VideoService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.VideoService = &VideoService{}

// sortColumns are the columns a video listing may be sorted by.
var sortColumns = map[string]string{
	"":          "videos.created_at",
	"createdAt": "videos.created_at",
	"views":     "videos.views",
	"duration":  "videos.duration",
	"title":     "videos.title",
}

// likeEscaper makes the wildcards of a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Publish stores a new video and announces it.
func (vs *VideoService) Publish(ctx context.Context, video *domain.Video) error {
	if err := vs.videoValidator.Create(ctx, video); err != nil {
		return err
	}
	publish(ctx, vs.events, events.New(events.VideoPublished, video.OwnerID, video.ID, map[string]string{"title": video.Title}))
	return nil
}

// Delete removes a video owned by the caller and announces it.
func (vs *VideoService) Delete(ctx context.Context, id, callerID string) error {
	if err := vs.videoValidator.Delete(ctx, id, callerID); err != nil {
		return err
	}
	publish(ctx, vs.events, events.New(events.VideoDeleted, callerID, id, nil))
	return nil
}

// Create runs validations needed for creating new Video database records.
func (vv *videoValidator) Create(ctx context.Context, video *domain.Video) error {
	err := runVideoValFns(video,
		vv.userIdValid,
		vv.titleRequired,
		vv.descriptionRequired,
		vv.mediaRequired)
	if err != nil {
		return err
	}
	video.IsPublished = true
	return vv.videoGorm.Create(ctx, video)
}

// ByID retrieves a Video database record by ID.
func (vv *videoValidator) ByID(ctx context.Context, id string) (*domain.Video, error) {
	if !domain.ValidID(id) {
		return nil, errs.IdInvalid
	}
	return vv.videoGorm.ByID(ctx, id)
}

// View returns a video as its page shows it to the viewer and records the view.
// Unpublished videos are only visible to their owner.
func (vv *videoValidator) View(ctx context.Context, id, viewerID string) (*domain.VideoDetail, error) {
	video, err := vv.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, errs.Errorf(errs.ENOTFOUND, "The video does not exist.")
	}
	if err := vv.videoGorm.RecordView(ctx, id, viewerID); err != nil {
		return nil, err
	}
	return vv.videoGorm.Detail(ctx, id, viewerID)
}

// List returns one page of published videos matching filter.
func (vv *videoValidator) List(ctx context.Context, filter domain.VideoFilter) (*domain.Paginated[domain.VideoView], error) {
	if filter.UserID != "" && !domain.ValidID(filter.UserID) {
		return nil, errs.IdInvalid
	}
	if _, ok := sortColumns[filter.SortBy]; !ok {
		return nil, errs.Errorf(errs.EINVALID, "Videos can only be sorted by createdAt, views, duration or title.")
	}
	filter.SortType = strings.ToLower(filter.SortType)
	if filter.SortType != "" && filter.SortType != "asc" && filter.SortType != "desc" {
		return nil, errs.Errorf(errs.EINVALID, "The sort type must be asc or desc.")
	}
	filter.Page = domain.NewPage(filter.Number, filter.Limit)
	filter.Query = strings.TrimSpace(filter.Query)
	return vv.videoGorm.List(ctx, filter)
}

// Update changes the editable fields of a video owned by the caller.
func (vv *videoValidator) Update(ctx context.Context, id, callerID string, upd domain.VideoUpdate) (*domain.Video, error) {
	if upd.Title == nil && upd.Description == nil && upd.Thumbnail == nil {
		return nil, errs.Errorf(errs.EINVALID, "Title, description or thumbnail is required.")
	}
	video, err := loadOwned[domain.Video](ctx, vv.db, id, callerID, "video")
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		video.Title = *upd.Title
	}
	if upd.Description != nil {
		video.Description = *upd.Description
	}
	if upd.Thumbnail != nil {
		video.Thumbnail = *upd.Thumbnail
	}
	err = runVideoValFns(video,
		vv.titleRequired,
		vv.descriptionRequired,
		vv.mediaRequired)
	if err != nil {
		return nil, err
	}
	if err := vv.videoGorm.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// Delete removes a video owned by the caller along with everything that points at it.
func (vv *videoValidator) Delete(ctx context.Context, id, callerID string) error {
	video, err := loadOwned[domain.Video](ctx, vv.db, id, callerID, "video")
	if err != nil {
		return err
	}
	return vv.videoGorm.Delete(ctx, video)
}

// TogglePublish flips the published flag of a video owned by the caller.
func (vv *videoValidator) TogglePublish(ctx context.Context, id, callerID string) (*domain.Video, error) {
	video, err := loadOwned[domain.Video](ctx, vv.db, id, callerID, "video")
	if err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	if err := vv.videoGorm.SetPublished(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func runVideoValFns(video *domain.Video, fns ...videoValFn) error {
	for _, fn := range fns {
		if err := fn(video); err != nil {
			return err
		}
	}
	return nil
}

// A videoValFn is any function that takes in a pointer to a domain.Video object and returns an error.
type videoValFn func(video *domain.Video) error

func (vv *videoValidator) userIdValid(video *domain.Video) error {
	if !domain.ValidID(video.OwnerID) {
		return errs.UserIdValid
	}
	return nil
}

func (vv *videoValidator) titleRequired(video *domain.Video) error {
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

func (vv *videoValidator) descriptionRequired(video *domain.Video) error {
	video.Description = strings.TrimSpace(video.Description)
	if video.Description == "" {
		return errs.Errorf(errs.EINVALID, "A description is required.")
	}
	return nil
}

// mediaRequired makes sure the video file and the thumbnail have been hosted.
func (vv *videoValidator) mediaRequired(video *domain.Video) error {
	if video.VideoFile == "" {
		return errs.Errorf(errs.EINVALID, "A video file is required.")
	}
	if video.Thumbnail == "" {
		return errs.Errorf(errs.EINVALID, "A thumbnail is required.")
	}
	return nil
}

// ByID retrieves a Video database record by ID.
func (vg *videoGorm) ByID(ctx context.Context, id string) (*domain.Video, error) {
	var video domain.Video
	err := vg.db.WithContext(ctx).First(&video, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Errorf(errs.ENOTFOUND, "The video does not exist.")
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// RecordView increments the view count of a video and makes it the video the
// viewer is watching. Anonymous views are counted too.
func (vg *videoGorm) RecordView(ctx context.Context, id, viewerID string) error {
	return vg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Video{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
		if err != nil || viewerID == "" {
			return err
		}
		return tx.Model(&domain.User{}).Where("id = ?", viewerID).
			Update("watching_video_id", id).Error
	})
}

type videoDetailRow struct {
	Video            videoRow `gorm:"embedded"`
	Owner            ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
	LikesCount       int64
	IsLiked          bool
	SubscribersCount int64
	IsSubscribed     bool
}

// Detail composes a video with its owner, its likes and its channel's subscribers.
func (vg *videoGorm) Detail(ctx context.Context, id, viewerID string) (*domain.VideoDetail, error) {
	var row videoDetailRow
	found, err := videoPipeline().
		Match("videos.id = ?", id).
		Count("likes_count", likesOf(domain.KindVideo)).
		Contains("is_liked", likesOf(domain.KindVideo), "user_id", viewerID).
		Count("subscribers_count", subscriptionsOf("owner_id")).
		Contains("is_subscribed", subscriptionsOf("owner_id"), "subscriber_id", viewerID).
		First(ctx, vg.db, &row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Errorf(errs.ENOTFOUND, "The video does not exist.")
	}
	return &domain.VideoDetail{
		VideoView:        row.Video.view(row.Owner),
		LikesCount:       row.LikesCount,
		IsLiked:          row.IsLiked,
		SubscribersCount: row.SubscribersCount,
		IsSubscribed:     row.IsSubscribed,
	}, nil
}

// List composes a page of published videos with their owners.
func (vg *videoGorm) List(ctx context.Context, filter domain.VideoFilter) (*domain.Paginated[domain.VideoView], error) {
	p := videoPipeline().Match("videos.is_published = ?", true)
	if filter.Query != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(filter.Query)) + "%"
		p.Match(`LOWER(videos.title) LIKE ? ESCAPE '\' OR LOWER(videos.description) LIKE ? ESCAPE '\'`, like, like)
	}
	if filter.UserID != "" {
		p.Match("videos.owner_id = ?", filter.UserID)
	}
	desc := filter.SortType != "asc"
	p.Sort(sortColumns[filter.SortBy], desc).Sort("videos.id", desc)

	var rows []ownedVideoRow
	total, err := p.Paginate(ctx, vg.db, filter.Page, &rows)
	if err != nil {
		return nil, err
	}
	return domain.NewPaginated(videoViews(rows), filter.Page, total), nil
}

// Create stores the data from the Video object in a new database record.
func (vg *videoGorm) Create(ctx context.Context, video *domain.Video) error {
	return vg.db.WithContext(ctx).Create(video).Error
}

// Update saves the editable fields of an existing video.
func (vg *videoGorm) Update(ctx context.Context, video *domain.Video) error {
	return vg.db.WithContext(ctx).Model(video).
		Select("title", "description", "thumbnail").
		Updates(video).Error
}

func (vg *videoGorm) SetPublished(ctx context.Context, video *domain.Video) error {
	return vg.db.WithContext(ctx).Model(video).Update("is_published", video.IsPublished).Error
}

// Delete deletes a video along with its likes, its comments and their likes,
// and its playlist memberships. Users watching it stop watching anything.
func (vg *videoGorm) Delete(ctx context.Context, video *domain.Video) error {
	return vg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&domain.Comment{}).Select("id").Where("video_id = ?", video.ID)
		err := tx.Where("target_kind = ? AND target_id IN (?)", domain.KindComment, comments).
			Delete(&domain.Like{}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", video.ID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		err = tx.Where("target_kind = ? AND target_id = ?", domain.KindVideo, video.ID).
			Delete(&domain.Like{}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", video.ID).Delete(&domain.PlaylistVideo{}).Error; err != nil {
			return err
		}
		err = tx.Model(&domain.User{}).Where("watching_video_id = ?", video.ID).
			Update("watching_video_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(video).Error
	})
}

// publish sends e and logs a failure instead of returning it.
func publish(ctx context.Context, pub events.Publisher, e events.Event) {
	if err := pub.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publishing event failed", "type", e.Type, "subject", e.SubjectID, "error", err)
	}
}
