package crud

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"videotube/domain"
	"videotube/errs"
	"videotube/events"
	"videotube/query"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
	events events.Publisher
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB, pub events.Publisher) *LikeService {
	return &LikeService{
		likeValidator: likeValidator{
			likeGorm{
				db: db,
			},
		},
		events: pub,
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Toggle likes the target for the user if they did not like it yet, and
// unlikes it otherwise. It reports whether the user likes the target afterwards.
func (ls *LikeService) Toggle(ctx context.Context, userID string, target domain.LikeTarget) (bool, error) {
	liked, err := ls.likeValidator.Toggle(ctx, userID, target)
	if err != nil {
		return false, err
	}
	publish(ctx, ls.events, events.New(events.LikeToggled, userID, target.ID(), map[string]string{
		"kind":  string(target.Kind()),
		"liked": strconv.FormatBool(liked),
	}))
	return liked, nil
}

// Toggle makes sure the user and the target are valid and that the target exists.
func (lv *likeValidator) Toggle(ctx context.Context, userID string, target domain.LikeTarget) (bool, error) {
	if !domain.ValidID(userID) {
		return false, errs.UserIdValid
	}
	if target.Table() == "" {
		return false, errs.Errorf(errs.EINVALID, "Only videos, comments and tweets can be liked.")
	}
	if err := exists(ctx, lv.db, target.Table(), target.ID(), string(target.Kind())); err != nil {
		return false, err
	}
	return lv.likeGorm.Toggle(ctx, userID, target)
}

// LikedVideos lists the videos the user likes, most recently liked first.
func (lv *likeValidator) LikedVideos(ctx context.Context, userID string) ([]domain.VideoView, error) {
	if !domain.ValidID(userID) {
		return nil, errs.UserIdValid
	}
	return lv.likeGorm.LikedVideos(ctx, userID)
}

// Toggle deletes the like of the user on the target if there is one, and
// creates it otherwise, in one transaction. The unique index over
// (user_id, target_kind, target_id) turns a concurrent second insert into a
// no-op, so a pair never has more than one like and a lost race still ends liked.
func (lg *likeGorm) Toggle(ctx context.Context, userID string, target domain.LikeTarget) (bool, error) {
	liked := false
	err := lg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind(), target.ID()).
			Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		like := domain.Like{UserID: userID, TargetKind: target.Kind(), TargetID: target.ID()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

type likedVideoRow struct {
	Video videoRow `gorm:"embedded;embeddedPrefix:video_"`
	Owner ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
}

// LikedVideos joins the liked videos and their owners onto the likes of the user.
func (lg *likeGorm) LikedVideos(ctx context.Context, userID string) ([]domain.VideoView, error) {
	var rows []likedVideoRow
	err := query.From("likes").
		Match("likes.user_id = ? AND likes.target_kind = ?", userID, domain.KindVideo).
		Lookup("video", query.Relation{Table: "videos", ForeignKey: "id", LocalKey: "target_id"}, videoFields...).
		Lookup("owner", query.Relation{Table: "users", ForeignKey: "id", LocalKey: "video.owner_id"}, ownerFields...).
		Match("video.id IS NOT NULL").
		Sort("likes.created_at", true).
		All(ctx, lg.db, &rows)
	if err != nil {
		return nil, err
	}
	views := make([]domain.VideoView, len(rows))
	for i, r := range rows {
		views[i] = r.Video.view(r.Owner)
	}
	return views, nil
}
