package crud

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
	"videotube/query"
)

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db: db,
			},
		},
	}
}

var _ domain.CommentService = &CommentService{}

// Create runs validations needed for creating new Comment database records.
// The commented video has to exist.
func (cv *commentValidator) Create(ctx context.Context, comment *domain.Comment) error {
	err := runCommentValFns(comment,
		cv.userIdValid,
		cv.contentRequired)
	if err != nil {
		return err
	}
	if err := exists(ctx, cv.db, "videos", comment.VideoID, "video"); err != nil {
		return err
	}
	return cv.commentGorm.Create(ctx, comment)
}

// ByVideo returns one page of the comments of a video, newest first.
func (cv *commentValidator) ByVideo(ctx context.Context, videoID, viewerID string, page domain.Page) (*domain.Paginated[domain.CommentView], error) {
	if err := exists(ctx, cv.db, "videos", videoID, "video"); err != nil {
		return nil, err
	}
	return cv.commentGorm.ByVideo(ctx, videoID, viewerID, domain.NewPage(page.Number, page.Limit))
}

// Update changes the content of a comment owned by the caller.
func (cv *commentValidator) Update(ctx context.Context, id, callerID, content string) (*domain.Comment, error) {
	comment, err := loadOwned[domain.Comment](ctx, cv.db, id, callerID, "comment")
	if err != nil {
		return nil, err
	}
	comment.Content = content
	if err := runCommentValFns(comment, cv.contentRequired); err != nil {
		return nil, err
	}
	if err := cv.commentGorm.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete deletes a comment owned by the caller.
func (cv *commentValidator) Delete(ctx context.Context, id, callerID string) error {
	comment, err := loadOwned[domain.Comment](ctx, cv.db, id, callerID, "comment")
	if err != nil {
		return err
	}
	return cv.commentGorm.Delete(ctx, comment)
}

func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

type commentValFn func(comment *domain.Comment) error

// contentRequired trims the content and makes sure something is left.
func (cv *commentValidator) contentRequired(comment *domain.Comment) error {
	comment.Content = strings.TrimSpace(comment.Content)
	if comment.Content == "" {
		return errs.ContentTooShort
	}
	return nil
}

func (cv *commentValidator) userIdValid(comment *domain.Comment) error {
	if !domain.ValidID(comment.OwnerID) {
		return errs.UserIdValid
	}
	return nil
}

type commentRow struct {
	ID         string
	VideoID    string
	Content    string
	LikesCount int64
	IsLiked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Owner      ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
}

func (r commentRow) view() domain.CommentView {
	return domain.CommentView{
		ID:         r.ID,
		VideoID:    r.VideoID,
		Content:    r.Content,
		Owner:      r.Owner.owner(),
		LikesCount: r.LikesCount,
		IsLiked:    r.IsLiked,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ByVideo composes a page of comments with their owner, like count and
// whether the viewer likes them.
func (cg *commentGorm) ByVideo(ctx context.Context, videoID, viewerID string, page domain.Page) (*domain.Paginated[domain.CommentView], error) {
	var rows []commentRow
	total, err := query.From("comments").
		Match("comments.video_id = ?", videoID).
		Project("id", "video_id", "content", "created_at", "updated_at").
		Lookup("owner", ownerOf, ownerFields...).
		Count("likes_count", likesOf(domain.KindComment)).
		Contains("is_liked", likesOf(domain.KindComment), "user_id", viewerID).
		Sort("comments.created_at", true).
		Sort("comments.id", true).
		Paginate(ctx, cg.db, page, &rows)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.CommentView, len(rows))
	for i, r := range rows {
		docs[i] = r.view()
	}
	return domain.NewPaginated(docs, page, total), nil
}

// Create stores the data from the Comment object in a new database record.
func (cg *commentGorm) Create(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Create(comment).Error
}

// Update saves the content of an existing comment.
func (cg *commentGorm) Update(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Model(comment).Update("content", comment.Content).Error
}

// Delete deletes a comment along with the likes it received.
func (cg *commentGorm) Delete(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("target_kind = ? AND target_id = ?", domain.KindComment, comment.ID).
			Delete(&domain.Like{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(comment).Error
	})
}
