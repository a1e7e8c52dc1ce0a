package crud

import (
	"time"

	"videotube/domain"
	"videotube/query"
)

// Relations shared by the read pipelines of the services.
var (
	// ownerOf joins the owner of a record under the alias "owner".
	ownerOf = query.Relation{Table: "users", ForeignKey: "id", LocalKey: "owner_id"}
	// ownerFields are the only user columns a joined owner carries.
	ownerFields = []string{"id", "username", "full_name", "avatar"}

	videoFields = []string{
		"id", "video_file", "thumbnail", "title", "description",
		"duration", "views", "is_published", "created_at", "updated_at",
	}
)

// likesOf relates a record of kind to the likes pointing at it.
func likesOf(kind domain.LikeKind) query.Relation {
	return query.Relation{
		Table:      "likes",
		ForeignKey: "target_id",
		LocalKey:   "id",
		Where:      map[string]interface{}{"target_kind": kind},
	}
}

// subscriptionsOf relates a user id, given by localKey, to the subscriptions of that channel.
func subscriptionsOf(localKey string) query.Relation {
	return query.Relation{Table: "subscriptions", ForeignKey: "channel_id", LocalKey: localKey}
}

// ownerRow is a joined user. Every field is nil when the join found nothing.
type ownerRow struct {
	ID       *string
	Username *string
	FullName *string
	Avatar   *string
}

func (o ownerRow) owner() *domain.Owner {
	if o.ID == nil {
		return nil
	}
	return &domain.Owner{
		ID:       *o.ID,
		Username: deref(o.Username),
		FullName: deref(o.FullName),
		Avatar:   deref(o.Avatar),
	}
}

type videoRow struct {
	ID          string
	VideoFile   string
	Thumbnail   string
	Title       string
	Description string
	Duration    float64
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r videoRow) view(owner ownerRow) domain.VideoView {
	return domain.VideoView{
		ID:          r.ID,
		VideoFile:   r.VideoFile,
		Thumbnail:   r.Thumbnail,
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		Views:       r.Views,
		IsPublished: r.IsPublished,
		Owner:       owner.owner(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ownedVideoRow is a video with its owner joined on.
type ownedVideoRow struct {
	Video videoRow `gorm:"embedded"`
	Owner ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
}

func (r ownedVideoRow) view() domain.VideoView {
	return r.Video.view(r.Owner)
}

func videoViews(rows []ownedVideoRow) []domain.VideoView {
	views := make([]domain.VideoView, len(rows))
	for i, r := range rows {
		views[i] = r.view()
	}
	return views
}

// videoPipeline selects videos with their owners.
func videoPipeline() *query.Pipeline {
	return query.From("videos").
		Project(videoFields...).
		Lookup("owner", ownerOf, ownerFields...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
