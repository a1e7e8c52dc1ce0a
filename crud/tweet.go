package crud

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
	"videotube/query"
)

// TweetService manages Tweets.
// It implements the domain.TweetService interface.
type TweetService struct {
	tweetValidator
}

// tweetValidator runs validations on incoming Tweet data.
// On success, it passes the data on to tweetGorm.
// Otherwise, it returns the error of the validation that has failed.
type tweetValidator struct {
	tweetGorm
}

// tweetGorm runs CRUD operations on the database using incoming Tweet data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type tweetGorm struct {
	db *gorm.DB
}

// NewTweetService returns an instance of TweetService.
func NewTweetService(db *gorm.DB) *TweetService {
	return &TweetService{
		tweetValidator{
			tweetGorm{
				db: db,
			},
		},
	}
}

// Ensure the TweetService struct properly implements the domain.TweetService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.TweetService = &TweetService{}

// Create runs validations needed for creating new Tweet database records.
func (tv *tweetValidator) Create(ctx context.Context, tweet *domain.Tweet) error {
	err := runTweetValFns(tweet,
		tv.userIdValid,
		tv.contentNormalize,
		tv.contentMinLength,
		tv.contentMaxLength)
	if err != nil {
		return err
	}
	return tv.tweetGorm.Create(ctx, tweet)
}

// ByUser lists the tweets of a user, newest first.
func (tv *tweetValidator) ByUser(ctx context.Context, userID, viewerID string) ([]domain.TweetView, error) {
	if err := exists(ctx, tv.db, "users", userID, "user"); err != nil {
		return nil, err
	}
	return tv.tweetGorm.ByUser(ctx, userID, viewerID)
}

// Update changes the content of a tweet owned by the caller.
func (tv *tweetValidator) Update(ctx context.Context, id, callerID, content string) (*domain.Tweet, error) {
	tweet, err := loadOwned[domain.Tweet](ctx, tv.db, id, callerID, "tweet")
	if err != nil {
		return nil, err
	}
	tweet.Content = content
	err = runTweetValFns(tweet,
		tv.contentNormalize,
		tv.contentMinLength,
		tv.contentMaxLength)
	if err != nil {
		return nil, err
	}
	if err := tv.tweetGorm.Update(ctx, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

// Delete deletes a tweet owned by the caller.
func (tv *tweetValidator) Delete(ctx context.Context, id, callerID string) error {
	tweet, err := loadOwned[domain.Tweet](ctx, tv.db, id, callerID, "tweet")
	if err != nil {
		return err
	}
	return tv.tweetGorm.Delete(ctx, tweet)
}

// runTweetValFns runs any number of functions of type tweetValFn on the passed in Tweet object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runTweetValFns(tweet *domain.Tweet, fns ...tweetValFn) error {
	for _, fn := range fns {
		if err := fn(tweet); err != nil {
			return err
		}
	}
	return nil
}

// A tweetValFn is any function that takes in a pointer to a domain.Tweet object and returns an error.
type tweetValFn = func(tweet *domain.Tweet) error

func (tv *tweetValidator) contentNormalize(tweet *domain.Tweet) error {
	tweet.Content = strings.TrimSpace(tweet.Content)
	return nil
}

// contentMinLength makes sure that the Tweet's content is not empty.
func (tv *tweetValidator) contentMinLength(tweet *domain.Tweet) error {
	if tweet.Content == "" {
		return errs.ContentTooShort
	}
	return nil
}

// contentMaxLength makes sure that the Tweet's content does not exceed the maximum content length.
func (tv *tweetValidator) contentMaxLength(tweet *domain.Tweet) error {
	if utf8.RuneCountInString(tweet.Content) > domain.TweetMaxLength {
		return errs.ContentTooLong
	}
	return nil
}

// userIdValid ensures that the tweet has an owner.
func (tv *tweetValidator) userIdValid(tweet *domain.Tweet) error {
	if !domain.ValidID(tweet.OwnerID) {
		return errs.UserIdValid
	}
	return nil
}

type tweetRow struct {
	ID         string
	Content    string
	LikesCount int64
	IsLiked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Owner      ownerRow `gorm:"embedded;embeddedPrefix:owner_"`
}

func tweetPipeline(viewerID string) *query.Pipeline {
	return query.From("tweets").
		Project("id", "content", "created_at", "updated_at").
		Lookup("owner", ownerOf, ownerFields...).
		Count("likes_count", likesOf(domain.KindTweet)).
		Contains("is_liked", likesOf(domain.KindTweet), "user_id", viewerID)
}

// ByUser composes the tweets of a user with their owner, like count and
// whether the viewer likes them.
func (tg *tweetGorm) ByUser(ctx context.Context, userID, viewerID string) ([]domain.TweetView, error) {
	var rows []tweetRow
	err := tweetPipeline(viewerID).
		Match("tweets.owner_id = ?", userID).
		Sort("tweets.created_at", true).
		Sort("tweets.id", true).
		All(ctx, tg.db, &rows)
	if err != nil {
		return nil, err
	}
	views := make([]domain.TweetView, len(rows))
	for i, r := range rows {
		views[i] = domain.TweetView{
			ID:         r.ID,
			Content:    r.Content,
			Owner:      r.Owner.owner(),
			LikesCount: r.LikesCount,
			IsLiked:    r.IsLiked,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return views, nil
}

// Create stores the data from the Tweet object in a new database record.
func (tg *tweetGorm) Create(ctx context.Context, tweet *domain.Tweet) error {
	return tg.db.WithContext(ctx).Create(tweet).Error
}

// Update saves the content of an existing tweet.
func (tg *tweetGorm) Update(ctx context.Context, tweet *domain.Tweet) error {
	return tg.db.WithContext(ctx).Model(tweet).Update("content", tweet.Content).Error
}

// Delete deletes a tweet along with the likes it received.
func (tg *tweetGorm) Delete(ctx context.Context, tweet *domain.Tweet) error {
	return tg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("target_kind = ? AND target_id = ?", domain.KindTweet, tweet.ID).
			Delete(&domain.Like{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(tweet).Error
	})
}
