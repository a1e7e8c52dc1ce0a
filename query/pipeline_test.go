package query

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"videotube/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Video{}, &domain.Like{}))
	return db
}

type videoRow struct {
	ID            string
	Title         string
	Views         int64
	OwnerUsername *string
	LikesCount    int64
	IsLiked       bool
	CreatedAt     time.Time
}

func likesOf(kind domain.LikeKind) Relation {
	return Relation{
		Table:      "likes",
		ForeignKey: "target_id",
		LocalKey:   "id",
		Where:      map[string]interface{}{"target_kind": kind},
	}
}

var owner = Relation{Table: "users", ForeignKey: "id", LocalKey: "owner_id"}

func TestSQL(t *testing.T) {
	rel := Relation{
		Table:      "likes",
		ForeignKey: "target_id",
		LocalKey:   "id",
		Where:      map[string]interface{}{"target_kind": "video", "a_flag": true},
	}
	sql, args := From("videos").
		Match("videos.owner_id = ?", "u1").
		Project("id").
		Lookup("owner", owner, "username").
		Count("likes_count", rel).
		Contains("is_liked", rel, "user_id", "u2").
		Sort("videos.created_at", true).
		SQL()

	assert.Equal(t, "SELECT videos.id AS id, owner.username AS owner_username, "+
		"(SELECT COUNT(*) FROM likes AS likes_count_src WHERE likes_count_src.target_id = videos.id "+
		"AND likes_count_src.a_flag = ? AND likes_count_src.target_kind = ?) AS likes_count, "+
		"EXISTS (SELECT 1 FROM likes AS is_liked_src WHERE is_liked_src.target_id = videos.id "+
		"AND is_liked_src.a_flag = ? AND is_liked_src.target_kind = ? AND is_liked_src.user_id = ?) AS is_liked "+
		"FROM videos LEFT JOIN users AS owner ON owner.id = videos.owner_id "+
		"WHERE (videos.owner_id = ?) ORDER BY videos.created_at DESC", sql)
	assert.Equal(t, []interface{}{true, "video", true, "video", "u2", "u1"}, args)
}

func TestSQLAnonymousContains(t *testing.T) {
	sql, args := From("tweets").Contains("is_liked", likesOf(domain.KindTweet), "user_id", "").SQL()
	assert.Equal(t, "SELECT (1 = 0) AS is_liked FROM tweets", sql)
	assert.Empty(t, args)
}

func TestSQLDefaultColumns(t *testing.T) {
	sql, _ := From("videos").SQL()
	assert.Equal(t, "SELECT videos.* FROM videos", sql)
}

func TestPipeline(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	alice := domain.User{Username: "alice", Email: "a@x.io", FullName: "Alice", Avatar: "a.png", PasswordHash: "x"}
	bob := domain.User{Username: "bob", Email: "b@x.io", FullName: "Bob", Avatar: "b.png", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	now := time.Now()
	first := domain.Video{OwnerID: alice.ID, VideoFile: "1.mp4", Thumbnail: "1.png", Title: "first", Description: "d", Views: 3, CreatedAt: now.Add(-time.Hour)}
	second := domain.Video{OwnerID: alice.ID, VideoFile: "2.mp4", Thumbnail: "2.png", Title: "second", Description: "d", Views: 4, CreatedAt: now}
	orphan := domain.Video{OwnerID: "gone", VideoFile: "3.mp4", Thumbnail: "3.png", Title: "orphan", Description: "d", CreatedAt: now.Add(-2 * time.Hour)}
	for _, v := range []*domain.Video{&first, &second, &orphan} {
		require.NoError(t, db.Create(v).Error)
	}
	for _, l := range []domain.Like{
		{UserID: alice.ID, TargetKind: domain.KindVideo, TargetID: first.ID},
		{UserID: bob.ID, TargetKind: domain.KindVideo, TargetID: first.ID},
		{UserID: bob.ID, TargetKind: domain.KindTweet, TargetID: second.ID},
	} {
		l := l
		require.NoError(t, db.Create(&l).Error)
	}

	pipeline := func() *Pipeline {
		return From("videos").
			Project("id", "title", "views", "created_at").
			Lookup("owner", owner, "username").
			Count("likes_count", likesOf(domain.KindVideo)).
			Contains("is_liked", likesOf(domain.KindVideo), "user_id", bob.ID).
			Sort("videos.created_at", true)
	}

	t.Run("all", func(t *testing.T) {
		var rows []videoRow
		require.NoError(t, pipeline().All(ctx, db, &rows))
		require.Len(t, rows, 3)

		assert.Equal(t, "second", rows[0].Title)
		assert.Equal(t, int64(0), rows[0].LikesCount)
		assert.False(t, rows[0].IsLiked)

		assert.Equal(t, "first", rows[1].Title)
		assert.Equal(t, int64(2), rows[1].LikesCount)
		assert.True(t, rows[1].IsLiked)
		require.NotNil(t, rows[1].OwnerUsername)
		assert.Equal(t, "alice", *rows[1].OwnerUsername)

		assert.Equal(t, "orphan", rows[2].Title)
		assert.Nil(t, rows[2].OwnerUsername)
	})

	t.Run("first", func(t *testing.T) {
		var row videoRow
		found, err := pipeline().Match("videos.id = ?", first.ID).First(ctx, db, &row)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, first.ID, row.ID)

		found, err = pipeline().Match("videos.id = ?", "missing").First(ctx, db, &videoRow{})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("paginate", func(t *testing.T) {
		var rows []videoRow
		total, err := pipeline().Match("videos.owner_id = ?", alice.ID).
			Paginate(ctx, db, domain.NewPage(2, 1), &rows)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "first", rows[0].Title)
	})

	t.Run("aggregate", func(t *testing.T) {
		var totals struct {
			TotalLikes int64
			TotalViews int64
			Videos     int64
		}
		err := From("videos").
			Match("videos.owner_id = ?", alice.ID).
			Project("views").
			Count("likes_count", likesOf(domain.KindVideo)).
			Aggregate(ctx, db, &totals,
				"COALESCE(SUM(agg.likes_count), 0) AS total_likes",
				"COALESCE(SUM(agg.views), 0) AS total_views",
				"COUNT(*) AS videos")
		require.NoError(t, err)
		assert.Equal(t, int64(2), totals.TotalLikes)
		assert.Equal(t, int64(7), totals.TotalViews)
		assert.Equal(t, int64(2), totals.Videos)
	})

	t.Run("sum", func(t *testing.T) {
		var rows []struct {
			Username   string
			TotalViews int64
		}
		err := From("users").
			Project("username").
			Sum("total_views", Relation{Table: "videos", ForeignKey: "owner_id", LocalKey: "id"}, "views").
			Sort("users.username", false).
			All(ctx, db, &rows)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(7), rows[0].TotalViews)
		assert.Equal(t, int64(0), rows[1].TotalViews)
	})
}
