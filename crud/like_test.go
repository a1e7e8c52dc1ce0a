package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
	"videotube/events"
)

func TestLikeToggleTwice(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, alice, "intro")
	target := domain.VideoTarget(v.ID)
	likes := func() int64 { return f.count(t, &domain.Like{}, "target_id = ?", v.ID) }

	liked, err := f.Like.Toggle(f.ctx, bob.ID, target)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), likes())

	liked, err = f.Like.Toggle(f.ctx, bob.ID, target)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), likes())

	assert.Equal(t, []string{events.VideoPublished, events.LikeToggled, events.LikeToggled}, f.events.Types())
	assert.Equal(t, "false", f.events.Events[2].Attrs["liked"])
	assert.Equal(t, "video", f.events.Events[2].Attrs["kind"])
}

func TestLikeTargetsAreSeparate(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	tweet := &domain.Tweet{OwnerID: alice.ID, Content: "hi"}
	require.NoError(t, f.Tweet.Create(f.ctx, tweet))

	liked, err := f.Like.Toggle(f.ctx, alice.ID, domain.TweetTarget(tweet.ID))
	require.NoError(t, err)
	assert.True(t, liked)

	// A tweet id is not a video id.
	_, err = f.Like.Toggle(f.ctx, alice.ID, domain.VideoTarget(tweet.ID))
	assertCode(t, errs.ENOTFOUND, err)
	_, err = f.Like.Toggle(f.ctx, alice.ID, domain.LikeTarget{})
	assertCode(t, errs.EINVALID, err)
	_, err = f.Like.Toggle(f.ctx, "", domain.TweetTarget(tweet.ID))
	assertCode(t, errs.EINVALID, err)
}

func TestLikeUniquePair(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	v := f.video(t, alice, "intro")

	like := domain.Like{UserID: alice.ID, TargetKind: domain.KindVideo, TargetID: v.ID}
	require.NoError(t, f.db.Create(&like).Error)
	dup := domain.Like{UserID: alice.ID, TargetKind: domain.KindVideo, TargetID: v.ID}
	assert.Error(t, f.db.Create(&dup).Error)

	// A toggle that finds the row removes it.
	liked, err := f.Like.Toggle(f.ctx, alice.ID, domain.VideoTarget(v.ID))
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikedVideos(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	first := f.video(t, alice, "first")
	second := f.video(t, alice, "second")
	f.video(t, alice, "unliked")

	_, err := f.Like.Toggle(f.ctx, bob.ID, domain.VideoTarget(first.ID))
	require.NoError(t, err)
	_, err = f.Like.Toggle(f.ctx, bob.ID, domain.VideoTarget(second.ID))
	require.NoError(t, err)

	videos, err := f.Like.LikedVideos(f.ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.ElementsMatch(t, []string{"first", "second"}, titles(videos))
	for _, v := range videos {
		require.NotNil(t, v.Owner)
		assert.Equal(t, "alice", v.Owner.Username)
	}

	none, err := f.Like.LikedVideos(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
