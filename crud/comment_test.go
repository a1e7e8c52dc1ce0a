package crud

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
)

func TestCommentPagination(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	v := f.video(t, alice, "intro")
	for i := 0; i < 15; i++ {
		c := &domain.Comment{OwnerID: alice.ID, VideoID: v.ID, Content: fmt.Sprintf("comment %d", i)}
		require.NoError(t, f.Comment.Create(f.ctx, c))
	}

	first, err := f.Comment.ByVideo(f.ctx, v.ID, "", domain.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, first.Docs, 10)
	assert.Equal(t, int64(15), first.TotalDocs)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPrevPage)

	second, err := f.Comment.ByVideo(f.ctx, v.ID, "", domain.Page{Number: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, second.Docs, 5)
	assert.False(t, second.HasNextPage)
	assert.True(t, second.HasPrevPage)

	seen := map[string]bool{}
	for _, c := range append(first.Docs, second.Docs...) {
		assert.False(t, seen[c.ID], "comment listed twice")
		seen[c.ID] = true
		require.NotNil(t, c.Owner)
		assert.Equal(t, "alice", c.Owner.Username)
	}

	beyond, err := f.Comment.ByVideo(f.ctx, v.ID, "", domain.Page{Number: 3, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, beyond.Docs)
	assert.Empty(t, beyond.Docs)
}

func TestCommentCreate(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	v := f.video(t, alice, "intro")

	assertCode(t, errs.ENOTFOUND, f.Comment.Create(f.ctx, &domain.Comment{OwnerID: alice.ID, VideoID: alice.ID, Content: "hi"}))
	assertCode(t, errs.EINVALID, f.Comment.Create(f.ctx, &domain.Comment{OwnerID: alice.ID, VideoID: v.ID, Content: " "}))

	c := &domain.Comment{OwnerID: alice.ID, VideoID: v.ID, Content: " hi "}
	require.NoError(t, f.Comment.Create(f.ctx, c))
	assert.Equal(t, "hi", c.Content)

	_, err := f.Comment.ByVideo(f.ctx, alice.ID, "", domain.NewPage(1, 10))
	assertCode(t, errs.ENOTFOUND, err)
}

func TestCommentLikes(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, alice, "intro")
	c := &domain.Comment{OwnerID: alice.ID, VideoID: v.ID, Content: "hi"}
	require.NoError(t, f.Comment.Create(f.ctx, c))
	_, err := f.Like.Toggle(f.ctx, bob.ID, domain.CommentTarget(c.ID))
	require.NoError(t, err)

	page, err := f.Comment.ByVideo(f.ctx, v.ID, bob.ID, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, int64(1), page.Docs[0].LikesCount)
	assert.True(t, page.Docs[0].IsLiked)
}

func TestCommentNonOwner(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, alice, "intro")
	c := &domain.Comment{OwnerID: alice.ID, VideoID: v.ID, Content: "original"}
	require.NoError(t, f.Comment.Create(f.ctx, c))

	_, err := f.Comment.Update(f.ctx, c.ID, bob.ID, "changed")
	assertCode(t, errs.EFORBIDDEN, err)
	assertCode(t, errs.EFORBIDDEN, f.Comment.Delete(f.ctx, c.ID, bob.ID))

	var stored domain.Comment
	require.NoError(t, f.db.First(&stored, "id = ?", c.ID).Error)
	assert.Equal(t, "original", stored.Content)

	updated, err := f.Comment.Update(f.ctx, c.ID, alice.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = f.Like.Toggle(f.ctx, bob.ID, domain.CommentTarget(c.ID))
	require.NoError(t, err)
	require.NoError(t, f.Comment.Delete(f.ctx, c.ID, alice.ID))
	assert.Zero(t, f.count(t, &domain.Comment{}, "id = ?", c.ID))
	assert.Zero(t, f.count(t, &domain.Like{}, "target_id = ?", c.ID))
}
