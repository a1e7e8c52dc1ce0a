package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
)

func TestPlaylistAddVideoTwice(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	v := f.video(t, alice, "intro")
	f.setViews(t, v, 9)
	playlist := &domain.Playlist{OwnerID: alice.ID, Name: "favourites"}
	require.NoError(t, f.Playlist.Create(f.ctx, playlist))

	_, err := f.Playlist.AddVideo(f.ctx, playlist.ID, v.ID, alice.ID)
	require.NoError(t, err)
	detail, err := f.Playlist.AddVideo(f.ctx, playlist.ID, v.ID, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.count(t, &domain.PlaylistVideo{}, "playlist_id = ?", playlist.ID))
	require.Len(t, detail.Videos, 1)
	assert.Equal(t, v.ID, detail.Videos[0].ID)
	assert.Equal(t, int64(1), detail.VideoCount)
	assert.Equal(t, int64(9), detail.TotalViews)
}

func TestPlaylistByUser(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	a := f.video(t, alice, "a")
	b := f.video(t, alice, "b")
	f.setViews(t, a, 2)
	f.setViews(t, b, 3)

	full := &domain.Playlist{OwnerID: alice.ID, Name: "full"}
	empty := &domain.Playlist{OwnerID: alice.ID, Name: "empty"}
	require.NoError(t, f.Playlist.Create(f.ctx, full))
	require.NoError(t, f.Playlist.Create(f.ctx, empty))
	for _, v := range []*domain.Video{a, b} {
		_, err := f.Playlist.AddVideo(f.ctx, full.ID, v.ID, alice.ID)
		require.NoError(t, err)
	}

	playlists, err := f.Playlist.ByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	byName := map[string]domain.PlaylistView{}
	for _, p := range playlists {
		byName[p.Name] = p
	}
	assert.Equal(t, int64(2), byName["full"].VideoCount)
	assert.Equal(t, int64(5), byName["full"].TotalViews)
	assert.Equal(t, int64(0), byName["empty"].VideoCount)
	assert.Equal(t, int64(0), byName["empty"].TotalViews)
	require.NotNil(t, byName["full"].Owner)
	assert.Equal(t, "alice", byName["full"].Owner.Username)

	detail, err := f.Playlist.ByID(f.ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(detail.Videos))

	emptyDetail, err := f.Playlist.ByID(f.ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, emptyDetail.Videos)
	assert.Empty(t, emptyDetail.Videos)
}

func TestPlaylistNonOwner(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, bob, "bobs")
	playlist := &domain.Playlist{OwnerID: alice.ID, Name: "mine", Description: "keep out"}
	require.NoError(t, f.Playlist.Create(f.ctx, playlist))

	name := "stolen"
	_, err := f.Playlist.Update(f.ctx, playlist.ID, bob.ID, domain.PlaylistUpdate{Name: &name})
	assertCode(t, errs.EFORBIDDEN, err)
	assertCode(t, errs.EFORBIDDEN, f.Playlist.Delete(f.ctx, playlist.ID, bob.ID))
	_, err = f.Playlist.AddVideo(f.ctx, playlist.ID, v.ID, bob.ID)
	assertCode(t, errs.EFORBIDDEN, err)

	stored, err := f.Playlist.ByID(f.ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Name)
	assert.Empty(t, stored.Videos)
}

func TestPlaylistLifecycle(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	v := f.video(t, alice, "intro")

	assertCode(t, errs.EINVALID, f.Playlist.Create(f.ctx, &domain.Playlist{OwnerID: alice.ID, Name: "  "}))

	playlist := &domain.Playlist{OwnerID: alice.ID, Name: "watch later"}
	require.NoError(t, f.Playlist.Create(f.ctx, playlist))

	desc := "for the weekend"
	updated, err := f.Playlist.Update(f.ctx, playlist.ID, alice.ID, domain.PlaylistUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "watch later", updated.Name)
	assert.Equal(t, "for the weekend", updated.Description)

	_, err = f.Playlist.AddVideo(f.ctx, playlist.ID, v.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.Playlist.AddVideo(f.ctx, playlist.ID, alice.ID, alice.ID)
	assertCode(t, errs.ENOTFOUND, err)

	detail, err := f.Playlist.RemoveVideo(f.ctx, playlist.ID, v.ID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Videos)
	_, err = f.Playlist.RemoveVideo(f.ctx, playlist.ID, v.ID, alice.ID)
	assertCode(t, errs.ENOTFOUND, err)

	require.NoError(t, f.Playlist.Delete(f.ctx, playlist.ID, alice.ID))
	_, err = f.Playlist.ByID(f.ctx, playlist.ID)
	assertCode(t, errs.ENOTFOUND, err)
}
