package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
)

func TestUserRegister(t *testing.T) {
	f := setup(t)

	u := &domain.User{
		Username: "  Alice ",
		Email:    "ALICE@Example.com ",
		FullName: "Alice",
		Avatar:   "https://cdn.example.com/a.png",
		Password: testPassword,
	}
	require.NoError(t, f.User.Register(f.ctx, u))
	assert.True(t, domain.ValidID(u.ID))
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Empty(t, u.Password)
	assert.NotEmpty(t, u.PasswordHash)

	t.Run("taken", func(t *testing.T) {
		dup := &domain.User{Username: "alice", Email: "other@example.com", FullName: "A", Avatar: "a", Password: testPassword}
		assertCode(t, errs.ECONFLICT, f.User.Register(f.ctx, dup))
		dup = &domain.User{Username: "other", Email: "alice@example.com", FullName: "A", Avatar: "a", Password: testPassword}
		assertCode(t, errs.ECONFLICT, f.User.Register(f.ctx, dup))
	})

	t.Run("missing fields", func(t *testing.T) {
		noAvatar := &domain.User{Username: "carol", Email: "carol@example.com", FullName: "C", Password: testPassword}
		assertCode(t, errs.EINVALID, f.User.Register(f.ctx, noAvatar))
	})

	t.Run("short password", func(t *testing.T) {
		short := &domain.User{Username: "dave", Email: "dave@example.com", FullName: "D", Avatar: "d", Password: "short"}
		assertCode(t, errs.EINVALID, f.User.Register(f.ctx, short))
	})
}

func TestUserAuthenticate(t *testing.T) {
	f := setup(t)
	u := f.user(t, "alice")

	byName, err := f.User.Authenticate(f.ctx, "Alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := f.User.Authenticate(f.ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = f.User.Authenticate(f.ctx, "alice", "wrong-password")
	assertCode(t, errs.EUNAUTHORIZED, err)
	_, err = f.User.Authenticate(f.ctx, "nobody", testPassword)
	assertCode(t, errs.EUNAUTHORIZED, err)
	_, err = f.User.Authenticate(f.ctx, "", "")
	assertCode(t, errs.EINVALID, err)
}

func TestUserRefreshToken(t *testing.T) {
	f := setup(t)
	u := f.user(t, "alice")

	require.NoError(t, f.User.SetRefreshToken(f.ctx, u.ID, "token-one"))
	got, err := f.User.ByRefreshToken(f.ctx, u.ID, "token-one")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, "token-one", got.RefreshTokenHash)

	_, err = f.User.ByRefreshToken(f.ctx, u.ID, "token-two")
	assertCode(t, errs.EUNAUTHORIZED, err)

	require.NoError(t, f.User.SetRefreshToken(f.ctx, u.ID, ""))
	_, err = f.User.ByRefreshToken(f.ctx, u.ID, "token-one")
	assertCode(t, errs.EUNAUTHORIZED, err)
}

func TestUserChangePassword(t *testing.T) {
	f := setup(t)
	u := f.user(t, "alice")

	assertCode(t, errs.EINVALID, f.User.ChangePassword(f.ctx, u.ID, "not-the-password", "new-password"))
	require.NoError(t, f.User.ChangePassword(f.ctx, u.ID, testPassword, "new-password"))

	_, err := f.User.Authenticate(f.ctx, "alice", testPassword)
	assertCode(t, errs.EUNAUTHORIZED, err)
	_, err = f.User.Authenticate(f.ctx, "alice", "new-password")
	assert.NoError(t, err)
}

func TestUserUpdateAccount(t *testing.T) {
	f := setup(t)
	u := f.user(t, "alice")
	f.user(t, "bob")

	name, email := "Alice Liddell", "Liddell@Example.com"
	got, err := f.User.UpdateAccount(f.ctx, u.ID, domain.UserUpdate{FullName: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.FullName)
	assert.Equal(t, "liddell@example.com", got.Email)

	taken := "bob@example.com"
	_, err = f.User.UpdateAccount(f.ctx, u.ID, domain.UserUpdate{Email: &taken})
	assertCode(t, errs.ECONFLICT, err)

	_, err = f.User.UpdateAccount(f.ctx, u.ID, domain.UserUpdate{})
	assertCode(t, errs.EINVALID, err)

	// The password survives account updates.
	_, err = f.User.Authenticate(f.ctx, "alice", testPassword)
	assert.NoError(t, err)
}

func TestUserIdentityRace(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	// Writes that lost the race to identityIsAvail still hit the unique indexes.
	err := f.User.userGorm.Create(f.ctx, &domain.User{
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "hash",
	})
	assertCode(t, errs.ECONFLICT, err)

	err = f.User.userGorm.Create(f.ctx, &domain.User{
		Username:     "carol",
		Email:        alice.Email,
		PasswordHash: "hash",
	})
	assertCode(t, errs.ECONFLICT, err)

	stored, err := f.User.userGorm.ByID(f.ctx, bob.ID)
	require.NoError(t, err)
	stored.Email = alice.Email
	assertCode(t, errs.ECONFLICT, f.User.userGorm.Update(f.ctx, stored))
}

func TestUserChannelProfile(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	_, err := f.Subscription.Toggle(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.Subscription.Toggle(f.ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	_, err = f.Subscription.Toggle(f.ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	profile, err := f.User.ChannelProfile(f.ctx, "ALICE", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, int64(2), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	anonymous, err := f.User.ChannelProfile(f.ctx, "alice", "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)

	_, err = f.User.ChannelProfile(f.ctx, "nobody", "")
	assertCode(t, errs.ENOTFOUND, err)
}

func TestUserWatchHistory(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	none, err := f.User.WatchHistory(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	v := f.video(t, alice, "intro")
	_, err = f.Video.View(f.ctx, v.ID, bob.ID)
	require.NoError(t, err)

	watching, err := f.User.WatchHistory(f.ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, watching)
	assert.Equal(t, v.ID, watching.ID)
	require.NotNil(t, watching.Owner)
	assert.Equal(t, "alice", watching.Owner.Username)
}

func TestHMAC(t *testing.T) {
	h := NewHMAC("key")
	assert.Equal(t, h.Hash("x"), h.Hash("x"))
	assert.NotEqual(t, h.Hash("x"), NewHMAC("other").Hash("x"))
	assert.True(t, h.Equal("x", h.Hash("x")))
	assert.False(t, h.Equal("y", h.Hash("x")))
}
