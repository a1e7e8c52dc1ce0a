package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
	"videotube/events"
)

func TestSubscriptionToggle(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	_, err := f.Subscription.Toggle(f.ctx, alice.ID, alice.ID)
	assertCode(t, errs.EINVALID, err)
	_, err = f.Subscription.Toggle(f.ctx, bob.ID[:8], alice.ID)
	assertCode(t, errs.EINVALID, err)

	subscribed, err := f.Subscription.Toggle(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)
	assert.Equal(t, int64(1), f.count(t, &domain.Subscription{}, "channel_id = ?", alice.ID))

	subscribed, err = f.Subscription.Toggle(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)
	assert.Zero(t, f.count(t, &domain.Subscription{}, "channel_id = ?", alice.ID))

	assert.Equal(t, []string{events.SubscriptionToggled, events.SubscriptionToggled}, f.events.Types())
}

func TestSubscriptionListings(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	for _, pair := range [][2]*domain.User{{alice, bob}, {alice, carol}, {carol, alice}, {bob, carol}} {
		_, err := f.Subscription.Toggle(f.ctx, pair[0].ID, pair[1].ID)
		require.NoError(t, err)
	}

	subscribers, err := f.Subscription.Subscribers(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, subscribers, 2)
	byName := map[string]domain.SubscriberView{}
	for _, s := range subscribers {
		byName[s.Subscriber.Username] = s
	}
	assert.True(t, byName["carol"].SubscribedBack)
	assert.Equal(t, int64(1), byName["carol"].SubscribersCount)
	assert.False(t, byName["bob"].SubscribedBack)
	assert.Equal(t, int64(1), byName["bob"].SubscribersCount)

	old := f.video(t, bob, "old")
	latest := f.video(t, bob, "latest")
	hidden := f.video(t, bob, "hidden")
	_, err = f.Video.TogglePublish(f.ctx, hidden.ID, bob.ID)
	require.NoError(t, err)

	channels, err := f.Subscription.Channels(f.ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	byChannel := map[string]domain.ChannelView{}
	for _, c := range channels {
		byChannel[c.Channel.Username] = c
	}
	require.NotNil(t, byChannel["bob"].LatestVideo)
	assert.Equal(t, latest.ID, byChannel["bob"].LatestVideo.ID)
	assert.NotEqual(t, old.ID, byChannel["bob"].LatestVideo.ID)
	assert.Equal(t, int64(1), byChannel["bob"].SubscribersCount)
	assert.Nil(t, byChannel["alice"].LatestVideo)
	assert.Equal(t, int64(2), byChannel["alice"].SubscribersCount)

	_, err = f.Subscription.Subscribers(f.ctx, old.ID)
	assertCode(t, errs.ENOTFOUND, err)

	none, err := f.Subscription.Channels(f.ctx, f.user(t, "dave").ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
