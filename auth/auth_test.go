package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/domain"
	"videotube/errs"
)

func TestContextUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.Equal(t, "", UserID(ctx))

	u := &domain.User{ID: "u1", Username: "alice"}
	ctx = SetUser(ctx, u)
	assert.Same(t, u, GetUser(ctx))
	assert.Equal(t, "u1", UserID(ctx))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("access-secret", "refresh-secret", time.Minute, time.Hour)

	pair, err := tokens.Issue("u1", "alice")
	require.NoError(t, err)

	id, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	id, err = tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	t.Run("kinds are not interchangeable", func(t *testing.T) {
		_, err := tokens.ParseAccess(pair.RefreshToken)
		assert.Equal(t, errs.TokenInvalid, err)
		_, err = tokens.ParseRefresh(pair.AccessToken)
		assert.Equal(t, errs.TokenInvalid, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("access-secret", "refresh-secret", time.Minute, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := later.ParseAccess(pair.AccessToken)
		assert.Equal(t, errs.TokenInvalid, err)
		_, err = later.ParseRefresh(pair.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokens("different", "different", time.Minute, time.Hour)
		_, err := other.ParseAccess(pair.AccessToken)
		assert.Equal(t, errs.TokenInvalid, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "u1",
			Audience: jwt.ClaimStrings{accessAudience},
		}}
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.ParseAccess(none)
		assert.Equal(t, errs.TokenInvalid, err)
		_, err = tokens.ParseAccess("")
		assert.Equal(t, errs.TokenInvalid, err)
	})
}
