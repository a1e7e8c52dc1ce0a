package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"videotube/errs"
)

const (
	accessAudience  = "access"
	refreshAudience = "refresh"
)

// Claims are the claims of both token kinds. The subject is the user id,
// the audience tells access and refresh tokens apart.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what a client receives on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Tokens issues and verifies HS256 signed access and refresh tokens.
// Each kind has its own secret so one can never pass for the other.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

// NewTokens returns an instance of Tokens.
func NewTokens(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs a new access and refresh token for the user.
func (t *Tokens) Issue(userID, username string) (*TokenPair, error) {
	access, err := t.sign(t.accessSecret, accessAudience, userID, username, t.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(t.refreshSecret, refreshAudience, userID, "", t.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns the user id it was issued to.
func (t *Tokens) ParseAccess(token string) (string, error) {
	return t.parse(t.accessSecret, accessAudience, token)
}

// ParseRefresh verifies a refresh token and returns the user id it was issued to.
func (t *Tokens) ParseRefresh(token string) (string, error) {
	return t.parse(t.refreshSecret, refreshAudience, token)
}

func (t *Tokens) sign(secret []byte, audience, userID, username string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (t *Tokens) parse(secret []byte, audience, token string) (string, error) {
	if token == "" {
		return "", errs.TokenInvalid
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errs.TokenInvalid
	}
	return claims.Subject, nil
}
