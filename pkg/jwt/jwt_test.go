package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timify/backend/config"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               testSecret,
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

func TestTokens_RoundTrip(t *testing.T) {
	m := newTestManager()

	cases := []struct {
		name       string
		generate   func() (string, error)
		wantType   string
		wantRemain bool
		wantTTL    time.Duration
	}{
		{
			name:     "access",
			generate: func() (string, error) { return m.GenerateAccessToken("u-staff", "staff", "rao") },
			wantType: "access",
			wantTTL:  15 * time.Minute,
		},
		{
			name:     "refresh",
			generate: func() (string, error) { return m.GenerateRefreshToken("u-staff", "staff", "rao", false) },
			wantType: "refresh",
			wantTTL:  24 * time.Hour,
		},
		{
			name:       "refresh remember me",
			generate:   func() (string, error) { return m.GenerateRefreshToken("u-staff", "staff", "rao", true) },
			wantType:   "refresh",
			wantRemain: true,
			wantTTL:    7 * 24 * time.Hour,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := tc.generate()
			require.NoError(t, err)

			claims, err := m.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, "u-staff", claims.UserID)
			assert.Equal(t, "staff", claims.Role)
			assert.Equal(t, "rao", claims.Username)
			assert.Equal(t, tc.wantType, claims.TokenType)
			assert.Equal(t, tc.wantRemain, claims.RememberMe)
			assert.Equal(t, "timify", claims.Issuer)
			assert.NotEmpty(t, claims.ID, "每个 token 都应有 jti，用于注销")
			assert.WithinDuration(t, time.Now().Add(tc.wantTTL), claims.ExpiresAt.Time, time.Minute)
		})
	}
}

func TestTokens_UniqueJTI(t *testing.T) {
	m := newTestManager()

	a, err := m.GenerateAccessToken("u-1", "student", "s1")
	require.NoError(t, err)
	b, err := m.GenerateAccessToken("u-1", "student", "s1")
	require.NoError(t, err)

	ca, _ := m.ParseToken(a)
	cb, _ := m.ParseToken(b)
	assert.NotEqual(t, ca.ID, cb.ID, "同一用户连续签发的 token jti 不应相同")
}

func TestParseToken_Rejected(t *testing.T) {
	m := newTestManager()
	valid, err := m.GenerateAccessToken("u-1", "admin", "admin")
	require.NoError(t, err)

	otherSecret := NewManager(&config.AuthConfig{JWTSecret: "different-secret-key", AccessTokenTTL: time.Minute})
	forged, _ := otherSecret.GenerateAccessToken("u-1", "admin", "admin")

	foreign := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, Claims{
		UserID: "u-1", Role: "admin", TokenType: "access",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignIssuer, _ := foreign.SignedString([]byte(testSecret))

	unsigned := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, Claims{
		UserID: "u-1", Role: "admin", TokenType: "access",
		RegisteredClaims: jwtv5.RegisteredClaims{Issuer: issuer},
	})
	noneAlg, _ := unsigned.SignedString(jwtv5.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"garbage":        "invalid.token.string",
		"wrong secret":   forged,
		"foreign issuer": foreignIssuer,
		"none alg":       noneAlg,
		"truncated":      valid[:len(valid)-4],
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseToken(token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      testSecret,
		AccessTokenTTL: -time.Minute,
	})

	token, err := m.GenerateAccessToken("u-1", "admin", "admin")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_TTLs(t *testing.T) {
	m := newTestManager()

	assert.Equal(t, 15*time.Minute, m.AccessTokenTTL())
	assert.Equal(t, 24*time.Hour, m.RefreshTokenTTL(false))
	assert.Equal(t, 7*24*time.Hour, m.RefreshTokenTTL(true))
}
