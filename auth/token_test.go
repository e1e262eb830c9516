package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignAndParseToken(t *testing.T) {
	user := &User{ID: 7, Username: "alice", Email: "alice@example.com"}

	signed, err := signToken(testSecret, user, tokenTypeAccess, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := parseToken(testSecret, signed, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	user := &User{ID: 7, Username: "alice"}

	reset, err := signToken(testSecret, user, tokenTypeReset, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = parseToken(testSecret, reset, tokenTypeAccess)
	assert.Error(t, err, "reset tokens are not sessions")

	expired, err := signToken(testSecret, user, tokenTypeAccess, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = parseToken(testSecret, expired, tokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := signToken(testSecret, user, tokenTypeAccess, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = parseToken("other-secret", valid, tokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = parseToken(testSecret, "garbage", tokenTypeAccess)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	claims := &Claims{
		Username:  "alice",
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = parseToken(testSecret, signed, tokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
