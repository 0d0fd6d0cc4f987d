package jwtutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodevhub/internal/pkg/jwtutil"
)

const secret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := jwtutil.GenerateToken(secret, time.Hour, 42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtutil.ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := jwtutil.GenerateToken(secret, time.Hour, 42, "alice")
	require.NoError(t, err)

	_, err = jwtutil.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := jwtutil.GenerateToken(secret, -time.Minute, 42, "alice")
	require.NoError(t, err)

	_, err = jwtutil.ParseToken(secret, token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := jwtutil.ParseToken(secret, "not.a.token")
	assert.Error(t, err)
}
