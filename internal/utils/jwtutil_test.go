package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := GenerateToken("u1", "org1", "teacher", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "org1", claims.OrgID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _, err := GenerateToken("u1", "org1", "teacher", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}
