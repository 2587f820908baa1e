package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, exp, err := svc.GenerateAccessToken(Claims{
		UserID:        42,
		Username:      "operator",
		Role:          user.RoleUser,
		DepartmentIDs: []int{3, -10},
	})
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	values, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	claims, err := svc.ParseClaims(values)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, user.RoleUser, claims.Role)
	assert.Equal(t, []int{3, -10}, claims.DepartmentIDs)
}

func TestParseClaims_RejectsOtherTokenTypes(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	_, err := svc.ParseClaims(map[string]interface{}{"type": "refresh", "user_id": float64(1)})
	assert.Error(t, err)
}

func TestRevokeToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h").(*JWTService)
	now := time.Date(2025, 5, 5, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.RevokeToken("old", now.Add(-time.Minute).Unix())
	svc.RevokeToken("current", now.Add(time.Hour).Unix())

	assert.True(t, svc.IsTokenRevoked("current"))
	assert.True(t, svc.IsTokenRevoked("old"))

	// the next revocation prunes expired entries
	svc.RevokeToken("another", now.Add(time.Hour).Unix())
	assert.False(t, svc.IsTokenRevoked("old"))
	assert.True(t, svc.IsTokenRevoked("current"))
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")
	_, _, err := svc.GenerateAccessToken(Claims{UserID: 1, Role: user.RoleAdmin})
	assert.Error(t, err)
}
