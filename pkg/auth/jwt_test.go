package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-booking")
	id := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(id, "admin@clinic.com", "ADMIN")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AdminID)
	assert.Equal(t, "admin@clinic.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTService("a", time.Hour, "clinic-booking").GenerateAccessToken(uuid.New(), "x@y.z", "STAFF")
	require.NoError(t, err)

	_, err = NewJWTService("b", time.Hour, "clinic-booking").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, "clinic-booking").(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateAccessToken(uuid.New(), "x@y.z", "STAFF")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
