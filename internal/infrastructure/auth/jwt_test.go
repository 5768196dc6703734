package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/backend/internal/domain/identity"
)

const testSecret = "test-secret"

func TestJWTService_ValidateToken(t *testing.T) {
	svc := NewJWTService(testSecret, "quickcart")
	actor := identity.NewActor(uuid.New(), identity.RoleRetailer)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.IssueToken(actor, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, actor.UserID.String(), claims.UserID)
		assert.Equal(t, "RETAILER", claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.IssueToken(actor, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("other-secret", "quickcart")
		token, err := other.IssueToken(actor, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(testSecret, "someone-else")
		token, err := other.IssueToken(actor, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: actor.UserID.String(), Role: "RETAILER"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestActorFromClaims(t *testing.T) {
	userID := uuid.New()

	t.Run("valid manufacturer claims", func(t *testing.T) {
		actor, err := ActorFromClaims(&Claims{UserID: userID.String(), Role: "MANUFACTURER"})
		require.NoError(t, err)
		assert.Equal(t, userID, actor.UserID)
		assert.True(t, actor.CanFulfillOrders())
	})

	t.Run("malformed user id", func(t *testing.T) {
		_, err := ActorFromClaims(&Claims{UserID: "nope", Role: "RETAILER"})
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := ActorFromClaims(&Claims{UserID: userID.String(), Role: "ADMIN"})
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}
