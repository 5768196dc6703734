package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/identity"
)

var (
	// ErrInvalidToken indicates the token could not be parsed or verified
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token is past its expiry
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidClaims indicates the token carries malformed claims
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims carries the authenticated identity inside a JWT
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService validates bearer tokens issued by the identity provider
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a token validator with the given signing secret
func NewJWTService(secret, issuer string) *JWTService {
	return &JWTService{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses and verifies a token string and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ActorFromClaims converts validated claims into a domain actor
func ActorFromClaims(claims *Claims) (identity.Actor, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	role := identity.Role(claims.Role)
	if !role.IsValid() {
		return identity.Actor{}, fmt.Errorf("%w: role %q", ErrInvalidClaims, claims.Role)
	}
	return identity.NewActor(userID, role), nil
}

// IssueToken signs a token for the given actor. Used by tests and local
// development tooling; production tokens come from the identity provider.
func (s *JWTService) IssueToken(actor identity.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.UserID.String(),
		Role:   actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
