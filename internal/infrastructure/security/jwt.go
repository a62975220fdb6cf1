package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// Claims is the session token payload: subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 session tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 120 * time.Minute
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *JWTManager) Issue(userID uuid.UUID, role string) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode validates signature, algorithm and expiry. Every failure maps to
// domain.ErrUnauthorized.
func (m *JWTManager) Decode(token string) (domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		}
		return domain.Identity{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || !domain.ValidRole(claims.Role) {
		return domain.Identity{}, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthorized)
	}
	return domain.Identity{UserID: id, Role: claims.Role}, nil
}
