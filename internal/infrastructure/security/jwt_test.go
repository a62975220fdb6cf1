package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

func TestJWTManager_IssueDecode(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.Issue(id, domain.RoleProfessional)
	require.NoError(t, err)

	got, err := m.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, id, got.UserID)
	assert.Equal(t, domain.RoleProfessional, got.Role)
}

func TestJWTManager_Expiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("secret", 120*time.Minute)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(uuid.New(), domain.RolePatient)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(119 * time.Minute) }
	_, err = m.Decode(token)
	assert.NoError(t, err)

	m.now = func() time.Time { return issued.Add(121 * time.Minute) }
	_, err = m.Decode(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).Issue(uuid.New(), domain.RolePatient)
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).Decode(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Role: domain.RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Decode(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTManager_RejectsUnknownRoleAndMissingExpiry(t *testing.T) {
	secret := []byte("secret")
	m := NewJWTManager("secret", time.Hour)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = m.Decode(badRole)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             domain.RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = m.Decode(noExp)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
