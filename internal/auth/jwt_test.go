package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b7f3c52-2a44-4f8e-9c61-5d0a6c1e8f10"

func TestAccessToken_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, err := m.GenerateAccessToken(testUserID, "a@example.com")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.NotEmpty(t, claims.JTI)
}

func TestAccessToken_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	raw, err := m.GenerateAccessToken(testUserID, "a@example.com")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	raw, err := NewManager("one", time.Hour).GenerateAccessToken(testUserID, "")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_RejectsOtherTypes(t *testing.T) {
	m := NewManager("secret", time.Hour)

	claims := Claims{
		UserID:    testUserID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_RejectsNonUUIDSubject(t *testing.T) {
	m := NewManager("secret", time.Hour)

	for _, sub := range []string{"", "user-1", "alice@example.com"} {
		raw, err := m.GenerateAccessToken(sub, "")
		require.NoError(t, err)

		_, err = m.VerifyAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "sub=%q", sub)
	}

	raw, err := m.GenerateAccessToken(uuid.NewString(), "")
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(raw)
	assert.NoError(t, err)
}
