package auth

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"Abcdef1.", true},
		{"Abc1!", false},
		{"password1!", false},
		{"PASSWORD1!", false},
		{"Password!!", false},
		{"Password12", false},
		{"Passw0rd!#", false},
		{"Pass w0rd!", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)

	assert.True(t, CheckPasswordHash("Passw0rd!", hash))
	assert.False(t, CheckPasswordHash("Passw0rd?", hash))
}

func TestHashPassword_LongerThanBcryptLimit(t *testing.T) {
	long := "Abc1!" + strings.Repeat("a", 70)
	require.Greater(t, len(long), 72)
	require.True(t, ValidatePassword(long))

	hash, err := HashPasswordWithCost(long, bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash(long, hash))
	// отличие после 72-го байта значимо
	assert.False(t, CheckPasswordHash(long+"b", hash))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Generate("user-1", "anna@example.com")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	m := NewTokenManager("secret", time.Hour).WithClock(func() time.Time { return issued })

	token, err := m.Generate("user-1", "anna@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	foreign, err := NewTokenManager("other", time.Hour).Generate("user-1", "a@b.c")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateResetToken(t *testing.T) {
	a, err := GenerateResetToken()
	require.NoError(t, err)
	b, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
