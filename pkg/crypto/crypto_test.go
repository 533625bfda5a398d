package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordUsesFixedCost(t *testing.T) {
	hash, err := HashPassword("Abc12345!")
	require.NoError(t, err)
	require.NotEqual(t, "Abc12345!", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, PasswordHashCost, cost)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abc12345!")
	require.NoError(t, err)

	require.True(t, VerifyPassword(hash, "Abc12345!"))
	require.False(t, VerifyPassword(hash, "Abc12345?"))
	require.False(t, VerifyPassword("not-a-hash", "Abc12345!"))
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
