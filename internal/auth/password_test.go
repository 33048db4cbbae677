package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordVerifiesAgainstOriginal(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)
	require.True(t, VerifyPassword(hash, "correct horse battery staple"))
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.False(t, VerifyPassword(hash, "wrong password"))
}
