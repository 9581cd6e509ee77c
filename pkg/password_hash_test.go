package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("coach-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordHashCost, cost)

	assert.True(t, CheckPasswordHash("coach-pass", hash))
	assert.False(t, CheckPasswordHash("coach-pass ", hash))
	assert.False(t, CheckPasswordHash("coach-pass", "not-a-hash"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	assert.Error(t, err)
}
